package response

import (
	"context"
	"sync"

	id "cohort/pkg/domain"
	"cohort/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	responses map[id.ResponseID]FormResponse
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{responses: make(map[id.ResponseID]FormResponse)}
}

func (s *InMemoryStore) Create(_ context.Context, response FormResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.responses {
		if existing.FormID == response.FormID && existing.ParticipantID == response.ParticipantID {
			return sentinel.ErrAlreadyUsed
		}
	}
	s.responses[response.ID] = cloneResponse(response)
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, query Query) ([]FormResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FormResponse
	for _, response := range s.responses {
		if !query.FormID.IsNil() && response.FormID != query.FormID {
			continue
		}
		if !query.ParticipantID.IsNil() && response.ParticipantID != query.ParticipantID {
			continue
		}
		if query.IsComplete != nil && response.IsComplete != *query.IsComplete {
			continue
		}
		out = append(out, cloneResponse(response))
	}
	return out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, responseID id.ResponseID) (FormResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if response, ok := s.responses[responseID]; ok {
		return cloneResponse(response), nil
	}
	return FormResponse{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, response FormResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[response.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.responses[response.ID] = cloneResponse(response)
	return nil
}

// cloneResponse guards the answer map against aliasing between callers and
// the store.
func cloneResponse(response FormResponse) FormResponse {
	answers := make(map[string]any, len(response.Responses))
	for key, value := range response.Responses {
		answers[key] = value
	}
	response.Responses = answers
	return response
}
