package directory

import (
	"context"
	"sync"

	id "cohort/pkg/domain"
	"cohort/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu           sync.RWMutex
	studies      map[string]Study
	participants map[id.ParticipantID]Participant
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		studies:      make(map[string]Study),
		participants: make(map[id.ParticipantID]Participant),
	}
}

// AddStudy seeds a study. Seeding only; the engine never writes here.
func (s *InMemoryStore) AddStudy(study Study) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.studies[study.ExternalID] = study
}

// AddParticipant seeds a participant enrollment.
func (s *InMemoryStore) AddParticipant(participant Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[participant.ID] = participant
}

func (s *InMemoryStore) FindStudyByExternalID(_ context.Context, externalID string) (Study, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if study, ok := s.studies[externalID]; ok {
		return study, nil
	}
	return Study{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindParticipant(_ context.Context, participantID id.ParticipantID) (Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if participant, ok := s.participants[participantID]; ok {
		return participant, nil
	}
	return Participant{}, sentinel.ErrNotFound
}
