package catalog

import (
	"context"
	"sort"
	"sync"

	id "cohort/pkg/domain"
	"cohort/pkg/platform/sentinel"
)

// InMemoryStore keeps forms in process memory. It enforces the same
// uniqueness invariant as the postgres store so unit tests exercise identical
// conflict behavior.
type InMemoryStore struct {
	mu    sync.RWMutex
	forms map[id.FormID]Form
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{forms: make(map[id.FormID]Form)}
}

func (s *InMemoryStore) Create(_ context.Context, form Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.forms {
		if existing.StudyID == form.StudyID && existing.Name == form.Name && existing.Version == form.Version {
			return sentinel.ErrConflict
		}
	}
	s.forms[form.ID] = form
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, query Query) ([]Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Form
	for _, form := range s.forms {
		if !query.StudyID.IsNil() && form.StudyID != query.StudyID {
			continue
		}
		if query.Name != "" && form.Name != query.Name {
			continue
		}
		if query.Type != "" && form.Type != query.Type {
			continue
		}
		out = append(out, form)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version > out[j].Version
	})
	return out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, formID id.FormID) (Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if form, ok := s.forms[formID]; ok {
		return form, nil
	}
	return Form{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) MaxVersion(_ context.Context, studyID id.StudyID, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, form := range s.forms {
		if form.StudyID == studyID && form.Name == name && form.Version > max {
			max = form.Version
		}
	}
	return max, nil
}
