package catalog

import (
	"context"

	id "cohort/pkg/domain"
)

// Query narrows store lookups. Zero fields match everything.
type Query struct {
	StudyID id.StudyID
	Name    string
	Type    FormType
}

// Store persists form versions. Implementations must enforce the
// (study_id, name, version) uniqueness invariant and surface violations as
// sentinel.ErrConflict so the service can map racing revisions to a retryable
// conflict.
type Store interface {
	// Create inserts a new form row. The caller has already assigned the
	// version; the store rejects duplicates.
	Create(ctx context.Context, form Form) error
	// Find returns every matching form version, newest version first within
	// each (study, name) group.
	Find(ctx context.Context, query Query) ([]Form, error)
	// FindByID resolves one exact form version.
	FindByID(ctx context.Context, formID id.FormID) (Form, error)
	// MaxVersion returns the highest version for (study, name), or 0 when the
	// form has never been created.
	MaxVersion(ctx context.Context, studyID id.StudyID, name string) (int, error)
}
