package response

import (
	"context"

	id "cohort/pkg/domain"
)

// Query narrows store lookups. Zero fields match everything.
type Query struct {
	FormID        id.FormID
	ParticipantID id.ParticipantID
	// IsComplete filters on completion state when non-nil.
	IsComplete *bool
}

// Store persists response rows. Implementations enforce the one-row-per
// (form_id, participant_id) invariant, surfacing violations as
// sentinel.ErrAlreadyUsed.
type Store interface {
	Create(ctx context.Context, response FormResponse) error
	Find(ctx context.Context, query Query) ([]FormResponse, error)
	FindByID(ctx context.Context, responseID id.ResponseID) (FormResponse, error)
	Update(ctx context.Context, response FormResponse) error
}
