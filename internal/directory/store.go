package directory

import (
	"context"

	id "cohort/pkg/domain"
)

// Store resolves studies and participants. Read-only from the engine's point
// of view.
type Store interface {
	FindStudyByExternalID(ctx context.Context, externalID string) (Study, error)
	FindParticipant(ctx context.Context, participantID id.ParticipantID) (Participant, error)
}
