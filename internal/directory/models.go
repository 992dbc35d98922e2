// Package directory provides read-only lookups of studies and participant
// enrollment. Enrollment management itself belongs to the wider portal; the
// workflow engine only needs to resolve a participant to their registry-study
// membership.
package directory

import (
	"time"

	id "cohort/pkg/domain"
)

// Study is a research study. The registry study - the canonical contact and
// consent registry - is addressed by its configured external identifier.
type Study struct {
	ID         id.StudyID `json:"id"`
	ExternalID string     `json:"external_id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Participant is a person enrolled in a study.
type Participant struct {
	ID         id.ParticipantID `json:"id"`
	StudyID    id.StudyID       `json:"study_id"`
	EnrolledAt time.Time        `json:"enrolled_at"`
}

// EnrolledIn reports membership in the given study.
func (p Participant) EnrolledIn(studyID id.StudyID) bool {
	return p.StudyID == studyID
}
