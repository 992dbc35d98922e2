// Package response stores participants' answer sets. At most one response row
// exists per (form version, participant); a revised form means a fresh row
// against the new version, with no answer carry-over.
package response

import (
	"time"

	id "cohort/pkg/domain"
)

// FormResponse is a participant's in-progress or completed answer set for one
// exact form version. Responses is a flat map keyed by question component ID:
// booleans for checkboxes, strings for everything else. FurthestPage is the
// 0-based resume marker and never decreases. Rows are never physically
// removed.
type FormResponse struct {
	ID            id.ResponseID    `json:"id"`
	FormID        id.FormID        `json:"form_id"`
	ParticipantID id.ParticipantID `json:"participant_id"`
	Responses     map[string]any   `json:"responses"`
	IsComplete    bool             `json:"is_complete"`
	FurthestPage  int              `json:"furthest_page"`
	LastUpdatedAt time.Time        `json:"last_updated_at"`
}

// Patch carries the mutable subset of a response. Nil fields are untouched.
type Patch struct {
	Responses    map[string]any `json:"responses,omitempty"`
	IsComplete   *bool          `json:"is_complete,omitempty"`
	FurthestPage *int           `json:"furthest_page,omitempty"`
}
