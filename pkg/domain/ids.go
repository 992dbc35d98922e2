package domain

import (
	"github.com/google/uuid"

	dErrors "cohort/pkg/domain-errors"
)

// Typed UUID identifiers. Distinct types prevent cross-entity assignment at
// compile time; construct via the Parse* functions at trust boundaries.
type (
	StudyID       uuid.UUID
	FormID        uuid.UUID
	ParticipantID uuid.UUID
	ResponseID    uuid.UUID
)

func (id StudyID) String() string       { return uuid.UUID(id).String() }
func (id FormID) String() string        { return uuid.UUID(id).String() }
func (id ParticipantID) String() string { return uuid.UUID(id).String() }
func (id ResponseID) String() string    { return uuid.UUID(id).String() }

func (id StudyID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id FormID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ParticipantID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ResponseID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// NewStudyID returns a fresh random study identifier.
func NewStudyID() StudyID { return StudyID(uuid.New()) }

// NewFormID returns a fresh random form identifier.
func NewFormID() FormID { return FormID(uuid.New()) }

// NewParticipantID returns a fresh random participant identifier.
func NewParticipantID() ParticipantID { return ParticipantID(uuid.New()) }

// NewResponseID returns a fresh random response identifier.
func NewResponseID() ResponseID { return ResponseID(uuid.New()) }

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(dErrors.CodeInvalidInput, "id must be a valid UUID", err)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseStudyID validates external input into a StudyID.
func ParseStudyID(s string) (StudyID, error) {
	parsed, err := parseUUID(s)
	return StudyID(parsed), err
}

// ParseFormID validates external input into a FormID.
func ParseFormID(s string) (FormID, error) {
	parsed, err := parseUUID(s)
	return FormID(parsed), err
}

// ParseParticipantID validates external input into a ParticipantID.
func ParseParticipantID(s string) (ParticipantID, error) {
	parsed, err := parseUUID(s)
	return ParticipantID(parsed), err
}

// ParseResponseID validates external input into a ResponseID.
func ParseResponseID(s string) (ResponseID, error) {
	parsed, err := parseUUID(s)
	return ResponseID(parsed), err
}
