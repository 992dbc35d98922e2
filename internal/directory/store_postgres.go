package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "cohort/pkg/domain"
	"cohort/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindStudyByExternalID(ctx context.Context, externalID string) (Study, error) {
	query := `
		SELECT id, external_id, name, created_at
		FROM studies
		WHERE external_id = $1
	`
	var (
		study   Study
		studyID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, externalID).
		Scan(&studyID, &study.ExternalID, &study.Name, &study.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Study{}, sentinel.ErrNotFound
		}
		return Study{}, fmt.Errorf("find study by external id: %w", err)
	}
	study.ID = id.StudyID(studyID)
	return study, nil
}

func (s *PostgresStore) FindParticipant(ctx context.Context, participantID id.ParticipantID) (Participant, error) {
	query := `
		SELECT id, study_id, enrolled_at
		FROM participants
		WHERE id = $1
	`
	var (
		participant   Participant
		pid, studyUID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(participantID)).
		Scan(&pid, &studyUID, &participant.EnrolledAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Participant{}, sentinel.ErrNotFound
		}
		return Participant{}, fmt.Errorf("find participant: %w", err)
	}
	participant.ID = id.ParticipantID(pid)
	participant.StudyID = id.StudyID(studyUID)
	return participant, nil
}
