package response

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "cohort/pkg/domain"
	"cohort/pkg/platform/sentinel"
	txcontext "cohort/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists responses in PostgreSQL. The unique constraint on
// (form_id, participant_id) enforces the one-row invariant.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, response FormResponse) error {
	answersBytes, err := json.Marshal(response.Responses)
	if err != nil {
		return fmt.Errorf("marshal response answers: %w", err)
	}
	query := `
		INSERT INTO form_responses (id, form_id, participant_id, responses, is_complete, furthest_page, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(response.ID),
		uuid.UUID(response.FormID),
		uuid.UUID(response.ParticipantID),
		answersBytes,
		response.IsComplete,
		response.FurthestPage,
		response.LastUpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert form response: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, q Query) ([]FormResponse, error) {
	query := `
		SELECT id, form_id, participant_id, responses, is_complete, furthest_page, last_updated_at
		FROM form_responses
		WHERE ($1::uuid IS NULL OR form_id = $1)
		  AND ($2::uuid IS NULL OR participant_id = $2)
		  AND ($3::boolean IS NULL OR is_complete = $3)
		ORDER BY last_updated_at DESC
	`
	var formArg any
	if !q.FormID.IsNil() {
		formArg = uuid.UUID(q.FormID)
	}
	var participantArg any
	if !q.ParticipantID.IsNil() {
		participantArg = uuid.UUID(q.ParticipantID)
	}
	var completeArg any
	if q.IsComplete != nil {
		completeArg = *q.IsComplete
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, formArg, participantArg, completeArg)
	if err != nil {
		return nil, fmt.Errorf("query form responses: %w", err)
	}
	defer rows.Close()

	var responses []FormResponse
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, rows.Err()
}

func (s *PostgresStore) FindByID(ctx context.Context, responseID id.ResponseID) (FormResponse, error) {
	query := `
		SELECT id, form_id, participant_id, responses, is_complete, furthest_page, last_updated_at
		FROM form_responses
		WHERE id = $1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(responseID))
	response, err := scanResponse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return FormResponse{}, sentinel.ErrNotFound
		}
		return FormResponse{}, err
	}
	return response, nil
}

func (s *PostgresStore) Update(ctx context.Context, response FormResponse) error {
	answersBytes, err := json.Marshal(response.Responses)
	if err != nil {
		return fmt.Errorf("marshal response answers: %w", err)
	}
	query := `
		UPDATE form_responses
		SET responses = $2, is_complete = $3, furthest_page = $4, last_updated_at = $5
		WHERE id = $1
	`
	result, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(response.ID),
		answersBytes,
		response.IsComplete,
		response.FurthestPage,
		response.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update form response: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update form response: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResponse(row rowScanner) (FormResponse, error) {
	var (
		response      FormResponse
		responseID    uuid.UUID
		formID        uuid.UUID
		participantID uuid.UUID
		answersBytes  []byte
	)
	err := row.Scan(&responseID, &formID, &participantID, &answersBytes, &response.IsComplete, &response.FurthestPage, &response.LastUpdatedAt)
	if err != nil {
		return FormResponse{}, err
	}
	response.ID = id.ResponseID(responseID)
	response.FormID = id.FormID(formID)
	response.ParticipantID = id.ParticipantID(participantID)
	if err := json.Unmarshal(answersBytes, &response.Responses); err != nil {
		return FormResponse{}, fmt.Errorf("unmarshal response answers: %w", err)
	}
	return response, nil
}
