package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"cohort/internal/survey"
	id "cohort/pkg/domain"
	"cohort/pkg/platform/sentinel"
	txcontext "cohort/pkg/platform/tx"
)

// uniqueViolation is the postgres error code raised when an insert breaks the
// (study_id, name, version) constraint.
const uniqueViolation = "23505"

// PostgresStore persists forms in PostgreSQL. The unique constraint on
// (study_id, name, version) is the arbiter for concurrent revisions: the
// losing writer gets sentinel.ErrConflict and the caller retries.
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

func (s *PostgresStore) Create(ctx context.Context, form Form) error {
	schemaBytes, err := json.Marshal(form.Schema)
	if err != nil {
		return fmt.Errorf("marshal form schema: %w", err)
	}
	query := `
		INSERT INTO forms (id, study_id, name, type, version, schema, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(form.ID),
		uuid.UUID(form.StudyID),
		form.Name,
		string(form.Type),
		form.Version,
		schemaBytes,
		form.CreatedBy,
		form.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert form: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, q Query) ([]Form, error) {
	query := `
		SELECT id, study_id, name, type, version, schema, created_by, created_at
		FROM forms
		WHERE ($1::uuid IS NULL OR study_id = $1)
		  AND ($2::text IS NULL OR name = $2)
		  AND ($3::text IS NULL OR type = $3)
		ORDER BY name ASC, version DESC
	`
	var studyArg any
	if !q.StudyID.IsNil() {
		studyArg = uuid.UUID(q.StudyID)
	}
	var nameArg any
	if q.Name != "" {
		nameArg = q.Name
	}
	var typeArg any
	if q.Type != "" {
		typeArg = string(q.Type)
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, studyArg, nameArg, typeArg)
	if err != nil {
		return nil, fmt.Errorf("query forms: %w", err)
	}
	defer rows.Close()

	var forms []Form
	for rows.Next() {
		form, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
	return forms, rows.Err()
}

func (s *PostgresStore) FindByID(ctx context.Context, formID id.FormID) (Form, error) {
	query := `
		SELECT id, study_id, name, type, version, schema, created_by, created_at
		FROM forms
		WHERE id = $1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(formID))
	form, err := scanForm(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Form{}, sentinel.ErrNotFound
		}
		return Form{}, err
	}
	return form, nil
}

func (s *PostgresStore) MaxVersion(ctx context.Context, studyID id.StudyID, name string) (int, error) {
	query := `
		SELECT COALESCE(MAX(version), 0)
		FROM forms
		WHERE study_id = $1 AND name = $2
	`
	var max int
	err := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(studyID), name).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("query max form version: %w", err)
	}
	return max, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(row rowScanner) (Form, error) {
	var (
		form        Form
		formID      uuid.UUID
		studyID     uuid.UUID
		formType    string
		schemaBytes []byte
	)
	err := row.Scan(&formID, &studyID, &form.Name, &formType, &form.Version, &schemaBytes, &form.CreatedBy, &form.CreatedAt)
	if err != nil {
		return Form{}, err
	}
	form.ID = id.FormID(formID)
	form.StudyID = id.StudyID(studyID)
	form.Type = FormType(formType)
	schema, err := survey.ParseSchema(schemaBytes)
	if err != nil {
		return Form{}, fmt.Errorf("unmarshal form schema: %w", err)
	}
	form.Schema = schema
	return form, nil
}
