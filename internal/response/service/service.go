// Package service implements response submission and patching. A submission
// either fully persists or fails; partial writes never happen because each
// operation is a single store call.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cohort/internal/catalog"
	"cohort/internal/platform/metrics"
	"cohort/internal/response"
	id "cohort/pkg/domain"
	dErrors "cohort/pkg/domain-errors"
	"cohort/pkg/platform/audit"
	"cohort/pkg/platform/sentinel"
)

// FormCatalog is the slice of the catalog the response service needs.
type FormCatalog interface {
	FindByID(ctx context.Context, formID id.FormID) (catalog.Form, error)
}

// Actor identifies who is performing a mutation. Coordinators and admins may
// act on a participant's behalf; participants only on their own rows.
type Actor struct {
	SubjectID string
	Role      string
}

func (a Actor) privileged() bool {
	return a.Role == "coordinator" || a.Role == "admin"
}

// Service persists and patches form responses.
type Service struct {
	store   response.Store
	catalog FormCatalog
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor *audit.Publisher
}

func New(store response.Store, formCatalog FormCatalog, logger *slog.Logger, metrics *metrics.Metrics, auditor *audit.Publisher) *Service {
	return &Service{store: store, catalog: formCatalog, logger: logger, metrics: metrics, auditor: auditor}
}

// Submit creates the response row for (form, participant) on first answer
// submission. The form must exist; a second row for the same pair is a
// conflict.
func (s *Service) Submit(ctx context.Context, actor Actor, formID id.FormID, participantID id.ParticipantID, answers map[string]any, furthestPage int, isComplete bool) (response.FormResponse, error) {
	if !actor.privileged() && actor.SubjectID != participantID.String() {
		return response.FormResponse{}, dErrors.New(dErrors.CodeForbidden, "responses may only be submitted by their participant")
	}
	if furthestPage < 0 {
		return response.FormResponse{}, dErrors.New(dErrors.CodeValidation, "furthest_page must not be negative")
	}

	form, err := s.catalog.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return response.FormResponse{}, dErrors.New(dErrors.CodeNotFound, "form not found")
		}
		return response.FormResponse{}, dErrors.Wrap(dErrors.CodeInternal, "failed to look up form", err)
	}

	if answers == nil {
		answers = map[string]any{}
	}
	row := response.FormResponse{
		ID:            id.NewResponseID(),
		FormID:        form.ID,
		ParticipantID: participantID,
		Responses:     answers,
		IsComplete:    isComplete,
		FurthestPage:  furthestPage,
		LastUpdatedAt: time.Now(),
	}
	if err := s.store.Create(ctx, row); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return response.FormResponse{}, dErrors.New(dErrors.CodeConflict, "a response already exists for this form and participant")
		}
		return response.FormResponse{}, dErrors.Wrap(dErrors.CodeInternal, "failed to create response", err)
	}

	s.audited(ctx, audit.ActionResponseSubmitted, row, actor)
	if isComplete {
		s.completed(ctx, row, actor)
	}
	return row, nil
}

// Patch merges answers and updates progress flags on an existing response.
// Only the owning participant, or a privileged actor on their behalf, may
// patch. The furthest-page marker never moves backwards.
func (s *Service) Patch(ctx context.Context, actor Actor, responseID id.ResponseID, patch response.Patch) (response.FormResponse, error) {
	row, err := s.store.FindByID(ctx, responseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return response.FormResponse{}, dErrors.New(dErrors.CodeNotFound, "response not found")
		}
		return response.FormResponse{}, dErrors.Wrap(dErrors.CodeInternal, "failed to look up response", err)
	}
	if !actor.privileged() && actor.SubjectID != row.ParticipantID.String() {
		return response.FormResponse{}, dErrors.New(dErrors.CodeForbidden, "responses may only be patched by their participant")
	}

	wasComplete := row.IsComplete
	for key, value := range patch.Responses {
		row.Responses[key] = value
	}
	if patch.FurthestPage != nil && *patch.FurthestPage > row.FurthestPage {
		row.FurthestPage = *patch.FurthestPage
	}
	if patch.IsComplete != nil {
		row.IsComplete = *patch.IsComplete
	}
	row.LastUpdatedAt = time.Now()

	if err := s.store.Update(ctx, row); err != nil {
		return response.FormResponse{}, dErrors.Wrap(dErrors.CodeInternal, "failed to update response", err)
	}

	if !wasComplete && row.IsComplete {
		s.completed(ctx, row, actor)
	}
	return row, nil
}

// FindForParticipant returns the participant's response for one exact form
// version, or sentinel.ErrNotFound wrapped as a domain error.
func (s *Service) FindForParticipant(ctx context.Context, formID id.FormID, participantID id.ParticipantID) (response.FormResponse, error) {
	rows, err := s.store.Find(ctx, response.Query{FormID: formID, ParticipantID: participantID})
	if err != nil {
		return response.FormResponse{}, dErrors.Wrap(dErrors.CodeInternal, "failed to look up response", err)
	}
	if len(rows) == 0 {
		return response.FormResponse{}, dErrors.New(dErrors.CodeNotFound, "response not found")
	}
	return rows[0], nil
}

func (s *Service) audited(ctx context.Context, action audit.Action, row response.FormResponse, actor Actor) {
	s.auditor.Emit(ctx, audit.Event{
		Action:  action,
		Subject: row.ID.String(),
		Actor:   actor.SubjectID,
		Detail:  row.FormID.String(),
	})
}

func (s *Service) completed(ctx context.Context, row response.FormResponse, actor Actor) {
	if s.metrics != nil {
		s.metrics.ResponsesCompleted.Inc()
	}
	s.audited(ctx, audit.ActionResponseCompleted, row, actor)
}
