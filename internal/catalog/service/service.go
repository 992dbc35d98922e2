// Package service implements form creation and versioning on top of the
// catalog store: first creation is version 1, every edit inserts version
// max+1, and prior versions are never touched.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cohort/internal/catalog"
	"cohort/internal/platform/metrics"
	"cohort/internal/survey"
	id "cohort/pkg/domain"
	dErrors "cohort/pkg/domain-errors"
	"cohort/pkg/platform/audit"
	"cohort/pkg/platform/sentinel"
)

// Service resolves and mutates form versions. It is request-scoped and keeps
// no cache: every lookup reflects the latest committed catalog state.
type Service struct {
	store   catalog.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor *audit.Publisher
}

func New(store catalog.Store, logger *slog.Logger, metrics *metrics.Metrics, auditor *audit.Publisher) *Service {
	return &Service{store: store, logger: logger, metrics: metrics, auditor: auditor}
}

func (s *Service) newVersion(ctx context.Context, studyID id.StudyID, name string, formType catalog.FormType, schema survey.Schema, createdBy string, version int) catalog.Form {
	if refs := survey.ComputeVisibility(schema, nil).UnknownRefs; len(refs) > 0 {
		// Authoring bug: enableWhen references questions the schema does not
		// define. The affected conditions will evaluate to false.
		s.logger.WarnContext(ctx, "form schema references unknown question ids",
			"form_name", name,
			"unknown_refs", refs,
		)
	}
	return catalog.Form{
		ID:        id.NewFormID(),
		StudyID:   studyID,
		Name:      name,
		Type:      formType,
		Version:   version,
		Schema:    schema,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
}

// Create inserts version 1 of a new (study, name) form. Creating a name that
// already has any version fails with a validation error; revision is the only
// way to change an existing form.
func (s *Service) Create(ctx context.Context, studyID id.StudyID, name string, formType catalog.FormType, schema survey.Schema, createdBy string) (catalog.Form, error) {
	if name == "" {
		return catalog.Form{}, dErrors.New(dErrors.CodeValidation, "form name must not be empty")
	}
	if len(schema.Pages) == 0 {
		return catalog.Form{}, dErrors.New(dErrors.CodeValidation, "form schema must contain at least one page")
	}

	max, err := s.store.MaxVersion(ctx, studyID, name)
	if err != nil {
		return catalog.Form{}, dErrors.Wrap(dErrors.CodeInternal, "failed to check existing versions", err)
	}
	if max > 0 {
		return catalog.Form{}, dErrors.New(dErrors.CodeValidation, "form already exists; use revise to create a new version")
	}

	form := s.newVersion(ctx, studyID, name, formType, schema, createdBy, 1)
	if err := s.store.Create(ctx, form); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return catalog.Form{}, dErrors.New(dErrors.CodeValidation, "form already exists; use revise to create a new version")
		}
		return catalog.Form{}, dErrors.Wrap(dErrors.CodeInternal, "failed to create form", err)
	}

	if s.metrics != nil {
		s.metrics.FormsCreated.Inc()
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionFormCreated,
		Subject: form.ID.String(),
		Detail:  name,
	})
	return form, nil
}

// Revise inserts the next version for an existing (study, name) form, leaving
// prior rows untouched. In-progress responses stay attached to the version
// they were started against; there is no answer carry-over. A concurrent
// revision losing the version race surfaces as a retryable conflict.
func (s *Service) Revise(ctx context.Context, studyID id.StudyID, name string, schema survey.Schema, createdBy string) (catalog.Form, error) {
	if len(schema.Pages) == 0 {
		return catalog.Form{}, dErrors.New(dErrors.CodeValidation, "form schema must contain at least one page")
	}

	max, err := s.store.MaxVersion(ctx, studyID, name)
	if err != nil {
		return catalog.Form{}, dErrors.Wrap(dErrors.CodeInternal, "failed to check existing versions", err)
	}
	if max == 0 {
		return catalog.Form{}, dErrors.New(dErrors.CodeNotFound, "form has no prior version to revise")
	}

	current, err := s.Current(ctx, studyID, name)
	if err != nil {
		return catalog.Form{}, err
	}

	form := s.newVersion(ctx, studyID, name, current.Type, schema, createdBy, max+1)
	if err := s.store.Create(ctx, form); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return catalog.Form{}, dErrors.New(dErrors.CodeConflict, "concurrent revision detected; retry")
		}
		return catalog.Form{}, dErrors.Wrap(dErrors.CodeInternal, "failed to revise form", err)
	}

	if s.metrics != nil {
		s.metrics.FormsRevised.Inc()
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionFormRevised,
		Subject: form.ID.String(),
		Detail:  name,
	})
	return form, nil
}

// Current resolves the highest version of a named form.
func (s *Service) Current(ctx context.Context, studyID id.StudyID, name string) (catalog.Form, error) {
	forms, err := s.store.Find(ctx, catalog.Query{StudyID: studyID, Name: name})
	if err != nil {
		return catalog.Form{}, dErrors.Wrap(dErrors.CodeInternal, "failed to look up form", err)
	}
	if len(forms) == 0 {
		return catalog.Form{}, dErrors.New(dErrors.CodeNotFound, "form not found")
	}
	current := forms[0]
	for _, form := range forms[1:] {
		if form.Version > current.Version {
			current = form
		}
	}
	return current, nil
}

// FindByID fetches one exact form version. Store sentinels pass through so
// callers can distinguish a missing form from an infrastructure failure.
func (s *Service) FindByID(ctx context.Context, formID id.FormID) (catalog.Form, error) {
	return s.store.FindByID(ctx, formID)
}

// ListCurrent returns the highest version of every named form in the study,
// consent first, then alphabetically by name.
func (s *Service) ListCurrent(ctx context.Context, studyID id.StudyID) ([]catalog.Form, error) {
	forms, err := s.store.Find(ctx, catalog.Query{StudyID: studyID})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list forms", err)
	}
	latest := make(map[string]catalog.Form)
	for _, form := range forms {
		if existing, ok := latest[form.Name]; !ok || form.Version > existing.Version {
			latest[form.Name] = form
		}
	}
	out := make([]catalog.Form, 0, len(latest))
	for _, form := range latest {
		out = append(out, form)
	}
	catalog.SortForms(out)
	return out, nil
}
