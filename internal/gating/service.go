// Package gating decides which form(s) a participant is currently required to
// see. The rule is absolute: no module form is visible until the current
// version of the registry consent form has a completed response. Every
// resolution reads the stores fresh; gating must reflect the latest committed
// catalog state, so nothing here is cached across requests.
package gating

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"cohort/internal/catalog"
	"cohort/internal/directory"
	"cohort/internal/platform/metrics"
	"cohort/internal/response"
	id "cohort/pkg/domain"
	dErrors "cohort/pkg/domain-errors"
	"cohort/pkg/platform/audit"
	"cohort/pkg/platform/sentinel"
)

// Phase labels which gate produced a result. The tag is present even when the
// form list is empty: an empty MODULE result means everything is complete.
type Phase string

const (
	PhaseConsent Phase = "consent"
	PhaseModule  Phase = "module"
)

// FormWithResponse pairs a form with the participant's response row for that
// exact version, nil when none exists yet.
type FormWithResponse struct {
	Form     catalog.Form
	Response *response.FormResponse
}

// Result is one gating resolution.
type Result struct {
	Phase Phase
	Forms []FormWithResponse
}

// FormCatalog is the slice of the catalog gating reads.
type FormCatalog interface {
	ListCurrent(ctx context.Context, studyID id.StudyID) ([]catalog.Form, error)
	FindByID(ctx context.Context, formID id.FormID) (catalog.Form, error)
}

// ResponseStore is the slice of the response store gating reads.
type ResponseStore interface {
	Find(ctx context.Context, query response.Query) ([]response.FormResponse, error)
}

// Service resolves a participant's outstanding forms.
type Service struct {
	directory          directory.Store
	catalog            FormCatalog
	responses          ResponseStore
	registryStudyExtID string
	logger             *slog.Logger
	metrics            *metrics.Metrics
	auditor            *audit.Publisher
}

func New(dir directory.Store, formCatalog FormCatalog, responses ResponseStore, registryStudyExtID string, logger *slog.Logger, m *metrics.Metrics, auditor *audit.Publisher) *Service {
	return &Service{
		directory:          dir,
		catalog:            formCatalog,
		responses:          responses,
		registryStudyExtID: registryStudyExtID,
		logger:             logger,
		metrics:            m,
		auditor:            auditor,
	}
}

// Resolve computes the participant's current phase and outstanding forms.
// A participant not enrolled in the registry study gets an empty module-phase
// result: not applicable is not an error.
func (s *Service) Resolve(ctx context.Context, participantID id.ParticipantID) (Result, error) {
	study, err := s.directory.FindStudyByExternalID(ctx, s.registryStudyExtID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Result{}, dErrors.New(dErrors.CodeInternal, "registry study is not configured")
		}
		return Result{}, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve registry study", err)
	}

	participant, err := s.directory.FindParticipant(ctx, participantID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return Result{}, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve participant", err)
	}
	if err != nil || !participant.EnrolledIn(study.ID) {
		return Result{Phase: PhaseModule, Forms: []FormWithResponse{}}, nil
	}

	// Forms of other studies must never leak into the result, so the listing
	// is scoped to the registry study up front.
	forms, err := s.catalog.ListCurrent(ctx, study.ID)
	if err != nil {
		return Result{}, err
	}

	result, err := s.resolveForms(ctx, forms, participantID)
	if err != nil {
		return Result{}, err
	}

	if s.metrics != nil {
		s.metrics.ObserveGating(string(result.Phase))
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:  audit.ActionGatingResolved,
		Subject: participantID.String(),
		Detail:  string(result.Phase),
	})
	return result, nil
}

func (s *Service) resolveForms(ctx context.Context, forms []catalog.Form, participantID id.ParticipantID) (Result, error) {
	var consent *catalog.Form
	var modules []catalog.Form
	for i := range forms {
		switch forms[i].Type {
		case catalog.FormTypeConsent:
			if consent == nil {
				consent = &forms[i]
			}
		case catalog.FormTypeModule:
			modules = append(modules, forms[i])
		}
	}

	if consent != nil {
		row, err := s.findResponse(ctx, consent.ID, participantID)
		if err != nil {
			return Result{}, err
		}
		if row == nil || !row.IsComplete {
			// Consent for the current version is outstanding: the participant
			// sees exactly the consent form, never any module.
			return Result{Phase: PhaseConsent, Forms: []FormWithResponse{{Form: *consent, Response: row}}}, nil
		}
	}

	outstanding := []FormWithResponse{}
	for _, module := range modules {
		row, err := s.findResponse(ctx, module.ID, participantID)
		if err != nil {
			return Result{}, err
		}
		if row != nil && row.IsComplete {
			continue
		}
		outstanding = append(outstanding, FormWithResponse{Form: module, Response: row})
	}
	return Result{Phase: PhaseModule, Forms: outstanding}, nil
}

// Completed lists the participant's completed forms joined with their
// completed responses, consent first then by name, optionally filtered by
// form type. The listing is driven by the response rows, not the current
// catalog: a revision reopens a form for new answers but never erases what
// the participant already submitted, so superseded versions stay listed.
func (s *Service) Completed(ctx context.Context, participantID id.ParticipantID, typeFilter catalog.FormType) ([]FormWithResponse, error) {
	study, err := s.directory.FindStudyByExternalID(ctx, s.registryStudyExtID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve registry study", err)
	}

	complete := true
	rows, err := s.responses.Find(ctx, response.Query{ParticipantID: participantID, IsComplete: &complete})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to look up responses", err)
	}

	completed := []FormWithResponse{}
	for _, row := range rows {
		form, err := s.catalog.FindByID(ctx, row.FormID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to resolve responded form", err)
		}
		if form.StudyID != study.ID {
			continue
		}
		if typeFilter != "" && form.Type != typeFilter {
			continue
		}
		completed = append(completed, FormWithResponse{Form: form, Response: &row})
	}
	sortCompleted(completed)
	return completed, nil
}

// sortCompleted orders consent first, then by name, newest version first.
func sortCompleted(items []FormWithResponse) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Form, items[j].Form
		if a.Type != b.Type {
			return a.Type == catalog.FormTypeConsent
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Version > b.Version
	})
}

func (s *Service) findResponse(ctx context.Context, formID id.FormID, participantID id.ParticipantID) (*response.FormResponse, error) {
	rows, err := s.responses.Find(ctx, response.Query{FormID: formID, ParticipantID: participantID})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to look up response", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]
	return &row, nil
}
