// Package handler exposes form catalog management over HTTP. Creating and
// revising forms is coordinator work; participants never call these routes.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cohort/internal/catalog"
	"cohort/internal/platform/middleware"
	"cohort/internal/survey"
	"cohort/internal/transport/http/shared"
	id "cohort/pkg/domain"
	dErrors "cohort/pkg/domain-errors"
)

// Service defines the interface for catalog operations.
type Service interface {
	Create(ctx context.Context, studyID id.StudyID, name string, formType catalog.FormType, schema survey.Schema, createdBy string) (catalog.Form, error)
	Revise(ctx context.Context, studyID id.StudyID, name string, schema survey.Schema, createdBy string) (catalog.Form, error)
	Current(ctx context.Context, studyID id.StudyID, name string) (catalog.Form, error)
	ListCurrent(ctx context.Context, studyID id.StudyID) ([]catalog.Form, error)
}

// Handler handles form catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	catalog Service
}

func New(catalogService Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, catalog: catalogService}
}

// Register mounts the catalog routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/forms", h.handleCreateForm)
	r.Patch("/forms", h.handleReviseForm)
	r.Get("/forms", h.handleGetForms)
}

type createFormRequest struct {
	StudyID string        `json:"study_id"`
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	Schema  survey.Schema `json:"schema"`
}

type reviseFormRequest struct {
	StudyID string        `json:"study_id"`
	Name    string        `json:"name"`
	Schema  survey.Schema `json:"schema"`
}

func (h *Handler) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireCoordinator(ctx); err != nil {
		shared.WriteError(w, err)
		return
	}

	var req createFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	studyID, err := id.ParseStudyID(req.StudyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	formType, ok := catalog.ParseFormType(strings.ToUpper(req.Type))
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "type must be CONSENT or MODULE"))
		return
	}

	form, err := h.catalog.Create(ctx, studyID, req.Name, formType, req.Schema, middleware.GetSubjectID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "form creation rejected",
			"study_id", req.StudyID,
			"form_name", req.Name,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, form)
}

func (h *Handler) handleReviseForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := requireCoordinator(ctx); err != nil {
		shared.WriteError(w, err)
		return
	}

	var req reviseFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	studyID, err := id.ParseStudyID(req.StudyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	form, err := h.catalog.Revise(ctx, studyID, req.Name, req.Schema, middleware.GetSubjectID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "form revision rejected",
			"study_id", req.StudyID,
			"form_name", req.Name,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, form)
}

// handleGetForms resolves the current (highest) version of one named form, or
// lists the current version of every form in the study when name is omitted.
func (h *Handler) handleGetForms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawStudyID := r.URL.Query().Get("study_id")
	if rawStudyID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "study_id query parameter is required"))
		return
	}
	studyID, err := id.ParseStudyID(rawStudyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if name := r.URL.Query().Get("name"); name != "" {
		form, err := h.catalog.Current(ctx, studyID, name)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, form)
		return
	}

	forms, err := h.catalog.ListCurrent(ctx, studyID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"total": len(forms),
		"data":  forms,
	})
}

func requireCoordinator(ctx context.Context) error {
	role := middleware.GetRole(ctx)
	if role == middleware.RoleCoordinator || role == middleware.RoleAdmin {
		return nil
	}
	return dErrors.New(dErrors.CodeForbidden, "form management requires the coordinator role")
}
