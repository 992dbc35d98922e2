// Package handler exposes the gating resolver over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"cohort/internal/catalog"
	"cohort/internal/gating"
	"cohort/internal/platform/middleware"
	"cohort/internal/response"
	"cohort/internal/transport/http/shared"
	id "cohort/pkg/domain"
	dErrors "cohort/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/gating-mocks.go -package=mocks Service

// Service defines the interface for gating operations.
type Service interface {
	Resolve(ctx context.Context, participantID id.ParticipantID) (gating.Result, error)
	Completed(ctx context.Context, participantID id.ParticipantID, typeFilter catalog.FormType) ([]gating.FormWithResponse, error)
}

// Handler handles module gating endpoints.
type Handler struct {
	logger *slog.Logger
	gating Service
}

func New(gatingService Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, gating: gatingService}
}

// Register mounts the gating routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/modules/{participant_id}", h.handleModules)
	r.Get("/module-responses", h.handleModuleResponses)
}

// moduleItem flattens the form fields and attaches the participant's response
// row (null when none exists).
type moduleItem struct {
	catalog.Form
	FormResponses *response.FormResponse `json:"form_responses"`
}

type modulesResponse struct {
	Type  string       `json:"type"`
	Total int          `json:"total"`
	Data  []moduleItem `json:"data"`
}

// handleModules returns either the outstanding consent form or the set of
// incomplete module forms for the participant.
func (h *Handler) handleModules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawID := chi.URLParam(r, "participant_id")
	if rawID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "participant id is required"))
		return
	}
	participantID, err := id.ParseParticipantID(rawID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := requireSelfOrPrivileged(ctx, rawID); err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.gating.Resolve(ctx, participantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "gating resolution failed",
			"participant_id", rawID,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, modulesResponse{
		Type:  string(result.Phase),
		Total: len(result.Forms),
		Data:  toItems(result.Forms),
	})
}

// handleModuleResponses lists the participant's completed forms joined with
// their completed responses, consent first then by name.
func (h *Handler) handleModuleResponses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rawID := r.URL.Query().Get("participant_id")
	if rawID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "participant_id query parameter is required"))
		return
	}
	participantID, err := id.ParseParticipantID(rawID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := requireSelfOrPrivileged(ctx, rawID); err != nil {
		shared.WriteError(w, err)
		return
	}

	var typeFilter catalog.FormType
	if rawType := r.URL.Query().Get("type"); rawType != "" {
		parsed, ok := catalog.ParseFormType(strings.ToUpper(rawType))
		if !ok {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "type must be CONSENT or MODULE"))
			return
		}
		typeFilter = parsed
	}

	completed, err := h.gating.Completed(ctx, participantID, typeFilter)
	if err != nil {
		h.logger.ErrorContext(ctx, "completed module listing failed",
			"participant_id", rawID,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"total": len(completed),
		"data":  toItems(completed),
	})
}

// requireSelfOrPrivileged lets participants read only their own gating state
// while coordinators and admins may read anyone's.
func requireSelfOrPrivileged(ctx context.Context, participantID string) error {
	role := middleware.GetRole(ctx)
	if role == middleware.RoleCoordinator || role == middleware.RoleAdmin {
		return nil
	}
	if middleware.GetSubjectID(ctx) != participantID {
		return dErrors.New(dErrors.CodeForbidden, "participants may only view their own modules")
	}
	return nil
}

func toItems(forms []gating.FormWithResponse) []moduleItem {
	items := make([]moduleItem, 0, len(forms))
	for _, fwr := range forms {
		items = append(items, moduleItem{Form: fwr.Form, FormResponses: fwr.Response})
	}
	return items
}
