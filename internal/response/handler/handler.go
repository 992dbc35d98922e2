// Package handler exposes response submission and patching over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cohort/internal/platform/middleware"
	"cohort/internal/response"
	"cohort/internal/response/service"
	"cohort/internal/transport/http/shared"
	id "cohort/pkg/domain"
	dErrors "cohort/pkg/domain-errors"
)

// Service defines the interface for response operations.
type Service interface {
	Submit(ctx context.Context, actor service.Actor, formID id.FormID, participantID id.ParticipantID, answers map[string]any, furthestPage int, isComplete bool) (response.FormResponse, error)
	Patch(ctx context.Context, actor service.Actor, responseID id.ResponseID, patch response.Patch) (response.FormResponse, error)
}

// Handler handles response endpoints.
type Handler struct {
	logger    *slog.Logger
	responses Service
}

func New(responseService Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, responses: responseService}
}

// Register mounts the response routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/module-responses", h.handleSubmit)
	r.Patch("/module-responses/{id}", h.handlePatch)
}

type submitRequest struct {
	FormID        string         `json:"form_id"`
	ParticipantID string         `json:"participant_id"`
	Responses     map[string]any `json:"responses"`
	FurthestPage  int            `json:"furthest_page"`
	IsComplete    bool           `json:"is_complete"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	formID, err := id.ParseFormID(req.FormID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	participantID, err := id.ParseParticipantID(req.ParticipantID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	row, err := h.responses.Submit(ctx, actorFrom(ctx), formID, participantID, req.Responses, req.FurthestPage, req.IsComplete)
	if err != nil {
		h.logger.WarnContext(ctx, "response submission rejected",
			"form_id", req.FormID,
			"participant_id", req.ParticipantID,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, row)
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	responseID, err := id.ParseResponseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var patch response.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	row, err := h.responses.Patch(ctx, actorFrom(ctx), responseID, patch)
	if err != nil {
		h.logger.WarnContext(ctx, "response patch rejected",
			"response_id", responseID.String(),
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, row)
}

func actorFrom(ctx context.Context) service.Actor {
	return service.Actor{
		SubjectID: middleware.GetSubjectID(ctx),
		Role:      middleware.GetRole(ctx),
	}
}
