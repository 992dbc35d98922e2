package testutil

import (
	"context"
	"net/http"

	"cohort/internal/platform/middleware"
)

// WithAuth adds an authenticated subject and role to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithAuth(req *http.Request, subjectID, role string) *http.Request {
	ctx := req.Context()
	if subjectID != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeySubjectID, subjectID)
	}
	if role != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
	}
	return req.WithContext(ctx)
}

// AsParticipant authenticates the request as the given participant.
func AsParticipant(req *http.Request, participantID string) *http.Request {
	return WithAuth(req, participantID, middleware.RoleParticipant)
}

// AsCoordinator authenticates the request as a study coordinator.
func AsCoordinator(req *http.Request, subjectID string) *http.Request {
	return WithAuth(req, subjectID, middleware.RoleCoordinator)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
