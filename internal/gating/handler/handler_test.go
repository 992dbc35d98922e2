package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cohort/internal/catalog"
	"cohort/internal/gating"
	"cohort/internal/gating/handler"
	"cohort/internal/gating/handler/mocks"
	id "cohort/pkg/domain"
	dErrors "cohort/pkg/domain-errors"
	"cohort/pkg/testutil"
)

func newRouter(t *testing.T) (*mocks.MockService, http.Handler) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockGating := mocks.NewMockService(ctrl)

	h := handler.New(mockGating, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	return mockGating, r
}

func TestHandleModules_SelfHappyPath(t *testing.T) {
	mockGating, router := newRouter(t)
	participantID := id.NewParticipantID()

	consent := catalog.Form{ID: id.NewFormID(), Name: "registry consent", Type: catalog.FormTypeConsent, Version: 1}
	mockGating.EXPECT().
		Resolve(gomock.Any(), participantID).
		Return(gating.Result{Phase: gating.PhaseConsent, Forms: []gating.FormWithResponse{{Form: consent}}}, nil)

	req := testutil.NewRequest(t, "GET", "/modules/"+participantID.String())
	req = testutil.AsParticipant(req, participantID.String())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "type", "consent")
	testutil.AssertJSONContains(t, rr, "total", float64(1))

	body := testutil.UnmarshalResponse[struct {
		Data []struct {
			Name          string `json:"name"`
			FormResponses any    `json:"form_responses"`
		} `json:"data"`
	}](t, rr)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "registry consent", body.Data[0].Name)
	assert.Nil(t, body.Data[0].FormResponses)
}

func TestHandleModules_OtherParticipantForbidden(t *testing.T) {
	_, router := newRouter(t)
	participantID := id.NewParticipantID()

	req := testutil.NewRequest(t, "GET", "/modules/"+participantID.String())
	req = testutil.AsParticipant(req, id.NewParticipantID().String())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
}

func TestHandleModules_CoordinatorMayReadAnyone(t *testing.T) {
	mockGating, router := newRouter(t)
	participantID := id.NewParticipantID()

	mockGating.EXPECT().
		Resolve(gomock.Any(), participantID).
		Return(gating.Result{Phase: gating.PhaseModule, Forms: []gating.FormWithResponse{}}, nil)

	req := testutil.NewRequest(t, "GET", "/modules/"+participantID.String())
	req = testutil.AsCoordinator(req, "coord-1")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "total", float64(0))
}

func TestHandleModules_InvalidID(t *testing.T) {
	_, router := newRouter(t)

	req := testutil.NewRequest(t, "GET", "/modules/not-a-uuid")
	req = testutil.AsParticipant(req, "not-a-uuid")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleModules_ServiceError(t *testing.T) {
	mockGating, router := newRouter(t)
	participantID := id.NewParticipantID()

	mockGating.EXPECT().
		Resolve(gomock.Any(), participantID).
		Return(gating.Result{}, dErrors.New(dErrors.CodeInternal, "registry study is not configured"))

	req := testutil.NewRequest(t, "GET", "/modules/"+participantID.String())
	req = testutil.AsParticipant(req, participantID.String())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
}

func TestHandleModuleResponses_RequiresParticipantID(t *testing.T) {
	_, router := newRouter(t)

	req := testutil.NewRequest(t, "GET", "/module-responses")
	req = testutil.AsCoordinator(req, "coord-1")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHandleModuleResponses_TypeFilter(t *testing.T) {
	mockGating, router := newRouter(t)
	participantID := id.NewParticipantID()

	mockGating.EXPECT().
		Completed(gomock.Any(), participantID, catalog.FormTypeModule).
		Return([]gating.FormWithResponse{}, nil)

	req := testutil.NewRequest(t, "GET", "/module-responses?participant_id="+participantID.String()+"&type=module")
	req = testutil.AsParticipant(req, participantID.String())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "total", float64(0))
}

func TestHandleModuleResponses_InvalidTypeFilter(t *testing.T) {
	_, router := newRouter(t)
	participantID := id.NewParticipantID()

	req := testutil.NewRequest(t, "GET", "/module-responses?participant_id="+participantID.String()+"&type=bogus")
	req = testutil.AsParticipant(req, participantID.String())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
