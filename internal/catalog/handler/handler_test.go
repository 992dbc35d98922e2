package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cohort/internal/catalog"
	"cohort/internal/catalog/handler"
	"cohort/internal/catalog/service"
	id "cohort/pkg/domain"
	dErrors "cohort/pkg/domain-errors"
	"cohort/pkg/testutil"
)

func newRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(catalog.NewInMemoryStore(), logger, nil, nil)
	h := handler.New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func schemaBody() map[string]any {
	return map[string]any{
		"title": "Diet",
		"pages": []map[string]any{
			{"components": []map[string]any{{"id": "q1", "type": "text"}}},
		},
	}
}

func createForm(t *testing.T, router http.Handler, studyID, name, formType string) catalog.Form {
	t.Helper()
	req := testutil.NewJSONRequest(t, "POST", "/forms", map[string]any{
		"study_id": studyID,
		"name":     name,
		"type":     formType,
		"schema":   schemaBody(),
	})
	req = testutil.AsCoordinator(req, "coord-1")
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return *testutil.UnmarshalResponse[catalog.Form](t, rr)
}

func TestCreateForm_HappyPath(t *testing.T) {
	router := newRouter()
	form := createForm(t, router, id.NewStudyID().String(), "diet", "MODULE")

	assert.Equal(t, 1, form.Version)
	assert.Equal(t, catalog.FormTypeModule, form.Type)
	assert.Equal(t, "coord-1", form.CreatedBy)
}

func TestCreateForm_ParticipantForbidden(t *testing.T) {
	router := newRouter()
	req := testutil.NewJSONRequest(t, "POST", "/forms", map[string]any{
		"study_id": id.NewStudyID().String(),
		"name":     "diet",
		"type":     "MODULE",
		"schema":   schemaBody(),
	})
	req = testutil.AsParticipant(req, id.NewParticipantID().String())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, string(dErrors.CodeForbidden))
}

func TestCreateForm_InvalidType(t *testing.T) {
	router := newRouter()
	req := testutil.NewJSONRequest(t, "POST", "/forms", map[string]any{
		"study_id": id.NewStudyID().String(),
		"name":     "diet",
		"type":     "QUIZ",
		"schema":   schemaBody(),
	})
	req = testutil.AsCoordinator(req, "coord-1")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
}

func TestCreateForm_DuplicateNameRejected(t *testing.T) {
	router := newRouter()
	studyID := id.NewStudyID().String()
	createForm(t, router, studyID, "diet", "MODULE")

	req := testutil.NewJSONRequest(t, "POST", "/forms", map[string]any{
		"study_id": studyID,
		"name":     "diet",
		"type":     "MODULE",
		"schema":   schemaBody(),
	})
	req = testutil.AsCoordinator(req, "coord-1")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusUnprocessableEntity)
}

func TestReviseForm_IncrementsVersion(t *testing.T) {
	router := newRouter()
	studyID := id.NewStudyID().String()
	createForm(t, router, studyID, "diet", "MODULE")

	req := testutil.NewJSONRequest(t, "PATCH", "/forms", map[string]any{
		"study_id": studyID,
		"name":     "diet",
		"schema":   schemaBody(),
	})
	req = testutil.AsCoordinator(req, "coord-2")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	form := testutil.UnmarshalResponse[catalog.Form](t, rr)
	assert.Equal(t, 2, form.Version)
	assert.Equal(t, "coord-2", form.CreatedBy)
}

func TestReviseForm_UnknownNameIsNotFound(t *testing.T) {
	router := newRouter()
	req := testutil.NewJSONRequest(t, "PATCH", "/forms", map[string]any{
		"study_id": id.NewStudyID().String(),
		"name":     "ghost",
		"schema":   schemaBody(),
	})
	req = testutil.AsCoordinator(req, "coord-1")
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, string(dErrors.CodeNotFound))
}

func TestGetForms_CurrentByName(t *testing.T) {
	router := newRouter()
	studyID := id.NewStudyID().String()
	createForm(t, router, studyID, "diet", "MODULE")

	req := testutil.NewRequest(t, "GET", "/forms?study_id="+studyID+"&name=diet")
	req = testutil.AsParticipant(req, id.NewParticipantID().String())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	form := testutil.UnmarshalResponse[catalog.Form](t, rr)
	assert.Equal(t, "diet", form.Name)
	assert.Equal(t, 1, form.Version)
}

func TestGetForms_ListSortsConsentFirst(t *testing.T) {
	router := newRouter()
	studyID := id.NewStudyID().String()
	createForm(t, router, studyID, "exercise", "MODULE")
	createForm(t, router, studyID, "registry consent", "CONSENT")

	req := testutil.NewRequest(t, "GET", "/forms?study_id="+studyID)
	req = testutil.AsParticipant(req, id.NewParticipantID().String())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.UnmarshalResponse[struct {
		Total int            `json:"total"`
		Data  []catalog.Form `json:"data"`
	}](t, rr)
	require.Equal(t, 2, body.Total)
	assert.Equal(t, "registry consent", body.Data[0].Name)
}

func TestGetForms_MissingStudyID(t *testing.T) {
	router := newRouter()
	req := testutil.NewRequest(t, "GET", "/forms")
	req = testutil.AsParticipant(req, id.NewParticipantID().String())
	rr := testutil.DoRequest(router, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
