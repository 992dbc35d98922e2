package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"cohort/internal/catalog"
	"cohort/internal/catalog/service"
	"cohort/internal/survey"
	id "cohort/pkg/domain"
	dErrors "cohort/pkg/domain-errors"
	"cohort/pkg/platform/audit"
)

type ServiceSuite struct {
	suite.Suite
	store   *catalog.InMemoryStore
	auditor *audit.Publisher
	svc     *service.Service
	studyID id.StudyID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = catalog.NewInMemoryStore()
	s.auditor = audit.NewPublisher(16)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = service.New(s.store, logger, nil, s.auditor)
	s.studyID = id.NewStudyID()
}

func onePageSchema() survey.Schema {
	return survey.Schema{
		Title: "Diet",
		Pages: []survey.Page{
			{Components: []survey.Component{{ID: "q1", Type: "text"}}},
		},
	}
}

func (s *ServiceSuite) TestCreateStartsAtVersionOne() {
	form, err := s.svc.Create(context.Background(), s.studyID, "diet", catalog.FormTypeModule, onePageSchema(), "coord-1")
	s.Require().NoError(err)
	s.Equal(1, form.Version)
	s.Equal(catalog.FormTypeModule, form.Type)
	s.Equal("coord-1", form.CreatedBy)
	s.False(form.ID.IsNil())
}

func (s *ServiceSuite) TestCreateValidation() {
	ctx := context.Background()

	_, err := s.svc.Create(ctx, s.studyID, "", catalog.FormTypeModule, onePageSchema(), "coord-1")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.svc.Create(ctx, s.studyID, "diet", catalog.FormTypeModule, survey.Schema{}, "coord-1")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestCreateRejectsExistingName() {
	ctx := context.Background()
	_, err := s.svc.Create(ctx, s.studyID, "diet", catalog.FormTypeModule, onePageSchema(), "coord-1")
	s.Require().NoError(err)

	_, err = s.svc.Create(ctx, s.studyID, "diet", catalog.FormTypeModule, onePageSchema(), "coord-1")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestReviseIncrementsVersion() {
	ctx := context.Background()
	created, err := s.svc.Create(ctx, s.studyID, "diet", catalog.FormTypeModule, onePageSchema(), "coord-1")
	s.Require().NoError(err)

	for want := 2; want <= 5; want++ {
		revised, err := s.svc.Revise(ctx, s.studyID, "diet", onePageSchema(), "coord-2")
		s.Require().NoError(err)
		s.Equal(want, revised.Version)
		s.NotEqual(created.ID, revised.ID, "each version is its own row")
		s.Equal(created.Type, revised.Type, "type carries over from the current version")
	}

	// Every prior version is still retrievable.
	forms, err := s.store.Find(ctx, catalog.Query{StudyID: s.studyID, Name: "diet"})
	s.Require().NoError(err)
	s.Len(forms, 5)
}

func (s *ServiceSuite) TestReviseUnknownFormIsNotFound() {
	_, err := s.svc.Revise(context.Background(), s.studyID, "ghost", onePageSchema(), "coord-1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCurrentPicksHighestVersion() {
	ctx := context.Background()
	_, err := s.svc.Create(ctx, s.studyID, "diet", catalog.FormTypeModule, onePageSchema(), "coord-1")
	s.Require().NoError(err)
	revised, err := s.svc.Revise(ctx, s.studyID, "diet", onePageSchema(), "coord-1")
	s.Require().NoError(err)

	current, err := s.svc.Current(ctx, s.studyID, "diet")
	s.Require().NoError(err)
	s.Equal(revised.ID, current.ID)
	s.Equal(2, current.Version)
}

func (s *ServiceSuite) TestCurrentUnknownFormIsNotFound() {
	_, err := s.svc.Current(context.Background(), s.studyID, "ghost")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListCurrentCollapsesToLatestAndSorts() {
	ctx := context.Background()
	_, err := s.svc.Create(ctx, s.studyID, "exercise", catalog.FormTypeModule, onePageSchema(), "coord-1")
	s.Require().NoError(err)
	_, err = s.svc.Create(ctx, s.studyID, "registry consent", catalog.FormTypeConsent, onePageSchema(), "coord-1")
	s.Require().NoError(err)
	_, err = s.svc.Create(ctx, s.studyID, "diet", catalog.FormTypeModule, onePageSchema(), "coord-1")
	s.Require().NoError(err)
	_, err = s.svc.Revise(ctx, s.studyID, "diet", onePageSchema(), "coord-1")
	s.Require().NoError(err)

	forms, err := s.svc.ListCurrent(ctx, s.studyID)
	s.Require().NoError(err)
	s.Require().Len(forms, 3)
	s.Equal("registry consent", forms[0].Name, "consent sorts first")
	s.Equal("diet", forms[1].Name)
	s.Equal(2, forms[1].Version, "only the latest version of each name")
	s.Equal("exercise", forms[2].Name)
}

func (s *ServiceSuite) TestCreateEmitsAuditEvent() {
	form, err := s.svc.Create(context.Background(), s.studyID, "diet", catalog.FormTypeModule, onePageSchema(), "coord-1")
	s.Require().NoError(err)

	select {
	case event := <-s.auditor.Inbox():
		s.Equal(audit.ActionFormCreated, event.Action)
		s.Equal(form.ID.String(), event.Subject)
	default:
		s.Fail("expected an audit event")
	}
}
