package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/agroflow/agroflow-backend/internal/models"
	"github.com/agroflow/agroflow-backend/internal/pkg/apperror"
	"github.com/agroflow/agroflow-backend/internal/repository"
	"github.com/agroflow/agroflow-backend/internal/validation"
	"github.com/agroflow/agroflow-backend/internal/workflow"
)

// ReportRepository describes the storage needed by ReportService.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListByReporter(ctx context.Context, reporterID uuid.UUID, limit, offset int) ([]models.Report, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]models.Report, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, resolutionNotes *string, reviewerID uuid.UUID, reviewedAt time.Time) (*models.Report, error)
}

// ReportService owns admin-vs-admin misconduct reports. The lifecycle is
// independent of the request workflow; review is a federal concern.
type ReportService struct {
	repo  ReportRepository
	users UserReader
}

// NewReportService creates the report service.
func NewReportService(repo ReportRepository, users UserReader) *ReportService {
	return &ReportService{repo: repo, users: users}
}

// CreateReportInput carries a new complaint.
type CreateReportInput struct {
	ReportedAdminID uuid.UUID
	ReportType      string
	Title           string
	Description     string
	Evidence        *string
	Priority        string
}

// CreateReport files a complaint by one administrator against another.
func (s *ReportService) CreateReport(ctx context.Context, reporterID uuid.UUID, in CreateReportInput) (*models.Report, error) {
	reporter, err := s.users.GetByID(ctx, reporterID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	if !workflow.IsAdminRole(reporter.Role) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only administrators may file reports")
	}

	if reporterID == in.ReportedAdminID {
		return nil, apperror.New(apperror.ErrCodeValidation, "cannot report yourself")
	}

	reported, err := s.users.GetByID(ctx, in.ReportedAdminID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	if !workflow.IsAdminRole(reported.Role) {
		return nil, apperror.New(apperror.ErrCodeValidation, "reports may only target administrators")
	}

	if !models.ValidReportTypes[in.ReportType] {
		return nil, apperror.New(apperror.ErrCodeValidation, "unknown report type: "+in.ReportType)
	}

	priority := in.Priority
	if priority == "" {
		priority = models.ReportPriorityMedium
	}
	if !models.ValidReportPriorities[priority] {
		return nil, apperror.New(apperror.ErrCodeValidation, "unknown priority: "+priority)
	}

	if err := validation.ValidateLength("title", in.Title, validation.MinReportTitleLength, validation.MaxReportTitleLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("description", in.Description, validation.MinReportBodyLength, validation.MaxReportBodyLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	report := &models.Report{
		ReporterID:      reporterID,
		ReportedAdminID: in.ReportedAdminID,
		ReportType:      in.ReportType,
		Title:           in.Title,
		Description:     in.Description,
		Evidence:        in.Evidence,
		Priority:        priority,
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// GetReport returns a report visible to its reporter, its subject or a
// federal administrator.
func (s *ReportService) GetReport(ctx context.Context, actorID, reportID uuid.UUID) (*models.Report, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, mapUserErr(err)
	}

	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}

	if report.ReporterID != actorID && report.ReportedAdminID != actorID && actor.Role != workflow.RoleFederalAdmin {
		return nil, apperror.ErrForbidden
	}
	return report, nil
}

// ListMyReports returns reports filed by the acting administrator.
func (s *ReportService) ListMyReports(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]models.Report, error) {
	return s.repo.ListByReporter(ctx, actorID, limit, offset)
}

// ListAllReports returns the review backlog. Federal administrators only.
func (s *ReportService) ListAllReports(ctx context.Context, actorID uuid.UUID, status string, limit, offset int) ([]models.Report, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	if actor.Role != workflow.RoleFederalAdmin {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only federal administrators review reports")
	}

	return s.repo.ListAll(ctx, status, limit, offset)
}

// UpdateReportStatus moves a report through its lifecycle. Federal
// administrators only; transitions follow the report state machine.
func (s *ReportService) UpdateReportStatus(ctx context.Context, actorID, reportID uuid.UUID, status string, resolutionNotes *string) (*models.Report, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return nil, mapUserErr(err)
	}
	if actor.Role != workflow.RoleFederalAdmin {
		return nil, apperror.New(apperror.ErrCodeForbidden, "only federal administrators review reports")
	}

	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperror.ErrReportNotFound
		}
		return nil, err
	}

	if !models.CanReportTransition(report.Status, status) {
		return nil, apperror.New(apperror.ErrCodeValidation, "report cannot move from "+report.Status+" to "+status)
	}

	return s.repo.UpdateStatus(ctx, reportID, status, resolutionNotes, actorID, time.Now())
}
