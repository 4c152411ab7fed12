package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seonlab/studyplan-api/internal/dto"
	"github.com/seonlab/studyplan-api/internal/models"
	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
	"github.com/seonlab/studyplan-api/pkg/export"
)

type exportPlanLister interface {
	ListActiveByPlanGroup(ctx context.Context, planGroupID, from, to string, limit, offset int) ([]models.StudentPlan, int, error)
}

type exportGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.PlanGroup, error)
}

type exportStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type exportSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (string, string, time.Time, error)
}

// all active rows of a group fit one export
const exportRowLimit = 10000

// ExportService renders a plan group's active schedule into CSV or PDF
// files served through signed download URLs.
type ExportService struct {
	groups  exportGroupReader
	plans   exportPlanLister
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	storage exportStorage
	signer  exportSigner
	logger  *zap.Logger
}

// NewExportService wires export dependencies.
func NewExportService(groups exportGroupReader, plans exportPlanLister, storage exportStorage, signer exportSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		groups:  groups,
		plans:   plans,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		storage: storage,
		signer:  signer,
		logger:  logger,
	}
}

// Export renders the group's active schedule and returns a signed handle.
func (s *ExportService) Export(ctx context.Context, planGroupID string, req dto.ExportPlansRequest) (*dto.ExportPlansResponse, error) {
	group, err := s.groups.FindByID(ctx, planGroupID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "plan group not found")
	}
	rows, _, err := s.plans.ListActiveByPlanGroup(ctx, planGroupID, "", "", exportRowLimit, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load plans for export")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "plan group has no active plans")
	}

	dataset := planDataset(rows)
	var (
		data []byte
		ext  string
	)
	switch req.Format {
	case "pdf":
		data, err = s.pdf.Render(dataset, group.Name)
		ext = "pdf"
	default:
		data, err = s.csv.Render(dataset)
		ext = "csv"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render export")
	}

	exportID := uuid.NewString()
	relPath := fmt.Sprintf("%s/%s.%s", planGroupID, exportID, ext)
	if _, err := s.storage.Save(relPath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store export")
	}
	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "sign export url")
	}

	s.logger.Info("schedule exported",
		zap.String("plan_group_id", planGroupID),
		zap.String("export_id", exportID),
		zap.String("format", ext),
		zap.Int("rows", len(rows)))

	return &dto.ExportPlansResponse{
		ExportID:    exportID,
		Format:      ext,
		DownloadURL: "/api/v1/exports/download?token=" + token,
		ExpiresAt:   expiresAt,
	}, nil
}

// Download validates a signed token and opens the stored file.
func (s *ExportService) Download(token string) (*os.File, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
	}
	return file, nil
}

func planDataset(rows []models.StudentPlan) export.Dataset {
	headers := []string{"날짜", "시작", "종료", "과목", "콘텐츠", "유형", "분량", "슬롯", "주차"}
	dataset := export.Dataset{Headers: headers}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"날짜":  row.PlanDate,
			"시작":  row.StartTime,
			"종료":  row.EndTime,
			"과목":  row.ContentSubject,
			"콘텐츠": row.ContentTitle,
			"유형":  string(row.ContentType),
			"분량":  strconv.Itoa(row.Amount),
			"슬롯":  string(row.TimeSlotType),
			"주차":  strconv.Itoa(row.WeekNumber),
		})
	}
	return dataset
}
