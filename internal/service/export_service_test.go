package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seonlab/studyplan-api/internal/dto"
	"github.com/seonlab/studyplan-api/internal/models"
	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
	"github.com/seonlab/studyplan-api/pkg/storage"
)

type fakeExportGroupReader struct {
	group *models.PlanGroup
}

func (f *fakeExportGroupReader) FindByID(_ context.Context, id string) (*models.PlanGroup, error) {
	if f.group == nil || f.group.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.group, nil
}

type fakeExportPlanLister struct {
	rows []models.StudentPlan
}

func (f *fakeExportPlanLister) ListActiveByPlanGroup(context.Context, string, string, string, int, int) ([]models.StudentPlan, int, error) {
	return f.rows, len(f.rows), nil
}

func newExportFixture(t *testing.T, rows []models.StudentPlan) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewExportService(
		&fakeExportGroupReader{group: &models.PlanGroup{ID: "group-1", Name: "3월 학습계획"}},
		&fakeExportPlanLister{rows: rows},
		store,
		storage.NewSignedURLSigner("export-secret", time.Hour),
		zap.NewNop(),
	)
}

func exportRow() models.StudentPlan {
	return models.StudentPlan{
		ID:             "plan-1",
		PlanGroupID:    "group-1",
		ContentTitle:   "수학의 정석",
		ContentSubject: "math",
		ContentType:    models.ContentTypeBook,
		PlanDate:       "2025-03-03",
		StartTime:      "09:00",
		EndTime:        "10:00",
		Amount:         60,
		TimeSlotType:   models.SlotTypeStudy,
		WeekNumber:     1,
	}
}

func TestExportServiceCSVRoundTrip(t *testing.T) {
	service := newExportFixture(t, []models.StudentPlan{exportRow()})

	resp, err := service.Export(context.Background(), "group-1", dto.ExportPlansRequest{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "csv", resp.Format)
	require.Contains(t, resp.DownloadURL, "token=")

	token := strings.TrimPrefix(resp.DownloadURL, "/api/v1/exports/download?token=")
	file, err := service.Download(token)
	require.NoError(t, err)
	defer file.Close()

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "수학의 정석")
	assert.Contains(t, string(content), "2025-03-03")
}

func TestExportServicePDF(t *testing.T) {
	service := newExportFixture(t, []models.StudentPlan{exportRow()})

	resp, err := service.Export(context.Background(), "group-1", dto.ExportPlansRequest{Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "pdf", resp.Format)
}

func TestExportServiceEmptyGroup(t *testing.T) {
	service := newExportFixture(t, nil)

	_, err := service.Export(context.Background(), "group-1", dto.ExportPlansRequest{Format: "csv"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestExportServiceDownloadRejectsTamperedToken(t *testing.T) {
	service := newExportFixture(t, []models.StudentPlan{exportRow()})

	_, err := service.Download("bogus.token.value.sig")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
