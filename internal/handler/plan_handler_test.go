package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seonlab/studyplan-api/internal/dto"
	"github.com/seonlab/studyplan-api/internal/models"
	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
)

type fakePlanGenerator struct {
	generateResp *dto.GeneratePlansResponse
	generateErr  error
	previewResp  *dto.PreviewPlansResponse
	dockedResp   *dto.DockedPlansResponse
}

func (f *fakePlanGenerator) Generate(_ context.Context, _ string, _ dto.GeneratePlansRequest) (*dto.GeneratePlansResponse, error) {
	return f.generateResp, f.generateErr
}

func (f *fakePlanGenerator) Preview(_ context.Context, _ string, _ dto.GeneratePlansRequest) (*dto.PreviewPlansResponse, error) {
	return f.previewResp, f.generateErr
}

func (f *fakePlanGenerator) PreviewSchedule(_ context.Context, _ string, _ dto.SchedulePreviewRequest) (*dto.SchedulePreviewResponse, error) {
	return &dto.SchedulePreviewResponse{}, nil
}

func (f *fakePlanGenerator) ListPlans(_ context.Context, _ string, _ dto.ListPlansRequest) ([]models.StudentPlan, models.Pagination, error) {
	return nil, models.Pagination{Page: 1, PageSize: 50}, nil
}

func (f *fakePlanGenerator) ListDocked(_ context.Context, _ string) (*dto.DockedPlansResponse, error) {
	return f.dockedResp, nil
}

func newPlanRouter(generator *fakePlanGenerator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := &PlanHandler{generator: generator}
	router.POST("/plan-groups/:id/plans", h.Generate)
	router.GET("/plan-groups/:id/docked", h.Docked)
	return router
}

func TestPlanHandlerGenerateSuccess(t *testing.T) {
	generator := &fakePlanGenerator{
		generateResp: &dto.GeneratePlansResponse{
			PlanGroupID:  "group-1",
			GenerationID: "gen-1",
			PlacedCount:  3,
			PlacedAmount: 300,
			GeneratedAt:  time.Now().UTC(),
		},
	}
	router := newPlanRouter(generator)

	body, _ := json.Marshal(dto.GeneratePlansRequest{
		Contents: []models.ContentRef{{ContentID: "c-1", Type: models.ContentTypeBook}},
	})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/plan-groups/group-1/plans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data dto.GeneratePlansResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "gen-1", envelope.Data.GenerationID)
}

func TestPlanHandlerGenerateReportsDockedAsWarnings(t *testing.T) {
	generator := &fakePlanGenerator{
		generateResp: &dto.GeneratePlansResponse{
			PlanGroupID:  "group-1",
			GenerationID: "gen-1",
			Docked:       []models.DockedPlanInfo{{ContentID: "c-9", RemainingAmount: 40, Reason: models.DockReasonNoCapacity}},
		},
	}
	router := newPlanRouter(generator)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/plan-groups/group-1/plans", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Warnings, 1)
	assert.Contains(t, envelope.Warnings[0], "c-9")
}

func TestPlanHandlerGenerateLockTimeoutStatus(t *testing.T) {
	generator := &fakePlanGenerator{generateErr: appErrors.ErrLockTimeout}
	router := newPlanRouter(generator)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/plan-groups/group-1/plans", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusLocked, rec.Code)
}

func TestPlanHandlerGenerateRejectsMalformedBody(t *testing.T) {
	router := newPlanRouter(&fakePlanGenerator{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/plan-groups/group-1/plans", bytes.NewReader([]byte(`{not-json`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlanHandlerDocked(t *testing.T) {
	generator := &fakePlanGenerator{
		dockedResp: &dto.DockedPlansResponse{
			PlanGroupID:  "group-1",
			GenerationID: "gen-1",
			Items:        []models.DockedPlanInfo{{ContentID: "c-1", RemainingAmount: 30, Reason: models.DockReasonNoCapacity}},
		},
	}
	router := newPlanRouter(generator)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/plan-groups/group-1/docked", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data dto.DockedPlansResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Items, 1)
	assert.Equal(t, 30, envelope.Data.Items[0].RemainingAmount)
}
