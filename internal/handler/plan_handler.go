package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seonlab/studyplan-api/internal/dto"
	"github.com/seonlab/studyplan-api/internal/models"
	"github.com/seonlab/studyplan-api/internal/service"
	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
	"github.com/seonlab/studyplan-api/pkg/response"
)

type planGenerator interface {
	Generate(ctx context.Context, planGroupID string, req dto.GeneratePlansRequest) (*dto.GeneratePlansResponse, error)
	Preview(ctx context.Context, planGroupID string, req dto.GeneratePlansRequest) (*dto.PreviewPlansResponse, error)
	PreviewSchedule(ctx context.Context, planGroupID string, req dto.SchedulePreviewRequest) (*dto.SchedulePreviewResponse, error)
	ListPlans(ctx context.Context, planGroupID string, req dto.ListPlansRequest) ([]models.StudentPlan, models.Pagination, error)
	ListDocked(ctx context.Context, planGroupID string) (*dto.DockedPlansResponse, error)
}

type asyncGenerator interface {
	Enqueue(planGroupID string, req dto.GeneratePlansRequest) (*dto.AsyncGenerateResponse, error)
}

// PlanHandler exposes plan generation endpoints.
type PlanHandler struct {
	generator planGenerator
	async     asyncGenerator
}

// NewPlanHandler constructs the handler.
func NewPlanHandler(generator *service.PlanGenerationService, async *service.AsyncGenerationService) *PlanHandler {
	return &PlanHandler{generator: generator, async: async}
}

// Generate godoc
// @Summary Generate and persist study plans for a plan group
// @Description Runs the full scheduling pipeline and persists the result. Docked items and content copy failures are reported as warnings, not errors.
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path string true "Plan group ID"
// @Param payload body dto.GeneratePlansRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Router /plan-groups/{id}/plans [post]
func (h *PlanHandler) Generate(c *gin.Context) {
	var req dto.GeneratePlansRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	warnings := generationWarnings(result.Docked, result.CopyFailures)
	if len(warnings) > 0 {
		response.JSONWithWarnings(c, http.StatusCreated, result, warnings)
		return
	}
	response.Created(c, result)
}

// Preview godoc
// @Summary Preview study plans without persisting
// @Description Runs the pipeline and parks the outcome under a proposal ID which a later generate call may persist.
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path string true "Plan group ID"
// @Param payload body dto.GeneratePlansRequest true "Preview payload"
// @Success 200 {object} response.Envelope
// @Router /plan-groups/{id}/plans/preview [post]
func (h *PlanHandler) Preview(c *gin.Context) {
	var req dto.GeneratePlansRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preview payload"))
		return
	}
	result, err := h.generator.Preview(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GenerateAsync godoc
// @Summary Enqueue a background generation run
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path string true "Plan group ID"
// @Param payload body dto.GeneratePlansRequest true "Generation payload"
// @Success 202 {object} response.Envelope
// @Router /plan-groups/{id}/plans/async [post]
func (h *PlanHandler) GenerateAsync(c *gin.Context) {
	var req dto.GeneratePlansRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.async.Enqueue(c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}

// SchedulePreview godoc
// @Summary Preview the computed daily schedule for a plan group
// @Description Exposes the schedule calculator standalone: per-day availability and summary totals, no content placement.
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path string true "Plan group ID"
// @Param payload body dto.SchedulePreviewRequest true "Schedule preview payload"
// @Success 200 {object} response.Envelope
// @Router /plan-groups/{id}/schedule/preview [post]
func (h *PlanHandler) SchedulePreview(c *gin.Context) {
	var req dto.SchedulePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule preview payload"))
		return
	}
	result, err := h.generator.PreviewSchedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List active generated plans of a plan group
// @Tags Plans
// @Produce json
// @Param id path string true "Plan group ID"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /plan-groups/{id}/plans [get]
func (h *PlanHandler) List(c *gin.Context) {
	var req dto.ListPlansRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid list query"))
		return
	}
	rows, pagination, err := h.generator.ListPlans(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, &pagination)
}

// Docked godoc
// @Summary List docked items of the latest generation run
// @Tags Plans
// @Produce json
// @Param id path string true "Plan group ID"
// @Success 200 {object} response.Envelope
// @Router /plan-groups/{id}/docked [get]
func (h *PlanHandler) Docked(c *gin.Context) {
	result, err := h.generator.ListDocked(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func generationWarnings(docked []models.DockedPlanInfo, failures []models.ContentCopyFailure) []string {
	var warnings []string
	for _, d := range docked {
		warnings = append(warnings, "docked: content "+d.ContentID+" ("+d.Reason+")")
	}
	for _, f := range failures {
		warnings = append(warnings, "content copy failed: "+f.ContentID+" ("+f.Reason+")")
	}
	return warnings
}
