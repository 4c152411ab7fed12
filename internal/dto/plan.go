package dto

import (
	"time"

	"github.com/seonlab/studyplan-api/internal/models"
)

// WeeklyBlockRequest declares one recurring availability window.
type WeeklyBlockRequest struct {
	DayOfWeek int             `json:"dayOfWeek" validate:"min=0,max=6"`
	Start     string          `json:"start" validate:"required"`
	End       string          `json:"end" validate:"required"`
	SlotType  models.SlotType `json:"slotType" validate:"required,oneof=study self_study"`
}

// ExclusionRequest marks one date as unavailable.
type ExclusionRequest struct {
	Date   string               `json:"date" validate:"required"`
	Type   models.ExclusionType `json:"type" validate:"required"`
	Reason *string              `json:"reason,omitempty"`
}

// AcademyCommitmentRequest declares a recurring blackout window.
type AcademyCommitmentRequest struct {
	DayOfWeek         int    `json:"dayOfWeek" validate:"min=0,max=6"`
	Start             string `json:"start" validate:"required"`
	End               string `json:"end" validate:"required"`
	TravelTimeMinutes int    `json:"travelTimeMinutes" validate:"min=0"`
	AcademyName       string `json:"academyName"`
}

// GeneratePlansRequest drives one generation run for a plan group. Inline
// blocks/exclusions/commitments override the plan group's stored ones when
// present; otherwise the stored configuration applies. Alternatively a
// ProposalID persists a previously previewed run as-is.
type GeneratePlansRequest struct {
	ProposalID         string                     `json:"proposalId,omitempty"`
	Contents           []models.ContentRef        `json:"contents" validate:"omitempty,min=1,dive"`
	WeeklyBlocks       []WeeklyBlockRequest       `json:"weeklyBlocks" validate:"omitempty,dive"`
	Exclusions         []ExclusionRequest         `json:"exclusions" validate:"omitempty,dive"`
	AcademyCommitments []AcademyCommitmentRequest `json:"academyCommitments" validate:"omitempty,dive"`
	PlacementStrategy  models.PlacementStrategy   `json:"placementStrategy" validate:"omitempty,oneof=first_fit best_fit spread"`
	AllocationStrategy models.AllocationStrategy  `json:"allocationStrategy" validate:"omitempty,oneof=risk_based balanced volume_based"`
	Regenerate         bool                       `json:"regenerate"`
}

// PlacementView is one placed chunk in API responses.
type PlacementView struct {
	ContentID        string          `json:"contentId"`
	Date             string          `json:"date"`
	StartTime        string          `json:"startTime"`
	EndTime          string          `json:"endTime"`
	Amount           int             `json:"amount"`
	TimeSlotType     models.SlotType `json:"timeSlotType"`
	AllocationReason string          `json:"allocationReason"`
}

// GeneratePlansResponse reports the outcome of a persisted generation run.
type GeneratePlansResponse struct {
	PlanGroupID  string                      `json:"planGroupId"`
	GenerationID string                      `json:"generationId"`
	PlacedCount  int                         `json:"placedCount"`
	PlacedAmount int                         `json:"placedAmount"`
	Placements   []PlacementView             `json:"placements"`
	Docked       []models.DockedPlanInfo     `json:"docked"`
	CopyFailures []models.ContentCopyFailure `json:"copyFailures,omitempty"`
	GeneratedAt  time.Time                   `json:"generatedAt"`
}

// DailyBreakdown pairs a day's capacity before and after placement.
type DailyBreakdown struct {
	Date          string          `json:"date"`
	DayType       models.DayType  `json:"dayType"`
	BeforeMinutes int             `json:"beforeMinutes"`
	AfterMinutes  int             `json:"afterMinutes"`
	Placements    []PlacementView `json:"placements"`
}

// PreviewPlansResponse is a full generation run without persistence.
type PreviewPlansResponse struct {
	ProposalID   string                      `json:"proposalId"`
	ExpiresAt    time.Time                   `json:"expiresAt"`
	Placements   []PlacementView             `json:"placements"`
	Docked       []models.DockedPlanInfo     `json:"docked"`
	CopyFailures []models.ContentCopyFailure `json:"copyFailures,omitempty"`
	Breakdown    []DailyBreakdown            `json:"breakdown"`
	Summary      models.ScheduleSummary      `json:"summary"`
}

// SchedulePreviewRequest exposes the schedule calculator standalone.
type SchedulePreviewRequest struct {
	WeeklyBlocks       []WeeklyBlockRequest       `json:"weeklyBlocks" validate:"omitempty,dive"`
	Exclusions         []ExclusionRequest         `json:"exclusions" validate:"omitempty,dive"`
	AcademyCommitments []AcademyCommitmentRequest `json:"academyCommitments" validate:"omitempty,dive"`
}

// SchedulePreviewResponse returns the computed daily schedule and totals.
type SchedulePreviewResponse struct {
	Days    []models.DailySchedule `json:"days"`
	Summary models.ScheduleSummary `json:"summary"`
}

// ListPlansRequest filters the active generated rows of a plan group.
type ListPlansRequest struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// DockedPlansResponse lists the docked items of the latest persisted run.
type DockedPlansResponse struct {
	PlanGroupID  string                  `json:"planGroupId"`
	GenerationID string                  `json:"generationId,omitempty"`
	Items        []models.DockedPlanInfo `json:"items"`
}

// AsyncGenerateResponse acknowledges an enqueued generation job.
type AsyncGenerateResponse struct {
	JobID       string `json:"jobId"`
	PlanGroupID string `json:"planGroupId"`
	Status      string `json:"status"`
}
