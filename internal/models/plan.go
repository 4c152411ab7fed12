package models

import "time"

// PlacementStrategy selects the slot-search algorithm for a generation run.
type PlacementStrategy string

const (
	PlacementFirstFit PlacementStrategy = "first_fit"
	PlacementBestFit  PlacementStrategy = "best_fit"
	PlacementSpread   PlacementStrategy = "spread"
)

// AllocationStrategy selects the content-ordering heuristic.
type AllocationStrategy string

const (
	AllocationRiskBased   AllocationStrategy = "risk_based"
	AllocationBalanced    AllocationStrategy = "balanced"
	AllocationVolumeBased AllocationStrategy = "volume_based"
)

// PlanGroup scopes one student's generation period and strategy overrides.
type PlanGroup struct {
	ID                 string              `db:"id" json:"id"`
	TenantID           string              `db:"tenant_id" json:"tenant_id"`
	StudentID          string              `db:"student_id" json:"student_id"`
	Name               string              `db:"name" json:"name"`
	PeriodStart        string              `db:"period_start" json:"period_start"`
	PeriodEnd          string              `db:"period_end" json:"period_end"`
	PlacementStrategy  *PlacementStrategy  `db:"placement_strategy" json:"placement_strategy,omitempty"`
	AllocationStrategy *AllocationStrategy `db:"allocation_strategy" json:"allocation_strategy,omitempty"`
	CreatedAt          time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time           `db:"updated_at" json:"updated_at"`
}

// PlacementResult is one placed chunk produced by a run. Transient: it only
// becomes durable once built into a StudentPlan row.
type PlacementResult struct {
	ContentID        string   `json:"content_id"`
	Date             string   `json:"date"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	Amount           int      `json:"amount"`
	TimeSlotType     SlotType `json:"time_slot_type"`
	AllocationReason string   `json:"allocation_reason"`
}

// DockedPlanInfo records content that could not be placed anywhere.
// Docked items are a normal outcome, not an error.
type DockedPlanInfo struct {
	ContentID       string `json:"content_id"`
	RemainingAmount int    `json:"remaining_amount"`
	Reason          string `json:"reason"`
}

// DockReasonNoCapacity is the only dock reason emitted by placement.
const DockReasonNoCapacity = "no_capacity"

// StudentPlan is the persisted unit of generation output: one row per placed
// (date, content chunk) pair with content metadata denormalized at
// generation time. Rows are superseded via IsActive, never mutated.
type StudentPlan struct {
	ID             string      `db:"id" json:"id"`
	PlanGroupID    string      `db:"plan_group_id" json:"plan_group_id"`
	GenerationID   string      `db:"generation_id" json:"generation_id"`
	ContentID      string      `db:"content_id" json:"content_id"`
	ContentType    ContentType `db:"content_type" json:"content_type"`
	ContentTitle   string      `db:"content_title" json:"content_title"`
	ContentSubject string      `db:"content_subject" json:"content_subject"`
	PlanDate       string      `db:"plan_date" json:"plan_date"`
	StartTime      string      `db:"start_time" json:"start_time"`
	EndTime        string      `db:"end_time" json:"end_time"`
	Amount         int         `db:"amount" json:"amount"`
	TimeSlotType   SlotType    `db:"time_slot_type" json:"time_slot_type"`
	DayType        DayType     `db:"day_type" json:"day_type"`
	WeekNumber     int         `db:"week_number" json:"week_number"`
	IsActive       bool        `db:"is_active" json:"is_active"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// GenerationResult is the overall outcome of one generation run.
type GenerationResult struct {
	PlanGroupID  string               `json:"plan_group_id"`
	GenerationID string               `json:"generation_id"`
	PlacedCount  int                  `json:"placed_count"`
	PlacedAmount int                  `json:"placed_amount"`
	Docked       []DockedPlanInfo     `json:"docked"`
	CopyFailures []ContentCopyFailure `json:"copy_failures,omitempty"`
	GeneratedAt  time.Time            `json:"generated_at"`
}
