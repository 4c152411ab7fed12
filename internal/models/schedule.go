package models

// TimeRange is a same-day half-open interval expressed as "HH:MM" strings.
// Invariant: Start < End at minute granularity.
type TimeRange struct {
	Start string `json:"start" db:"start_time"`
	End   string `json:"end" db:"end_time"`
}

// DayType classifies a calendar day inside a generation period.
type DayType string

const (
	DayTypeStudy     DayType = "study"
	DayTypeSelfStudy DayType = "self_study"
	DayTypeHoliday   DayType = "holiday"
	DayTypeExcluded  DayType = "excluded"
)

// SlotType tags an available range with the placement tier it belongs to.
type SlotType string

const (
	SlotTypeStudy     SlotType = "study"
	SlotTypeSelfStudy SlotType = "self_study"
)

// ScheduleRange is a TimeRange tagged with its slot tier.
type ScheduleRange struct {
	TimeRange
	SlotType SlotType `json:"slot_type"`
}

// WeeklyBlock is a recurring weekly availability window attached to a plan
// group. DayOfWeek follows time.Weekday numbering (0 = Sunday).
type WeeklyBlock struct {
	ID          string   `db:"id" json:"id"`
	PlanGroupID string   `db:"plan_group_id" json:"plan_group_id"`
	DayOfWeek   int      `db:"day_of_week" json:"day_of_week" validate:"min=0,max=6"`
	Start       string   `db:"start_time" json:"start"`
	End         string   `db:"end_time" json:"end"`
	SlotType    SlotType `db:"slot_type" json:"slot_type"`
}

// AcademyCommitment is a recurring weekly blackout window. Travel time is
// subtracted as an extra buffer on both sides of the window.
type AcademyCommitment struct {
	ID                string `db:"id" json:"id"`
	PlanGroupID       string `db:"plan_group_id" json:"plan_group_id"`
	DayOfWeek         int    `db:"day_of_week" json:"day_of_week" validate:"min=0,max=6"`
	Start             string `db:"start_time" json:"start"`
	End               string `db:"end_time" json:"end"`
	TravelTimeMinutes int    `db:"travel_time_minutes" json:"travel_time_minutes"`
	AcademyName       string `db:"academy_name" json:"academy_name"`
}

// DailySchedule is one calendar day of the computed generation period with
// its remaining available ranges, disjoint and sorted ascending. Excluded
// days carry zero ranges.
type DailySchedule struct {
	Date    string          `json:"date"`
	DayType DayType         `json:"day_type"`
	Ranges  []ScheduleRange `json:"ranges"`
}

// DailyAvailability is a DailySchedule after subtracting already-committed
// plans. It doubles as the running ledger mutated during one placement run.
type DailyAvailability struct {
	Date    string          `json:"date"`
	DayType DayType         `json:"day_type"`
	Ranges  []ScheduleRange `json:"ranges"`
}

// ExistingPlan is an already-persisted allocation that reduces availability.
type ExistingPlan struct {
	Date      string `db:"plan_date" json:"date"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
	ContentID string `db:"content_id" json:"content_id"`
}

// ScheduleSummary aggregates a computed schedule for preview responses.
type ScheduleSummary struct {
	TotalDays             int `json:"total_days"`
	StudyDays             int `json:"study_days"`
	ExcludedDays          int `json:"excluded_days"`
	TotalAvailableMinutes int `json:"total_available_minutes"`
}
