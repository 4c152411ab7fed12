package models

// ExclusionType labels a per-date exclusion entry. The Korean labels come
// straight from the operator-facing product and are stored as-is.
type ExclusionType string

const (
	ExclusionHoliday  ExclusionType = "휴일지정"
	ExclusionVacation ExclusionType = "휴가"
	ExclusionPersonal ExclusionType = "개인사정"
	ExclusionOther    ExclusionType = "기타"
)

// exclusionPriority orders competing exclusion types on the same date.
// Unknown types rank below every known one.
var exclusionPriority = map[ExclusionType]int{
	ExclusionHoliday:  4,
	ExclusionVacation: 3,
	ExclusionPersonal: 2,
	ExclusionOther:    1,
}

// Priority returns the dedup rank of the exclusion type, 0 for unknown.
func (t ExclusionType) Priority() int {
	return exclusionPriority[t]
}

// ExclusionEntry marks a single date as unavailable for placement.
// After deduplication at most one entry per date remains.
type ExclusionEntry struct {
	ID          string        `db:"id" json:"id,omitempty"`
	PlanGroupID string        `db:"plan_group_id" json:"plan_group_id,omitempty"`
	Date        string        `db:"exclusion_date" json:"date"`
	Type        ExclusionType `db:"exclusion_type" json:"type"`
	Reason      *string       `db:"reason" json:"reason,omitempty"`
}
