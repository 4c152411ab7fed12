package engine

import (
	"sort"

	"github.com/seonlab/studyplan-api/internal/models"
)

// HigherPriorityType returns the exclusion type that wins when two entries
// compete for the same date. Ties keep the first argument, unknown types
// rank below every known one.
func HigherPriorityType(a, b models.ExclusionType) models.ExclusionType {
	if b.Priority() > a.Priority() {
		return b
	}
	return a
}

// DeduplicateExclusions collapses the exclusion list to at most one entry
// per date, keeping the highest-priority type. The result is sorted by date
// and the function is idempotent.
func DeduplicateExclusions(entries []models.ExclusionEntry) []models.ExclusionEntry {
	byDate := make(map[string]models.ExclusionEntry, len(entries))
	for _, entry := range entries {
		held, ok := byDate[entry.Date]
		if !ok || entry.Type.Priority() > held.Type.Priority() {
			byDate[entry.Date] = entry
		}
	}
	out := make([]models.ExclusionEntry, 0, len(byDate))
	for _, entry := range byDate {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
