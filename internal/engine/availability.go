package engine

import (
	"github.com/seonlab/studyplan-api/internal/models"
)

// ComputeAvailability clips each day's ranges to exclude intervals already
// covered by committed plans. Pure: the caller supplies both inputs, the
// function never touches storage. Malformed existing rows are skipped.
func ComputeAvailability(schedule []models.DailySchedule, existing []models.ExistingPlan) []models.DailyAvailability {
	plansByDate := make(map[string][]span)
	for _, plan := range existing {
		s, err := toSpan(models.TimeRange{Start: plan.StartTime, End: plan.EndTime})
		if err != nil {
			continue
		}
		plansByDate[plan.Date] = append(plansByDate[plan.Date], s)
	}

	out := make([]models.DailyAvailability, 0, len(schedule))
	for _, day := range schedule {
		avail := models.DailyAvailability{Date: day.Date, DayType: day.DayType}
		cuts := plansByDate[day.Date]
		for _, r := range day.Ranges {
			base, err := toSpan(r.TimeRange)
			if err != nil {
				continue
			}
			pieces := mergeSpans(subtractAll([]span{base}, cuts), 0)
			for _, piece := range pieces {
				if piece.length() <= 0 {
					continue
				}
				avail.Ranges = append(avail.Ranges, models.ScheduleRange{
					TimeRange: spanToRange(piece),
					SlotType:  r.SlotType,
				})
			}
		}
		out = append(out, avail)
	}
	return out
}

// CloneAvailability deep-copies an availability list so one run's ledger
// mutations never leak into another's.
func CloneAvailability(availability []models.DailyAvailability) []models.DailyAvailability {
	out := make([]models.DailyAvailability, len(availability))
	for i, day := range availability {
		out[i] = models.DailyAvailability{Date: day.Date, DayType: day.DayType}
		if len(day.Ranges) > 0 {
			out[i].Ranges = make([]models.ScheduleRange, len(day.Ranges))
			copy(out[i].Ranges, day.Ranges)
		}
	}
	return out
}

// OverlapsExisting reports whether any placement occupies minutes already
// held by an existing plan row on the same date. Malformed rows are skipped,
// matching ComputeAvailability.
func OverlapsExisting(placements []models.PlacementResult, existing []models.ExistingPlan) bool {
	plansByDate := make(map[string][]span)
	for _, plan := range existing {
		s, err := toSpan(models.TimeRange{Start: plan.StartTime, End: plan.EndTime})
		if err != nil {
			continue
		}
		plansByDate[plan.Date] = append(plansByDate[plan.Date], s)
	}
	for _, p := range placements {
		placed, err := toSpan(models.TimeRange{Start: p.StartTime, End: p.EndTime})
		if err != nil {
			continue
		}
		for _, held := range plansByDate[p.Date] {
			if placed.start < held.end && held.start < placed.end {
				return true
			}
		}
	}
	return false
}

// TotalCapacity sums the remaining minutes of the given tier across all days.
func TotalCapacity(availability []models.DailyAvailability, tier models.SlotType) int {
	total := 0
	for _, day := range availability {
		for _, r := range day.Ranges {
			if r.SlotType == tier {
				total += RangeMinutes(r.TimeRange)
			}
		}
	}
	return total
}
