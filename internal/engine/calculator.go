package engine

import (
	"sort"
	"time"

	"github.com/seonlab/studyplan-api/internal/models"
	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// ScheduleInput bundles everything the calculator needs for one period.
type ScheduleInput struct {
	PeriodStart        string
	PeriodEnd          string
	WeeklyBlocks       []models.WeeklyBlock
	Exclusions         []models.ExclusionEntry
	AcademyCommitments []models.AcademyCommitment
	// MinRangeMinutes drops leftover slivers shorter than this; <=0 means 1.
	MinRangeMinutes int
}

// CalculateSchedule turns recurring weekly blocks, exclusions and academy
// commitments into one DailySchedule per calendar day of the period,
// inclusive on both ends. Excluded days always carry zero ranges.
func CalculateSchedule(in ScheduleInput) ([]models.DailySchedule, error) {
	start, err := time.Parse(dateLayout, in.PeriodStart)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period start")
	}
	end, err := time.Parse(dateLayout, in.PeriodEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period end")
	}
	if start.After(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period start is after period end")
	}

	minRange := in.MinRangeMinutes
	if minRange <= 0 {
		minRange = 1
	}

	excluded := make(map[string]models.ExclusionEntry)
	for _, entry := range DeduplicateExclusions(in.Exclusions) {
		excluded[entry.Date] = entry
	}

	blocksByDay := make(map[int][]models.WeeklyBlock)
	for _, block := range in.WeeklyBlocks {
		blocksByDay[block.DayOfWeek] = append(blocksByDay[block.DayOfWeek], block)
	}
	commitmentsByDay := make(map[int][]models.AcademyCommitment)
	for _, c := range in.AcademyCommitments {
		commitmentsByDay[c.DayOfWeek] = append(commitmentsByDay[c.DayOfWeek], c)
	}

	var schedule []models.DailySchedule
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(dateLayout)
		weekday := int(d.Weekday())

		if entry, ok := excluded[date]; ok {
			schedule = append(schedule, models.DailySchedule{
				Date:    date,
				DayType: exclusionDayType(entry.Type),
			})
			continue
		}

		cuts, err := commitmentCuts(commitmentsByDay[weekday])
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academy commitment")
		}

		ranges, err := dayRanges(blocksByDay[weekday], cuts, minRange)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekly block")
		}

		schedule = append(schedule, models.DailySchedule{
			Date:    date,
			DayType: dayTypeFor(blocksByDay[weekday]),
			Ranges:  ranges,
		})
	}
	return schedule, nil
}

// exclusionDayType maps the designated-holiday type to holiday, everything
// else to excluded.
func exclusionDayType(t models.ExclusionType) models.DayType {
	if t == models.ExclusionHoliday {
		return models.DayTypeHoliday
	}
	return models.DayTypeExcluded
}

// dayTypeFor classifies a non-excluded day: study when any study-tier block
// exists, self_study otherwise (including block-free days).
func dayTypeFor(blocks []models.WeeklyBlock) models.DayType {
	for _, b := range blocks {
		if b.SlotType == models.SlotTypeStudy {
			return models.DayTypeStudy
		}
	}
	return models.DayTypeSelfStudy
}

// commitmentCuts widens each commitment by its travel buffer on both sides.
func commitmentCuts(commitments []models.AcademyCommitment) ([]span, error) {
	var cuts []span
	for _, c := range commitments {
		s, err := toSpan(models.TimeRange{Start: c.Start, End: c.End})
		if err != nil {
			return nil, err
		}
		s.start -= c.TravelTimeMinutes
		s.end += c.TravelTimeMinutes
		if s.start < 0 {
			s.start = 0
		}
		if s.end > minutesPerDay {
			s.end = minutesPerDay
		}
		cuts = append(cuts, s)
	}
	return cuts, nil
}

// dayRanges coalesces the block windows per slot tier, gives the study tier
// precedence where tiers overlap, subtracts the commitment cuts and drops
// slivers below minRange. The output is disjoint and sorted by start.
func dayRanges(blocks []models.WeeklyBlock, cuts []span, minRange int) ([]models.ScheduleRange, error) {
	var study, selfStudy []span
	for _, block := range blocks {
		base, err := toSpan(models.TimeRange{Start: block.Start, End: block.End})
		if err != nil {
			return nil, err
		}
		if block.SlotType == models.SlotTypeStudy {
			study = append(study, base)
		} else {
			selfStudy = append(selfStudy, base)
		}
	}
	study = coalesceSpans(study)
	selfStudy = subtractAll(coalesceSpans(selfStudy), study)

	var ranges []models.ScheduleRange
	for _, tier := range []struct {
		spans []span
		slot  models.SlotType
	}{
		{study, models.SlotTypeStudy},
		{selfStudy, models.SlotTypeSelfStudy},
	} {
		for _, piece := range subtractAll(tier.spans, cuts) {
			if piece.length() < minRange {
				continue
			}
			ranges = append(ranges, models.ScheduleRange{
				TimeRange: spanToRange(piece),
				SlotType:  tier.slot,
			})
		}
	}
	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	return ranges, nil
}

// coalesceSpans sorts and merges overlapping or touching spans.
func coalesceSpans(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return mergeSpans(spans, 0)
}

// SummarizeSchedule aggregates a computed schedule for preview responses.
func SummarizeSchedule(schedule []models.DailySchedule) models.ScheduleSummary {
	summary := models.ScheduleSummary{TotalDays: len(schedule)}
	for _, day := range schedule {
		switch day.DayType {
		case models.DayTypeHoliday, models.DayTypeExcluded:
			summary.ExcludedDays++
		default:
			summary.StudyDays++
		}
		for _, r := range day.Ranges {
			summary.TotalAvailableMinutes += RangeMinutes(r.TimeRange)
		}
	}
	return summary
}

// WeekNumber is the 1-based week index of date within a period starting at
// periodStart. Malformed dates report week 1.
func WeekNumber(periodStart, date string) int {
	start, err := time.Parse(dateLayout, periodStart)
	if err != nil {
		return 1
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil || d.Before(start) {
		return 1
	}
	return int(d.Sub(start).Hours()/24)/7 + 1
}
