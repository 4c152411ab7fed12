package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seonlab/studyplan-api/internal/models"
)

func weekdayAvailability(t *testing.T, exclusions ...models.ExclusionEntry) []models.DailyAvailability {
	t.Helper()
	schedule, err := CalculateSchedule(ScheduleInput{
		PeriodStart:  "2025-03-03",
		PeriodEnd:    "2025-03-07",
		WeeklyBlocks: weekdayBlocks("09:00", "11:00", models.SlotTypeStudy, 1, 2, 3, 4, 5),
		Exclusions:   exclusions,
	})
	require.NoError(t, err)
	return ComputeAvailability(schedule, nil)
}

func TestPlaceContentsFirstFitFullWeekScenario(t *testing.T) {
	avail := weekdayAvailability(t)
	contents := []models.ContentInfo{{ID: "math-1", Subject: "math", TotalAmount: 300}}

	outcome := PlaceContents(avail, contents, PlacementConfig{Strategy: models.PlacementFirstFit})
	require.Empty(t, outcome.Docked)
	require.Len(t, outcome.Placements, 3)

	assert.Equal(t, "2025-03-03", outcome.Placements[0].Date)
	assert.Equal(t, "09:00", outcome.Placements[0].StartTime)
	assert.Equal(t, "11:00", outcome.Placements[0].EndTime)
	assert.Equal(t, 120, outcome.Placements[0].Amount)

	assert.Equal(t, "2025-03-04", outcome.Placements[1].Date)
	assert.Equal(t, 120, outcome.Placements[1].Amount)

	assert.Equal(t, "2025-03-05", outcome.Placements[2].Date)
	assert.Equal(t, "09:00", outcome.Placements[2].StartTime)
	assert.Equal(t, "10:00", outcome.Placements[2].EndTime)
	assert.Equal(t, 60, outcome.Placements[2].Amount)
}

func TestPlaceContentsExcludedWednesdayShiftsToThursday(t *testing.T) {
	avail := weekdayAvailability(t, models.ExclusionEntry{Date: "2025-03-05", Type: models.ExclusionHoliday})
	contents := []models.ContentInfo{{ID: "math-1", Subject: "math", TotalAmount: 300}}

	outcome := PlaceContents(avail, contents, PlacementConfig{Strategy: models.PlacementFirstFit})
	require.Empty(t, outcome.Docked)
	require.Len(t, outcome.Placements, 3)

	for _, placement := range outcome.Placements {
		assert.NotEqual(t, "2025-03-05", placement.Date, "excluded day must stay empty")
	}
	assert.Equal(t, "2025-03-06", outcome.Placements[2].Date)
	assert.Equal(t, "09:00", outcome.Placements[2].StartTime)
	assert.Equal(t, "10:00", outcome.Placements[2].EndTime)
}

func TestPlaceContentsCompleteness(t *testing.T) {
	avail := weekdayAvailability(t)
	contents := []models.ContentInfo{
		{ID: "a", Subject: "math", TotalAmount: 400},
		{ID: "b", Subject: "english", TotalAmount: 300},
		{ID: "c", Subject: "science", TotalAmount: 250},
	}

	outcome := PlaceContents(avail, contents, PlacementConfig{Strategy: models.PlacementFirstFit})

	placed := map[string]int{}
	for _, p := range outcome.Placements {
		placed[p.ContentID] += p.Amount
	}
	docked := map[string]int{}
	for _, d := range outcome.Docked {
		docked[d.ContentID] += d.RemainingAmount
	}
	for _, c := range contents {
		assert.Equal(t, c.TotalAmount, placed[c.ID]+docked[c.ID], c.ID)
	}
	// 600 total study minutes for 950 requested units.
	assert.Equal(t, 600, placed["a"]+placed["b"]+placed["c"])
}

func TestPlaceContentsNoDoubleBooking(t *testing.T) {
	avail := weekdayAvailability(t)
	contents := []models.ContentInfo{
		{ID: "a", Subject: "math", TotalAmount: 100},
		{ID: "b", Subject: "english", TotalAmount: 100},
		{ID: "c", Subject: "science", TotalAmount: 100},
	}

	outcome := PlaceContents(avail, contents, PlacementConfig{Strategy: models.PlacementFirstFit})

	type placedSpan struct{ start, end int }
	byDate := map[string][]placedSpan{}
	for _, p := range outcome.Placements {
		start, err := ParseClock(p.StartTime)
		require.NoError(t, err)
		end, err := ParseClock(p.EndTime)
		require.NoError(t, err)
		require.Less(t, start, end)
		// Contained in the day's original window.
		dayStart, _ := ParseClock("09:00")
		dayEnd, _ := ParseClock("11:00")
		assert.GreaterOrEqual(t, start, dayStart)
		assert.LessOrEqual(t, end, dayEnd)
		byDate[p.Date] = append(byDate[p.Date], placedSpan{start: start, end: end})
	}
	for date, spans := range byDate {
		for i := 0; i < len(spans); i++ {
			for j := i + 1; j < len(spans); j++ {
				overlaps := spans[i].start < spans[j].end && spans[j].start < spans[i].end
				assert.False(t, overlaps, "overlap on %s", date)
			}
		}
	}
}

func TestPlaceContentsOverlappingBlocksDoNotDoubleBook(t *testing.T) {
	// Two study blocks sharing 10:00-11:00 coalesce to a single 09:00-12:00
	// window, so two 120-unit contents land back to back instead of both
	// claiming the overlap.
	schedule, err := CalculateSchedule(ScheduleInput{
		PeriodStart: "2025-03-03",
		PeriodEnd:   "2025-03-03",
		WeeklyBlocks: []models.WeeklyBlock{
			{DayOfWeek: 1, Start: "09:00", End: "11:00", SlotType: models.SlotTypeStudy},
			{DayOfWeek: 1, Start: "10:00", End: "12:00", SlotType: models.SlotTypeStudy},
		},
	})
	require.NoError(t, err)
	avail := ComputeAvailability(schedule, nil)

	contents := []models.ContentInfo{
		{ID: "a", Subject: "math", TotalAmount: 120},
		{ID: "b", Subject: "english", TotalAmount: 120},
	}
	outcome := PlaceContents(avail, contents, PlacementConfig{Strategy: models.PlacementFirstFit})

	require.Len(t, outcome.Placements, 2)
	assert.Equal(t, "09:00", outcome.Placements[0].StartTime)
	assert.Equal(t, "11:00", outcome.Placements[0].EndTime)
	assert.Equal(t, "11:00", outcome.Placements[1].StartTime)
	assert.Equal(t, "12:00", outcome.Placements[1].EndTime)
	require.Len(t, outcome.Docked, 1)
	assert.Equal(t, "b", outcome.Docked[0].ContentID)
	assert.Equal(t, 60, outcome.Docked[0].RemainingAmount)
}

func TestPlaceContentsDeterministic(t *testing.T) {
	contents := []models.ContentInfo{
		{ID: "a", Subject: "math", TotalAmount: 170},
		{ID: "b", Subject: "english", TotalAmount: 230},
	}
	for _, strategy := range []models.PlacementStrategy{models.PlacementFirstFit, models.PlacementBestFit, models.PlacementSpread} {
		first := PlaceContents(weekdayAvailability(t), contents, PlacementConfig{Strategy: strategy})
		second := PlaceContents(weekdayAvailability(t), contents, PlacementConfig{Strategy: strategy})
		assert.Equal(t, first, second, string(strategy))
	}
}

func TestPlaceContentsFallsBackToSelfStudyBeforeDocking(t *testing.T) {
	avail := []models.DailyAvailability{
		{
			Date:    "2025-03-03",
			DayType: models.DayTypeStudy,
			Ranges: []models.ScheduleRange{
				{TimeRange: models.TimeRange{Start: "09:00", End: "09:30"}, SlotType: models.SlotTypeStudy},
				{TimeRange: models.TimeRange{Start: "20:00", End: "22:00"}, SlotType: models.SlotTypeSelfStudy},
			},
		},
	}
	contents := []models.ContentInfo{{ID: "a", Subject: "math", TotalAmount: 90}}

	outcome := PlaceContents(avail, contents, PlacementConfig{Strategy: models.PlacementFirstFit})
	require.Empty(t, outcome.Docked, "content fitting self-study must never dock")
	require.Len(t, outcome.Placements, 2)

	assert.Equal(t, models.SlotTypeStudy, outcome.Placements[0].TimeSlotType)
	assert.Equal(t, 30, outcome.Placements[0].Amount)
	assert.Equal(t, models.SlotTypeSelfStudy, outcome.Placements[1].TimeSlotType)
	assert.Equal(t, 60, outcome.Placements[1].Amount)
	assert.Equal(t, "20:00", outcome.Placements[1].StartTime)
	assert.Equal(t, "21:00", outcome.Placements[1].EndTime)
}

func TestPlaceContentsDocksExactlyOnceWhenNothingFits(t *testing.T) {
	contents := []models.ContentInfo{{ID: "a", Subject: "math", TotalAmount: 60}}

	outcome := PlaceContents(nil, contents, PlacementConfig{Strategy: models.PlacementFirstFit})
	assert.Empty(t, outcome.Placements)
	require.Len(t, outcome.Docked, 1)
	assert.Equal(t, "a", outcome.Docked[0].ContentID)
	assert.Equal(t, 60, outcome.Docked[0].RemainingAmount)
	assert.Equal(t, models.DockReasonNoCapacity, outcome.Docked[0].Reason)
}

func TestPlaceContentsPartialCapacityDocksRemainder(t *testing.T) {
	avail := []models.DailyAvailability{
		{
			Date:    "2025-03-03",
			DayType: models.DayTypeStudy,
			Ranges: []models.ScheduleRange{
				{TimeRange: models.TimeRange{Start: "09:00", End: "10:00"}, SlotType: models.SlotTypeStudy},
			},
		},
	}
	contents := []models.ContentInfo{{ID: "a", Subject: "math", TotalAmount: 100}}

	outcome := PlaceContents(avail, contents, PlacementConfig{Strategy: models.PlacementFirstFit})
	require.Len(t, outcome.Placements, 1)
	assert.Equal(t, 60, outcome.Placements[0].Amount)
	require.Len(t, outcome.Docked, 1)
	assert.Equal(t, 40, outcome.Docked[0].RemainingAmount)
}

func TestPlaceContentsBestFitMinimisesLeftover(t *testing.T) {
	avail := []models.DailyAvailability{
		{
			Date:    "2025-03-03",
			DayType: models.DayTypeStudy,
			Ranges: []models.ScheduleRange{
				{TimeRange: models.TimeRange{Start: "09:00", End: "12:00"}, SlotType: models.SlotTypeStudy},
			},
		},
		{
			Date:    "2025-03-04",
			DayType: models.DayTypeStudy,
			Ranges: []models.ScheduleRange{
				{TimeRange: models.TimeRange{Start: "09:00", End: "10:10"}, SlotType: models.SlotTypeStudy},
			},
		},
	}
	contents := []models.ContentInfo{{ID: "a", Subject: "math", TotalAmount: 60}}

	outcome := PlaceContents(avail, contents, PlacementConfig{Strategy: models.PlacementBestFit})
	require.Len(t, outcome.Placements, 1)
	assert.Equal(t, "2025-03-04", outcome.Placements[0].Date, "70-minute range leaves less slack than 180")
}

func TestPlaceContentsSpreadDistributesAcrossDays(t *testing.T) {
	avail := weekdayAvailability(t)
	contents := []models.ContentInfo{
		{ID: "a", Subject: "math", TotalAmount: 60},
		{ID: "b", Subject: "english", TotalAmount: 60},
		{ID: "c", Subject: "science", TotalAmount: 60},
	}

	outcome := PlaceContents(avail, contents, PlacementConfig{Strategy: models.PlacementSpread})
	require.Len(t, outcome.Placements, 3)

	days := map[string]bool{}
	for _, p := range outcome.Placements {
		days[p.Date] = true
	}
	assert.Len(t, days, 3, "spread should land each item on a fresh day")
}

func TestPlaceContentsSkipsNonPositiveAmounts(t *testing.T) {
	outcome := PlaceContents(weekdayAvailability(t), []models.ContentInfo{{ID: "zero", TotalAmount: 0}}, PlacementConfig{})
	assert.Empty(t, outcome.Placements)
	assert.Empty(t, outcome.Docked)
}
