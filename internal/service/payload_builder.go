package service

import (
	"fmt"

	"github.com/seonlab/studyplan-api/internal/engine"
	"github.com/seonlab/studyplan-api/internal/models"
	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
)

// PlanPayloadBuilder converts placement results into persistable rows and
// validates the invariants of a finished run.
type PlanPayloadBuilder struct{}

// NewPlanPayloadBuilder constructs the builder.
func NewPlanPayloadBuilder() *PlanPayloadBuilder {
	return &PlanPayloadBuilder{}
}

// Build denormalizes content metadata into one StudentPlan row per placed
// chunk. Content title and subject are copied at generation time so rows
// stay readable after the content changes.
func (b *PlanPayloadBuilder) Build(planGroupID, generationID, periodStart string, placements []models.PlacementResult, contents []models.ContentInfo, schedule []models.DailySchedule) []models.StudentPlan {
	contentByID := make(map[string]models.ContentInfo, len(contents))
	for _, c := range contents {
		contentByID[c.ID] = c
	}
	dayTypeByDate := make(map[string]models.DayType, len(schedule))
	for _, day := range schedule {
		dayTypeByDate[day.Date] = day.DayType
	}

	rows := make([]models.StudentPlan, 0, len(placements))
	for _, placement := range placements {
		content := contentByID[placement.ContentID]
		rows = append(rows, models.StudentPlan{
			PlanGroupID:    planGroupID,
			GenerationID:   generationID,
			ContentID:      placement.ContentID,
			ContentType:    content.Type,
			ContentTitle:   content.Title,
			ContentSubject: content.Subject,
			PlanDate:       placement.Date,
			StartTime:      placement.StartTime,
			EndTime:        placement.EndTime,
			Amount:         placement.Amount,
			TimeSlotType:   placement.TimeSlotType,
			DayType:        dayTypeByDate[placement.Date],
			WeekNumber:     engine.WeekNumber(periodStart, placement.Date),
		})
	}
	return rows
}

// Validate rejects payload sets with inverted ranges, duplicate
// (content, date, start) tuples, or content whose amount is not fully
// accounted for by placements plus docked remainders.
func (b *PlanPayloadBuilder) Validate(rows []models.StudentPlan, contents []models.ContentInfo, docked []models.DockedPlanInfo) error {
	seen := make(map[string]struct{}, len(rows))
	placedByContent := make(map[string]int, len(contents))
	for _, row := range rows {
		if engine.RangeMinutes(models.TimeRange{Start: row.StartTime, End: row.EndTime}) <= 0 {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("plan row %s %s has inverted range %s-%s", row.ContentID, row.PlanDate, row.StartTime, row.EndTime))
		}
		key := row.ContentID + "|" + row.PlanDate + "|" + row.StartTime
		if _, dup := seen[key]; dup {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("duplicate plan row for content %s on %s at %s", row.ContentID, row.PlanDate, row.StartTime))
		}
		seen[key] = struct{}{}
		placedByContent[row.ContentID] += row.Amount
	}

	dockedByContent := make(map[string]int, len(docked))
	for _, d := range docked {
		dockedByContent[d.ContentID] += d.RemainingAmount
	}
	for _, content := range contents {
		accounted := placedByContent[content.ID] + dockedByContent[content.ID]
		if accounted != content.TotalAmount {
			return appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("content %s accounts for %d of %d units", content.ID, accounted, content.TotalAmount))
		}
	}
	return nil
}
