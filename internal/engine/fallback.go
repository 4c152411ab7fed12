package engine

import (
	"github.com/seonlab/studyplan-api/internal/models"
)

// placeContent runs one content item through the strictly-forward pipeline:
// study hours, then self-study hours, then the dock. Every unit of the
// content ends up in exactly one placement or the docked remainder.
func (p *placer) placeContent(content models.ContentInfo) ([]models.PlacementResult, *models.DockedPlanInfo) {
	if content.TotalAmount <= 0 {
		return nil, nil
	}

	placed, remaining := p.placeInTier(content, models.SlotTypeStudy, content.TotalAmount)
	if remaining > 0 {
		selfPlaced, left := p.placeInTier(content, models.SlotTypeSelfStudy, remaining)
		placed = append(placed, selfPlaced...)
		remaining = left
	}
	if remaining > 0 {
		return placed, &models.DockedPlanInfo{
			ContentID:       content.ID,
			RemainingAmount: remaining,
			Reason:          models.DockReasonNoCapacity,
		}
	}
	return placed, nil
}
