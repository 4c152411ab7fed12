package engine

import (
	"fmt"

	"github.com/seonlab/studyplan-api/internal/models"
)

// PlacementConfig selects the slot-search behaviour for one run.
type PlacementConfig struct {
	Strategy models.PlacementStrategy
	// MinRangeMinutes drops ledger slivers shorter than this; <=0 means 1.
	MinRangeMinutes int
}

// PlacementOutcome is the full result of placing one ordered content list.
type PlacementOutcome struct {
	Placements []models.PlacementResult
	Docked     []models.DockedPlanInfo
}

// PlaceContents runs every content item, in order, through the three-step
// study / self-study / dock pipeline against a private copy of the supplied
// availability. Later items see capacity consumed by earlier ones.
// Deterministic: identical inputs yield identical outcomes.
func PlaceContents(availability []models.DailyAvailability, contents []models.ContentInfo, cfg PlacementConfig) PlacementOutcome {
	p := newPlacer(availability, cfg)
	var outcome PlacementOutcome
	for _, content := range contents {
		placed, docked := p.placeContent(content)
		outcome.Placements = append(outcome.Placements, placed...)
		if docked != nil {
			outcome.Docked = append(outcome.Docked, *docked)
		}
	}
	return outcome
}

// placer holds the per-run mutable ledger. Never shared across runs.
type placer struct {
	ledger       []models.DailyAvailability
	strategy     models.PlacementStrategy
	minRange     int
	placedPerDay map[string]int
}

func newPlacer(availability []models.DailyAvailability, cfg PlacementConfig) *placer {
	minRange := cfg.MinRangeMinutes
	if minRange <= 0 {
		minRange = 1
	}
	strategy := cfg.Strategy
	switch strategy {
	case models.PlacementFirstFit, models.PlacementBestFit, models.PlacementSpread:
	default:
		strategy = models.PlacementFirstFit
	}
	return &placer{
		ledger:       CloneAvailability(availability),
		strategy:     strategy,
		minRange:     minRange,
		placedPerDay: make(map[string]int),
	}
}

// placeInTier keeps consuming tier capacity for the content until either the
// amount is exhausted or the tier has no usable range left. Each iteration
// first looks for a range that fits the whole remainder; failing that it
// truncates into the strategy-chosen range and carries the rest forward.
func (p *placer) placeInTier(content models.ContentInfo, tier models.SlotType, amount int) ([]models.PlacementResult, int) {
	var placed []models.PlacementResult
	remaining := amount
	for remaining > 0 {
		dayIdx, rangeIdx, ok := p.findSlot(tier, remaining)
		if !ok {
			break
		}
		chunk := remaining
		capacity := p.rangeCapacity(dayIdx, rangeIdx)
		if chunk > capacity {
			chunk = capacity
		}
		placed = append(placed, p.consume(content, tier, dayIdx, rangeIdx, chunk))
		remaining -= chunk
	}
	return placed, remaining
}

// findSlot picks the next range of the tier per the active strategy. A range
// fitting the full amount wins over any partial one; when nothing fits
// fully, the strategy choice applies to partial candidates the same way.
func (p *placer) findSlot(tier models.SlotType, amount int) (int, int, bool) {
	type candidate struct {
		dayIdx, rangeIdx, capacity int
	}
	var full, partial []candidate
	for dayIdx, day := range p.ledger {
		for rangeIdx, r := range day.Ranges {
			if r.SlotType != tier {
				continue
			}
			c := candidate{dayIdx: dayIdx, rangeIdx: rangeIdx, capacity: RangeMinutes(r.TimeRange)}
			if c.capacity < p.minRange {
				continue
			}
			if c.capacity >= amount {
				full = append(full, c)
			} else {
				partial = append(partial, c)
			}
		}
	}
	pool := full
	if len(pool) == 0 {
		pool = partial
	}
	if len(pool) == 0 {
		return 0, 0, false
	}

	best := pool[0]
	switch p.strategy {
	case models.PlacementBestFit:
		// Minimise leftover capacity after this placement.
		for _, c := range pool[1:] {
			if c.capacity < best.capacity {
				best = c
			}
		}
	case models.PlacementSpread:
		// Favour the day with the least already placed in this run;
		// chronological order breaks ties.
		for _, c := range pool[1:] {
			if p.placedPerDay[p.ledger[c.dayIdx].Date] < p.placedPerDay[p.ledger[best.dayIdx].Date] {
				best = c
			}
		}
	default:
		// First fit: pool is already in chronological order.
	}
	return best.dayIdx, best.rangeIdx, true
}

func (p *placer) rangeCapacity(dayIdx, rangeIdx int) int {
	return RangeMinutes(p.ledger[dayIdx].Ranges[rangeIdx].TimeRange)
}

// consume carves chunk minutes off the front of the chosen range, shrinking
// the ledger in place and dropping the range once it falls below minRange.
func (p *placer) consume(content models.ContentInfo, tier models.SlotType, dayIdx, rangeIdx, chunk int) models.PlacementResult {
	day := &p.ledger[dayIdx]
	r := day.Ranges[rangeIdx]
	start, _ := ParseClock(r.Start)
	end := start + chunk

	result := models.PlacementResult{
		ContentID:        content.ID,
		Date:             day.Date,
		StartTime:        FormatClock(start),
		EndTime:          FormatClock(end),
		Amount:           chunk,
		TimeSlotType:     tier,
		AllocationReason: fmt.Sprintf("%s:%s", p.strategy, tier),
	}

	rangeEnd, _ := ParseClock(r.End)
	if rangeEnd-end >= p.minRange {
		day.Ranges[rangeIdx].Start = FormatClock(end)
	} else {
		day.Ranges = append(day.Ranges[:rangeIdx], day.Ranges[rangeIdx+1:]...)
	}
	p.placedPerDay[day.Date] += chunk
	return result
}
