package engine

import (
	"sort"
	"strings"

	"github.com/seonlab/studyplan-api/internal/models"
)

// AllocationStrategy orders content before it is offered to the placer.
// Implementations are pure and never mutate their input slice.
type AllocationStrategy interface {
	SortContents(contents []models.ContentInfo, riskIndex map[string]models.SubjectRiskIndex) []models.ContentInfo
}

// NewAllocationStrategy resolves a configured strategy name, defaulting to
// risk-based ordering for unknown values.
func NewAllocationStrategy(name models.AllocationStrategy) AllocationStrategy {
	switch name {
	case models.AllocationBalanced:
		return balancedStrategy{}
	case models.AllocationVolumeBased:
		return volumeBasedStrategy{}
	default:
		return riskBasedStrategy{}
	}
}

// riskBasedStrategy sorts descending by the subject's risk score, treating
// unknown subjects as 0. Stable: ties keep the author-specified order.
type riskBasedStrategy struct{}

func (riskBasedStrategy) SortContents(contents []models.ContentInfo, riskIndex map[string]models.SubjectRiskIndex) []models.ContentInfo {
	out := append([]models.ContentInfo(nil), contents...)
	score := func(c models.ContentInfo) float64 {
		if c.RiskScore != nil {
			return *c.RiskScore
		}
		if idx, ok := riskIndex[strings.ToLower(c.Subject)]; ok {
			return idx.RiskScore
		}
		return 0
	}
	sort.SliceStable(out, func(i, j int) bool { return score(out[i]) > score(out[j]) })
	return out
}

// balancedStrategy preserves the author-specified sequence.
type balancedStrategy struct{}

func (balancedStrategy) SortContents(contents []models.ContentInfo, _ map[string]models.SubjectRiskIndex) []models.ContentInfo {
	return append([]models.ContentInfo(nil), contents...)
}

// volumeBasedStrategy front-loads large chunks for packing efficiency.
type volumeBasedStrategy struct{}

func (volumeBasedStrategy) SortContents(contents []models.ContentInfo, _ map[string]models.SubjectRiskIndex) []models.ContentInfo {
	out := append([]models.ContentInfo(nil), contents...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalAmount > out[j].TotalAmount })
	return out
}
