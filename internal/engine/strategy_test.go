package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seonlab/studyplan-api/internal/models"
)

func TestRiskBasedStrategyOrdersByRiskDescending(t *testing.T) {
	contents := []models.ContentInfo{
		{ID: "a", Subject: "English", TotalAmount: 100},
		{ID: "b", Subject: "Math", TotalAmount: 100},
		{ID: "c", Subject: "unknown", TotalAmount: 100},
	}
	riskIndex := map[string]models.SubjectRiskIndex{
		"math":    {Subject: "math", RiskScore: 0.9},
		"english": {Subject: "english", RiskScore: 0.4},
	}

	out := NewAllocationStrategy(models.AllocationRiskBased).SortContents(contents, riskIndex)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{out[0].ID, out[1].ID, out[2].ID})
	// Input stays untouched.
	assert.Equal(t, "a", contents[0].ID)
}

func TestRiskBasedStrategyContentScoreOverridesIndex(t *testing.T) {
	high := 0.95
	contents := []models.ContentInfo{
		{ID: "a", Subject: "math", TotalAmount: 100},
		{ID: "b", Subject: "english", TotalAmount: 100, RiskScore: &high},
	}
	riskIndex := map[string]models.SubjectRiskIndex{
		"math": {Subject: "math", RiskScore: 0.5},
	}

	out := NewAllocationStrategy(models.AllocationRiskBased).SortContents(contents, riskIndex)
	assert.Equal(t, "b", out[0].ID)
}

func TestRiskBasedStrategyStableOnTies(t *testing.T) {
	contents := []models.ContentInfo{
		{ID: "first", Subject: "art", TotalAmount: 10},
		{ID: "second", Subject: "music", TotalAmount: 20},
		{ID: "third", Subject: "crafts", TotalAmount: 30},
	}

	out := NewAllocationStrategy(models.AllocationRiskBased).SortContents(contents, nil)
	assert.Equal(t, []string{"first", "second", "third"}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestBalancedStrategyPreservesOrder(t *testing.T) {
	contents := []models.ContentInfo{
		{ID: "z", TotalAmount: 5},
		{ID: "a", TotalAmount: 500},
	}

	out := NewAllocationStrategy(models.AllocationBalanced).SortContents(contents, nil)
	assert.Equal(t, []string{"z", "a"}, []string{out[0].ID, out[1].ID})
}

func TestVolumeBasedStrategyFrontLoadsLargeChunks(t *testing.T) {
	contents := []models.ContentInfo{
		{ID: "small", TotalAmount: 30},
		{ID: "large", TotalAmount: 300},
		{ID: "medium", TotalAmount: 120},
	}

	out := NewAllocationStrategy(models.AllocationVolumeBased).SortContents(contents, nil)
	assert.Equal(t, []string{"large", "medium", "small"}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestNewAllocationStrategyDefaultsToRiskBased(t *testing.T) {
	assert.IsType(t, riskBasedStrategy{}, NewAllocationStrategy(models.AllocationStrategy("bogus")))
}
