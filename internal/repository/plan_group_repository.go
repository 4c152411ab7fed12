package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/seonlab/studyplan-api/internal/models"
)

// PlanGroupRepository reads plan groups and their stored scheduling inputs.
type PlanGroupRepository struct {
	db *sqlx.DB
}

// NewPlanGroupRepository creates a new instance of PlanGroupRepository.
func NewPlanGroupRepository(db *sqlx.DB) *PlanGroupRepository {
	return &PlanGroupRepository{db: db}
}

// FindByID loads a plan group by its identifier.
func (r *PlanGroupRepository) FindByID(ctx context.Context, id string) (*models.PlanGroup, error) {
	const query = `SELECT id, tenant_id, student_id, name, period_start, period_end,
placement_strategy, allocation_strategy, created_at, updated_at
FROM plan_groups WHERE id = $1 LIMIT 1`
	var group models.PlanGroup
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find plan group: %w", err)
	}
	return &group, nil
}

// ListWeeklyBlocks returns the stored recurring availability windows.
func (r *PlanGroupRepository) ListWeeklyBlocks(ctx context.Context, planGroupID string) ([]models.WeeklyBlock, error) {
	const query = `SELECT id, plan_group_id, day_of_week, start_time, end_time, slot_type
FROM plan_weekly_blocks WHERE plan_group_id = $1 ORDER BY day_of_week, start_time`
	var blocks []models.WeeklyBlock
	if err := r.db.SelectContext(ctx, &blocks, query, planGroupID); err != nil {
		return nil, fmt.Errorf("list weekly blocks: %w", err)
	}
	return blocks, nil
}

// ListExclusions returns the stored per-date exclusions, deduplication is
// left to the engine.
func (r *PlanGroupRepository) ListExclusions(ctx context.Context, planGroupID string) ([]models.ExclusionEntry, error) {
	const query = `SELECT id, plan_group_id, exclusion_date, exclusion_type, reason
FROM plan_exclusions WHERE plan_group_id = $1 ORDER BY exclusion_date`
	var entries []models.ExclusionEntry
	if err := r.db.SelectContext(ctx, &entries, query, planGroupID); err != nil {
		return nil, fmt.Errorf("list exclusions: %w", err)
	}
	return entries, nil
}

// ListAcademyCommitments returns the stored recurring blackout windows.
func (r *PlanGroupRepository) ListAcademyCommitments(ctx context.Context, planGroupID string) ([]models.AcademyCommitment, error) {
	const query = `SELECT id, plan_group_id, day_of_week, start_time, end_time, travel_time_minutes, academy_name
FROM academy_commitments WHERE plan_group_id = $1 ORDER BY day_of_week, start_time`
	var commitments []models.AcademyCommitment
	if err := r.db.SelectContext(ctx, &commitments, query, planGroupID); err != nil {
		return nil, fmt.Errorf("list academy commitments: %w", err)
	}
	return commitments, nil
}
