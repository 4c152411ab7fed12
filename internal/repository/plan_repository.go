package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seonlab/studyplan-api/internal/models"
)

// PlanRepository persists generated student plan rows.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository creates a new instance of PlanRepository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// InsertBatch writes one batch of generated rows. IDs and timestamps are
// assigned here so callers can hand over bare payloads.
func (r *PlanRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, plans []models.StudentPlan) error {
	if len(plans) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range plans {
		if plans[i].ID == "" {
			plans[i].ID = uuid.NewString()
		}
		if plans[i].CreatedAt.IsZero() {
			plans[i].CreatedAt = now
		}
		plans[i].IsActive = true
	}

	const query = `
INSERT INTO student_plans (
	id, plan_group_id, generation_id, content_id, content_type, content_title,
	content_subject, plan_date, start_time, end_time, amount, time_slot_type,
	day_type, week_number, is_active, created_at
) VALUES (
	:id, :plan_group_id, :generation_id, :content_id, :content_type, :content_title,
	:content_subject, :plan_date, :start_time, :end_time, :amount, :time_slot_type,
	:day_type, :week_number, :is_active, :created_at
)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, plans); err != nil {
		return fmt.Errorf("insert student plans: %w", err)
	}
	return nil
}

// DeleteByGeneration removes every row written by one generation run. Used
// as the compensating action after a failed batch.
func (r *PlanRepository) DeleteByGeneration(ctx context.Context, exec sqlx.ExtContext, planGroupID, generationID string) error {
	const query = `DELETE FROM student_plans WHERE plan_group_id = $1 AND generation_id = $2`
	if _, err := r.exec(exec).ExecContext(ctx, query, planGroupID, generationID); err != nil {
		return fmt.Errorf("delete generation rows: %w", err)
	}
	return nil
}

// DeactivateByPlanGroup soft-deletes all active rows of a plan group prior
// to regeneration. Rows are never mutated beyond this flag.
func (r *PlanRepository) DeactivateByPlanGroup(ctx context.Context, exec sqlx.ExtContext, planGroupID string) error {
	const query = `UPDATE student_plans SET is_active = false WHERE plan_group_id = $1 AND is_active = true`
	if _, err := r.exec(exec).ExecContext(ctx, query, planGroupID); err != nil {
		return fmt.Errorf("deactivate plan group rows: %w", err)
	}
	return nil
}

// ListActiveByPlanGroup returns the active rows of a plan group, optionally
// clipped to a date window, ordered for stable pagination.
func (r *PlanRepository) ListActiveByPlanGroup(ctx context.Context, planGroupID, from, to string, limit, offset int) ([]models.StudentPlan, int, error) {
	const countQuery = `SELECT COUNT(*) FROM student_plans
WHERE plan_group_id = $1 AND is_active = true
  AND ($2 = '' OR plan_date >= $2) AND ($3 = '' OR plan_date <= $3)`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, planGroupID, from, to); err != nil {
		return nil, 0, fmt.Errorf("count student plans: %w", err)
	}

	const query = `SELECT id, plan_group_id, generation_id, content_id, content_type, content_title,
content_subject, plan_date, start_time, end_time, amount, time_slot_type,
day_type, week_number, is_active, created_at
FROM student_plans
WHERE plan_group_id = $1 AND is_active = true
  AND ($2 = '' OR plan_date >= $2) AND ($3 = '' OR plan_date <= $3)
ORDER BY plan_date, start_time, id
LIMIT $4 OFFSET $5`
	var plans []models.StudentPlan
	if err := r.db.SelectContext(ctx, &plans, query, planGroupID, from, to, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list student plans: %w", err)
	}
	return plans, total, nil
}

// ListExistingByStudent returns the committed allocations of a student
// within a period, across all of their plan groups. These shrink the
// availability of a new run.
func (r *PlanRepository) ListExistingByStudent(ctx context.Context, studentID, from, to string) ([]models.ExistingPlan, error) {
	const query = `SELECT sp.plan_date, sp.start_time, sp.end_time, sp.content_id
FROM student_plans sp
JOIN plan_groups pg ON pg.id = sp.plan_group_id
WHERE pg.student_id = $1 AND sp.is_active = true
  AND sp.plan_date >= $2 AND sp.plan_date <= $3
ORDER BY sp.plan_date, sp.start_time`
	var plans []models.ExistingPlan
	if err := r.db.SelectContext(ctx, &plans, query, studentID, from, to); err != nil {
		return nil, fmt.Errorf("list existing plans: %w", err)
	}
	return plans, nil
}
