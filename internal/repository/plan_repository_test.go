package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seonlab/studyplan-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func samplePlan(contentID, date string) models.StudentPlan {
	return models.StudentPlan{
		PlanGroupID:    "group-1",
		GenerationID:   "gen-1",
		ContentID:      contentID,
		ContentType:    models.ContentTypeBook,
		ContentTitle:   "수학의 정석",
		ContentSubject: "math",
		PlanDate:       date,
		StartTime:      "09:00",
		EndTime:        "10:00",
		Amount:         60,
		TimeSlotType:   models.SlotTypeStudy,
		DayType:        models.DayTypeStudy,
		WeekNumber:     1,
	}
}

func TestPlanRepositoryInsertBatchAssignsIdentifiers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_plans")).
		WillReturnResult(sqlmock.NewResult(1, 2))

	plans := []models.StudentPlan{
		samplePlan("c-1", "2025-03-03"),
		samplePlan("c-2", "2025-03-04"),
	}
	require.NoError(t, repo.InsertBatch(context.Background(), nil, plans))

	for _, plan := range plans {
		assert.NotEmpty(t, plan.ID)
		assert.True(t, plan.IsActive)
		assert.False(t, plan.CreatedAt.IsZero())
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryInsertBatchEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	require.NoError(t, repo.InsertBatch(context.Background(), nil, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryInsertBatchPropagatesFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_plans")).
		WillReturnError(errors.New("deadlock detected"))

	err := repo.InsertBatch(context.Background(), nil, []models.StudentPlan{samplePlan("c-1", "2025-03-03")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert student plans")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryDeleteByGeneration(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM student_plans WHERE plan_group_id = $1 AND generation_id = $2")).
		WithArgs("group-1", "gen-1").
		WillReturnResult(sqlmock.NewResult(0, 5))

	require.NoError(t, repo.DeleteByGeneration(context.Background(), nil, "group-1", "gen-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryDeactivateByPlanGroup(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE student_plans SET is_active = false WHERE plan_group_id = $1 AND is_active = true")).
		WithArgs("group-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeactivateByPlanGroup(context.Background(), nil, "group-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryListActiveByPlanGroup(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM student_plans")).
		WithArgs("group-1", "2025-03-01", "2025-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows([]string{
		"id", "plan_group_id", "generation_id", "content_id", "content_type", "content_title",
		"content_subject", "plan_date", "start_time", "end_time", "amount", "time_slot_type",
		"day_type", "week_number", "is_active", "created_at",
	}).AddRow("plan-1", "group-1", "gen-1", "c-1", "book", "수학의 정석",
		"math", "2025-03-03", "09:00", "10:00", 60, "study",
		"study", 1, true, time.Now())
	mock.ExpectQuery("SELECT id, plan_group_id, generation_id").
		WithArgs("group-1", "2025-03-01", "2025-03-31", 20, 0).
		WillReturnRows(rows)

	plans, total, err := repo.ListActiveByPlanGroup(context.Background(), "group-1", "2025-03-01", "2025-03-31", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, plans, 1)
	assert.Equal(t, "c-1", plans[0].ContentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryListExistingByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	rows := sqlmock.NewRows([]string{"plan_date", "start_time", "end_time", "content_id"}).
		AddRow("2025-03-03", "09:00", "10:00", "c-1")
	mock.ExpectQuery("SELECT sp.plan_date, sp.start_time, sp.end_time, sp.content_id").
		WithArgs("student-1", "2025-03-01", "2025-03-31").
		WillReturnRows(rows)

	existing, err := repo.ListExistingByStudent(context.Background(), "student-1", "2025-03-01", "2025-03-31")
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.Equal(t, "2025-03-03", existing[0].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}
