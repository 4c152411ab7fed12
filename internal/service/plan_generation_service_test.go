package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seonlab/studyplan-api/internal/dto"
	"github.com/seonlab/studyplan-api/internal/models"
	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
	"github.com/seonlab/studyplan-api/pkg/lock"
)

type fakeGroupReader struct {
	group       *models.PlanGroup
	blocks      []models.WeeklyBlock
	exclusions  []models.ExclusionEntry
	commitments []models.AcademyCommitment
}

func (f *fakeGroupReader) FindByID(_ context.Context, id string) (*models.PlanGroup, error) {
	if f.group == nil || f.group.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.group, nil
}

func (f *fakeGroupReader) ListWeeklyBlocks(context.Context, string) ([]models.WeeklyBlock, error) {
	return f.blocks, nil
}

func (f *fakeGroupReader) ListExclusions(context.Context, string) ([]models.ExclusionEntry, error) {
	return f.exclusions, nil
}

func (f *fakeGroupReader) ListAcademyCommitments(context.Context, string) ([]models.AcademyCommitment, error) {
	return f.commitments, nil
}

type fakePlanRepo struct {
	existing    []models.ExistingPlan
	inserted    []models.StudentPlan
	insertErr   error
	deleted     []string
	deactivated []string
}

func (f *fakePlanRepo) InsertBatch(_ context.Context, _ sqlx.ExtContext, plans []models.StudentPlan) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, plans...)
	return nil
}

func (f *fakePlanRepo) DeleteByGeneration(_ context.Context, _ sqlx.ExtContext, planGroupID, generationID string) error {
	f.deleted = append(f.deleted, planGroupID+"/"+generationID)
	return nil
}

func (f *fakePlanRepo) DeactivateByPlanGroup(_ context.Context, _ sqlx.ExtContext, planGroupID string) error {
	f.deactivated = append(f.deactivated, planGroupID)
	return nil
}

func (f *fakePlanRepo) ListActiveByPlanGroup(context.Context, string, string, string, int, int) ([]models.StudentPlan, int, error) {
	return f.inserted, len(f.inserted), nil
}

func (f *fakePlanRepo) ListExistingByStudent(context.Context, string, string, string) ([]models.ExistingPlan, error) {
	return f.existing, nil
}

type fakeResolver struct {
	contents []models.ContentInfo
	failures []models.ContentCopyFailure
}

func (f *fakeResolver) Resolve(context.Context, string, []models.ContentRef) ([]models.ContentInfo, []models.ContentCopyFailure, error) {
	return f.contents, f.failures, nil
}

type fakeRisks struct {
	index map[string]models.SubjectRiskIndex
}

func (f *fakeRisks) MapByStudent(context.Context, string) (map[string]models.SubjectRiskIndex, error) {
	return f.index, nil
}

type noopMetrics struct{}

func (noopMetrics) ObserveGeneration(string, int, int, time.Duration) {}

type generationFixture struct {
	service *PlanGenerationService
	groups  *fakeGroupReader
	plans   *fakePlanRepo
	mock    sqlmock.Sqlmock
	cleanup func()
}

func newGenerationFixture(t *testing.T, cfg PlanGenerationConfig) *generationFixture {
	t.Helper()
	rawDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	db := sqlx.NewDb(rawDB, "sqlmock")

	groups := &fakeGroupReader{
		group: &models.PlanGroup{
			ID:          "group-1",
			TenantID:    "tenant-1",
			StudentID:   "student-1",
			Name:        "3월 학습계획",
			PeriodStart: "2025-03-03",
			PeriodEnd:   "2025-03-07",
		},
		blocks: []models.WeeklyBlock{
			{DayOfWeek: 1, Start: "09:00", End: "11:00", SlotType: models.SlotTypeStudy},
			{DayOfWeek: 2, Start: "09:00", End: "11:00", SlotType: models.SlotTypeStudy},
			{DayOfWeek: 3, Start: "09:00", End: "11:00", SlotType: models.SlotTypeStudy},
			{DayOfWeek: 4, Start: "09:00", End: "11:00", SlotType: models.SlotTypeStudy},
			{DayOfWeek: 5, Start: "09:00", End: "11:00", SlotType: models.SlotTypeStudy},
		},
	}
	plans := &fakePlanRepo{}
	resolver := &fakeResolver{
		contents: []models.ContentInfo{
			{ID: "content-1", Type: models.ContentTypeBook, Title: "수학의 정석", Subject: "math", TotalAmount: 300},
		},
	}

	if cfg.PlacementStrategy == "" {
		cfg.PlacementStrategy = models.PlacementFirstFit
	}
	if cfg.AllocationStrategy == "" {
		cfg.AllocationStrategy = models.AllocationBalanced
	}

	service := NewPlanGenerationService(
		groups,
		plans,
		resolver,
		&fakeRisks{},
		lock.NewMemoryProvider(time.Second),
		db,
		noopMetrics{},
		nil,
		zap.NewNop(),
		cfg,
	)
	return &generationFixture{
		service: service,
		groups:  groups,
		plans:   plans,
		mock:    mock,
		cleanup: func() { rawDB.Close() },
	}
}

func generateRequest() dto.GeneratePlansRequest {
	return dto.GeneratePlansRequest{
		Contents: []models.ContentRef{{ContentID: "content-1", Type: models.ContentTypeBook}},
	}
}

func TestPlanGenerationServiceGenerateSuccess(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{})
	defer fx.cleanup()

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background(), "group-1", generateRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.GenerationID)
	assert.Equal(t, 300, resp.PlacedAmount)
	assert.Empty(t, resp.Docked)
	require.Len(t, fx.plans.inserted, 3)

	first := fx.plans.inserted[0]
	assert.Equal(t, "2025-03-03", first.PlanDate)
	assert.Equal(t, "09:00", first.StartTime)
	assert.Equal(t, "11:00", first.EndTime)
	assert.Equal(t, "수학의 정석", first.ContentTitle)
	assert.Equal(t, 1, first.WeekNumber)

	last := fx.plans.inserted[2]
	assert.Equal(t, "2025-03-05", last.PlanDate)
	assert.Equal(t, "10:00", last.EndTime)

	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestPlanGenerationServiceGenerateUnknownGroup(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{})
	defer fx.cleanup()

	_, err := fx.service.Generate(context.Background(), "missing", generateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPlanGenerationServiceGenerateRequiresContents(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{})
	defer fx.cleanup()

	_, err := fx.service.Generate(context.Background(), "group-1", dto.GeneratePlansRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPlanGenerationServiceGenerateLockHeld(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{LockTTL: time.Minute})
	defer fx.cleanup()

	// Hold the lock with a different provider handle to simulate a
	// concurrent run on the same plan group.
	held, err := fx.service.locks.Acquire(context.Background(), lockKey("group-1"), time.Minute)
	require.NoError(t, err)
	defer func() { _ = fx.service.locks.Release(context.Background(), held) }()

	_, err = fx.service.Generate(context.Background(), "group-1", generateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLockTimeout.Code, appErrors.FromError(err).Code)
	assert.True(t, appErrors.IsRetryable(err))
}

func TestPlanGenerationServiceGenerateInsertFailureCompensates(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{})
	defer fx.cleanup()
	fx.plans.insertErr = errors.New("connection reset")

	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	_, err := fx.service.Generate(context.Background(), "group-1", generateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInsertFailed.Code, appErrors.FromError(err).Code)
	require.Len(t, fx.plans.deleted, 1, "compensating delete must run")
	assert.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestPlanGenerationServiceGenerateRegenerateDeactivates(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{})
	defer fx.cleanup()

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	req := generateRequest()
	req.Regenerate = true
	_, err := fx.service.Generate(context.Background(), "group-1", req)
	require.NoError(t, err)
	assert.Equal(t, []string{"group-1"}, fx.plans.deactivated)
}

func TestPlanGenerationServiceGenerateBatchesInserts(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{BatchSize: 2})
	defer fx.cleanup()

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background(), "group-1", generateRequest())
	require.NoError(t, err)
	// 3 rows, batch size 2: both batches land.
	assert.Equal(t, 3, resp.PlacedCount)
	require.Len(t, fx.plans.inserted, 3)
}

func TestPlanGenerationServicePreviewAndPersistProposal(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{})
	defer fx.cleanup()

	preview, err := fx.service.Preview(context.Background(), "group-1", generateRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, preview.ProposalID)
	assert.Len(t, preview.Placements, 3)
	assert.Empty(t, fx.plans.inserted, "preview must not write")

	require.Len(t, preview.Breakdown, 5)
	assert.Equal(t, 120, preview.Breakdown[0].BeforeMinutes)
	assert.Equal(t, 0, preview.Breakdown[0].AfterMinutes)
	assert.Equal(t, 120, preview.Breakdown[4].AfterMinutes)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background(), "group-1", dto.GeneratePlansRequest{ProposalID: preview.ProposalID})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.PlacedCount)
	require.Len(t, fx.plans.inserted, 3)

	// Proposal is single-use.
	_, err = fx.service.Generate(context.Background(), "group-1", dto.GeneratePlansRequest{ProposalID: preview.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPlanGenerationServiceStaleProposalRejected(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{})
	defer fx.cleanup()

	preview, err := fx.service.Preview(context.Background(), "group-1", generateRequest())
	require.NoError(t, err)
	require.NotEmpty(t, preview.Placements)

	// Another plan group of the same student commits a row on the previewed
	// minutes between preview and persist.
	fx.plans.existing = []models.ExistingPlan{{
		Date:      preview.Placements[0].Date,
		StartTime: preview.Placements[0].StartTime,
		EndTime:   preview.Placements[0].EndTime,
		ContentID: "other-group-content",
	}}

	_, err = fx.service.Generate(context.Background(), "group-1", dto.GeneratePlansRequest{ProposalID: preview.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, fx.plans.inserted, "conflicting proposal must not persist")

	// The stale proposal is dropped, forcing a fresh preview.
	_, err = fx.service.Generate(context.Background(), "group-1", dto.GeneratePlansRequest{ProposalID: preview.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPlanGenerationServicePreviewExclusionShiftsPlacement(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{})
	defer fx.cleanup()
	fx.groups.exclusions = []models.ExclusionEntry{{Date: "2025-03-05", Type: models.ExclusionHoliday}}

	preview, err := fx.service.Preview(context.Background(), "group-1", generateRequest())
	require.NoError(t, err)

	for _, placement := range preview.Placements {
		assert.NotEqual(t, "2025-03-05", placement.Date)
	}
	assert.Equal(t, "2025-03-06", preview.Placements[2].Date)
	assert.Equal(t, 1, preview.Summary.ExcludedDays)
}

func TestPlanGenerationServiceDockedLedger(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{})
	defer fx.cleanup()

	// 900 units against 600 available minutes docks 300.
	fx.service.contents.(*fakeResolver).contents = []models.ContentInfo{
		{ID: "content-1", Type: models.ContentTypeBook, Title: "수학의 정석", Subject: "math", TotalAmount: 900},
	}

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	resp, err := fx.service.Generate(context.Background(), "group-1", generateRequest())
	require.NoError(t, err)
	require.Len(t, resp.Docked, 1)
	assert.Equal(t, 300, resp.Docked[0].RemainingAmount)

	docked, err := fx.service.ListDocked(context.Background(), "group-1")
	require.NoError(t, err)
	assert.Equal(t, resp.GenerationID, docked.GenerationID)
	require.Len(t, docked.Items, 1)
	assert.Equal(t, 300, docked.Items[0].RemainingAmount)
}

func TestPlanGenerationServicePreviewScheduleStandalone(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{})
	defer fx.cleanup()

	resp, err := fx.service.PreviewSchedule(context.Background(), "group-1", dto.SchedulePreviewRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Days, 5)
	assert.Equal(t, 600, resp.Summary.TotalAvailableMinutes)
}

func TestPlanGenerationServiceListPlansPagination(t *testing.T) {
	fx := newGenerationFixture(t, PlanGenerationConfig{})
	defer fx.cleanup()

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	_, err := fx.service.Generate(context.Background(), "group-1", generateRequest())
	require.NoError(t, err)

	rows, pagination, err := fx.service.ListPlans(context.Background(), "group-1", dto.ListPlansRequest{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 3, pagination.TotalCount)
}
