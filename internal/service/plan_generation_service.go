package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/seonlab/studyplan-api/internal/dto"
	"github.com/seonlab/studyplan-api/internal/engine"
	"github.com/seonlab/studyplan-api/internal/models"
	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
	"github.com/seonlab/studyplan-api/pkg/lock"
)

type planGroupReader interface {
	FindByID(ctx context.Context, id string) (*models.PlanGroup, error)
	ListWeeklyBlocks(ctx context.Context, planGroupID string) ([]models.WeeklyBlock, error)
	ListExclusions(ctx context.Context, planGroupID string) ([]models.ExclusionEntry, error)
	ListAcademyCommitments(ctx context.Context, planGroupID string) ([]models.AcademyCommitment, error)
}

type planRepository interface {
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, plans []models.StudentPlan) error
	DeleteByGeneration(ctx context.Context, exec sqlx.ExtContext, planGroupID, generationID string) error
	DeactivateByPlanGroup(ctx context.Context, exec sqlx.ExtContext, planGroupID string) error
	ListActiveByPlanGroup(ctx context.Context, planGroupID, from, to string, limit, offset int) ([]models.StudentPlan, int, error)
	ListExistingByStudent(ctx context.Context, studentID, from, to string) ([]models.ExistingPlan, error)
}

type contentResolver interface {
	Resolve(ctx context.Context, studentID string, refs []models.ContentRef) ([]models.ContentInfo, []models.ContentCopyFailure, error)
}

type riskIndexReader interface {
	MapByStudent(ctx context.Context, studentID string) (map[string]models.SubjectRiskIndex, error)
}

type generationTxProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generationMetrics interface {
	ObserveGeneration(outcome string, placedUnits, dockedUnits int, duration time.Duration)
}

// PlanGenerationConfig governs generation behaviour; plan groups and
// individual requests may override the strategies.
type PlanGenerationConfig struct {
	PlacementStrategy  models.PlacementStrategy
	AllocationStrategy models.AllocationStrategy
	MinRangeMinutes    int
	BatchSize          int
	LockTTL            time.Duration
	PreviewTTL         time.Duration
}

// PlanGenerationService orchestrates one generation run: resolve inputs,
// compute the schedule and availability, order and place content, build and
// validate payloads, and persist them under a plan-group lock.
type PlanGenerationService struct {
	groups   planGroupReader
	plans    planRepository
	contents contentResolver
	risks    riskIndexReader
	locks    lock.Provider
	tx       generationTxProvider
	builder  *PlanPayloadBuilder
	metrics  generationMetrics
	validate *validator.Validate
	logger   *zap.Logger
	cfg      PlanGenerationConfig
	store    *planProposalStore
	dock     *dockLedger
}

// NewPlanGenerationService wires generation dependencies.
func NewPlanGenerationService(
	groups planGroupReader,
	plans planRepository,
	contents contentResolver,
	risks riskIndexReader,
	locks lock.Provider,
	tx generationTxProvider,
	metrics generationMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PlanGenerationConfig,
) *PlanGenerationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MinRangeMinutes <= 0 {
		cfg.MinRangeMinutes = 1
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	if cfg.PreviewTTL <= 0 {
		cfg.PreviewTTL = 30 * time.Minute
	}
	return &PlanGenerationService{
		groups:   groups,
		plans:    plans,
		contents: contents,
		risks:    risks,
		locks:    locks,
		tx:       tx,
		builder:  NewPlanPayloadBuilder(),
		metrics:  metrics,
		validate: validate,
		logger:   logger,
		cfg:      cfg,
		store:    newPlanProposalStore(cfg.PreviewTTL),
		dock:     newDockLedger(),
	}
}

// runArtifacts carries one computed run between preview and persistence.
type runArtifacts struct {
	group        *models.PlanGroup
	schedule     []models.DailySchedule
	before       []models.DailyAvailability
	outcome      engine.PlacementOutcome
	contents     []models.ContentInfo
	copyFailures []models.ContentCopyFailure
}

// Generate runs the full pipeline and persists the result. When the request
// references a previously previewed proposal, that run's outcome is
// persisted as-is instead of being recomputed.
func (s *PlanGenerationService) Generate(ctx context.Context, planGroupID string, req dto.GeneratePlansRequest) (*dto.GeneratePlansResponse, error) {
	started := time.Now()
	if err := s.validate.Struct(&req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation request")
	}

	group, err := s.findGroup(ctx, planGroupID)
	if err != nil {
		return nil, err
	}

	token, err := s.locks.Acquire(ctx, lockKey(planGroupID), s.cfg.LockTTL)
	if err != nil {
		s.metrics.ObserveGeneration("lock_timeout", 0, 0, time.Since(started))
		return nil, err
	}
	defer func() {
		if releaseErr := s.locks.Release(ctx, token); releaseErr != nil {
			s.logger.Warn("lock release failed", zap.String("plan_group_id", planGroupID), zap.Error(releaseErr))
		}
	}()

	artifacts, err := s.resolveArtifacts(ctx, group, req)
	if err != nil {
		s.metrics.ObserveGeneration("failed", 0, 0, time.Since(started))
		return nil, err
	}

	generationID := uuid.NewString()
	payloads := s.builder.Build(planGroupID, generationID, group.PeriodStart, artifacts.outcome.Placements, artifacts.contents, artifacts.schedule)
	if err := s.builder.Validate(payloads, artifacts.contents, artifacts.outcome.Docked); err != nil {
		s.metrics.ObserveGeneration("failed", 0, 0, time.Since(started))
		return nil, err
	}

	if err := s.persist(ctx, planGroupID, generationID, payloads, req.Regenerate); err != nil {
		s.metrics.ObserveGeneration("insert_failed", 0, 0, time.Since(started))
		return nil, err
	}

	if req.ProposalID != "" {
		s.store.Delete(req.ProposalID)
	}
	s.dock.Set(planGroupID, generationID, artifacts.outcome.Docked)

	placedAmount := 0
	for _, p := range artifacts.outcome.Placements {
		placedAmount += p.Amount
	}
	dockedAmount := 0
	for _, d := range artifacts.outcome.Docked {
		dockedAmount += d.RemainingAmount
	}
	s.metrics.ObserveGeneration("success", placedAmount, dockedAmount, time.Since(started))
	s.logger.Info("plans generated",
		zap.String("plan_group_id", planGroupID),
		zap.String("generation_id", generationID),
		zap.Int("rows", len(payloads)),
		zap.Int("docked", len(artifacts.outcome.Docked)))

	return &dto.GeneratePlansResponse{
		PlanGroupID:  planGroupID,
		GenerationID: generationID,
		PlacedCount:  len(payloads),
		PlacedAmount: placedAmount,
		Placements:   placementViews(artifacts.outcome.Placements),
		Docked:       artifacts.outcome.Docked,
		CopyFailures: artifacts.copyFailures,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// Preview runs the full pipeline without writes and parks the outcome under
// a proposal ID so a later Generate call can persist it unchanged.
func (s *PlanGenerationService) Preview(ctx context.Context, planGroupID string, req dto.GeneratePlansRequest) (*dto.PreviewPlansResponse, error) {
	if err := s.validate.Struct(&req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preview request")
	}
	group, err := s.findGroup(ctx, planGroupID)
	if err != nil {
		return nil, err
	}
	artifacts, err := s.computeRun(ctx, group, req)
	if err != nil {
		return nil, err
	}

	proposalID := uuid.NewString()
	expiresAt := time.Now().Add(s.cfg.PreviewTTL)
	s.store.Save(planProposal{
		ProposalID:  proposalID,
		PlanGroupID: planGroupID,
		RequestedAt: time.Now(),
		Artifacts:   artifacts,
	})

	return &dto.PreviewPlansResponse{
		ProposalID:   proposalID,
		ExpiresAt:    expiresAt,
		Placements:   placementViews(artifacts.outcome.Placements),
		Docked:       artifacts.outcome.Docked,
		CopyFailures: artifacts.copyFailures,
		Breakdown:    buildBreakdown(artifacts),
		Summary:      engine.SummarizeSchedule(artifacts.schedule),
	}, nil
}

// PreviewSchedule exposes the schedule calculator standalone: no contents,
// no placement, just the computed per-day availability and totals.
func (s *PlanGenerationService) PreviewSchedule(ctx context.Context, planGroupID string, req dto.SchedulePreviewRequest) (*dto.SchedulePreviewResponse, error) {
	if err := s.validate.Struct(&req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule preview request")
	}
	group, err := s.findGroup(ctx, planGroupID)
	if err != nil {
		return nil, err
	}
	input, err := s.scheduleInput(ctx, group, req.WeeklyBlocks, req.Exclusions, req.AcademyCommitments)
	if err != nil {
		return nil, err
	}
	schedule, err := engine.CalculateSchedule(input)
	if err != nil {
		return nil, err
	}
	return &dto.SchedulePreviewResponse{
		Days:    schedule,
		Summary: engine.SummarizeSchedule(schedule),
	}, nil
}

// ListPlans returns the active generated rows of a plan group.
func (s *PlanGenerationService) ListPlans(ctx context.Context, planGroupID string, req dto.ListPlansRequest) ([]models.StudentPlan, models.Pagination, error) {
	if _, err := s.findGroup(ctx, planGroupID); err != nil {
		return nil, models.Pagination{}, err
	}
	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	rows, total, err := s.plans.ListActiveByPlanGroup(ctx, planGroupID, req.From, req.To, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, models.Pagination{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list plans")
	}
	return rows, models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ListDocked returns the docked items recorded by the latest persisted run.
func (s *PlanGenerationService) ListDocked(ctx context.Context, planGroupID string) (*dto.DockedPlansResponse, error) {
	if _, err := s.findGroup(ctx, planGroupID); err != nil {
		return nil, err
	}
	generationID, items := s.dock.Get(planGroupID)
	return &dto.DockedPlansResponse{
		PlanGroupID:  planGroupID,
		GenerationID: generationID,
		Items:        items,
	}, nil
}

func (s *PlanGenerationService) findGroup(ctx context.Context, planGroupID string) (*models.PlanGroup, error) {
	group, err := s.groups.FindByID(ctx, planGroupID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "plan group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load plan group")
	}
	return group, nil
}

// resolveArtifacts reuses a parked proposal when one is referenced,
// otherwise computes a fresh run. The lock held by the caller covers one plan
// group only, so a proposal must be re-checked against rows another of the
// student's plan groups may have committed since the preview ran.
func (s *PlanGenerationService) resolveArtifacts(ctx context.Context, group *models.PlanGroup, req dto.GeneratePlansRequest) (*runArtifacts, error) {
	if req.ProposalID == "" {
		return s.computeRun(ctx, group, req)
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal expired or unknown")
	}
	if proposal.PlanGroupID != group.ID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "proposal belongs to a different plan group")
	}

	existing, err := s.plans.ListExistingByStudent(ctx, group.StudentID, group.PeriodStart, group.PeriodEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load existing plans")
	}
	if engine.OverlapsExisting(proposal.Artifacts.outcome.Placements, existing) {
		s.store.Delete(req.ProposalID)
		return nil, appErrors.Clone(appErrors.ErrValidation, "proposal conflicts with plans persisted after preview")
	}
	return proposal.Artifacts, nil
}

func (s *PlanGenerationService) computeRun(ctx context.Context, group *models.PlanGroup, req dto.GeneratePlansRequest) (*runArtifacts, error) {
	if len(req.Contents) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "contents are required")
	}

	resolved, copyFailures, err := s.contents.Resolve(ctx, group.StudentID, req.Contents)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resolve contents")
	}
	if len(resolved) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no resolvable contents")
	}

	input, err := s.scheduleInput(ctx, group, req.WeeklyBlocks, req.Exclusions, req.AcademyCommitments)
	if err != nil {
		return nil, err
	}
	schedule, err := engine.CalculateSchedule(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.plans.ListExistingByStudent(ctx, group.StudentID, group.PeriodStart, group.PeriodEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load existing plans")
	}
	before := engine.ComputeAvailability(schedule, existing)

	allocation := s.allocationStrategy(group, req)
	riskIndex := map[string]models.SubjectRiskIndex{}
	if allocation == models.AllocationRiskBased {
		riskIndex, err = s.risks.MapByStudent(ctx, group.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load risk indices")
		}
	}
	ordered := engine.NewAllocationStrategy(allocation).SortContents(resolved, riskIndex)

	outcome := engine.PlaceContents(before, ordered, engine.PlacementConfig{
		Strategy:        s.placementStrategy(group, req),
		MinRangeMinutes: s.cfg.MinRangeMinutes,
	})

	return &runArtifacts{
		group:        group,
		schedule:     schedule,
		before:       before,
		outcome:      outcome,
		contents:     resolved,
		copyFailures: copyFailures,
	}, nil
}

// persist writes the payload rows in bounded batches inside one
// transaction. Any failure rolls back and runs the compensating delete so
// the generation never leaves partial state behind.
func (s *PlanGenerationService) persist(ctx context.Context, planGroupID, generationID string, payloads []models.StudentPlan, regenerate bool) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInsertFailed.Code, appErrors.ErrInsertFailed.Status, appErrors.ErrInsertFailed.Message)
	}

	fail := func(cause error) error {
		_ = tx.Rollback()
		if err := s.plans.DeleteByGeneration(ctx, nil, planGroupID, generationID); err != nil {
			s.logger.Error("compensating delete failed",
				zap.String("plan_group_id", planGroupID),
				zap.String("generation_id", generationID),
				zap.Error(err))
		}
		return appErrors.Wrap(cause, appErrors.ErrInsertFailed.Code, appErrors.ErrInsertFailed.Status, appErrors.ErrInsertFailed.Message)
	}

	if regenerate {
		if err := s.plans.DeactivateByPlanGroup(ctx, tx, planGroupID); err != nil {
			return fail(err)
		}
	}
	for start := 0; start < len(payloads); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(payloads) {
			end = len(payloads)
		}
		if err := s.plans.InsertBatch(ctx, tx, payloads[start:end]); err != nil {
			return fail(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fail(err)
	}
	return nil
}

func (s *PlanGenerationService) scheduleInput(ctx context.Context, group *models.PlanGroup, blocks []dto.WeeklyBlockRequest, exclusions []dto.ExclusionRequest, commitments []dto.AcademyCommitmentRequest) (engine.ScheduleInput, error) {
	input := engine.ScheduleInput{
		PeriodStart:     group.PeriodStart,
		PeriodEnd:       group.PeriodEnd,
		MinRangeMinutes: s.cfg.MinRangeMinutes,
	}

	if len(blocks) > 0 {
		input.WeeklyBlocks = weeklyBlocksFromDTO(blocks)
	} else {
		stored, err := s.groups.ListWeeklyBlocks(ctx, group.ID)
		if err != nil {
			return engine.ScheduleInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load weekly blocks")
		}
		input.WeeklyBlocks = stored
	}

	if len(exclusions) > 0 {
		input.Exclusions = exclusionsFromDTO(exclusions)
	} else {
		stored, err := s.groups.ListExclusions(ctx, group.ID)
		if err != nil {
			return engine.ScheduleInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load exclusions")
		}
		input.Exclusions = stored
	}

	if len(commitments) > 0 {
		input.AcademyCommitments = commitmentsFromDTO(commitments)
	} else {
		stored, err := s.groups.ListAcademyCommitments(ctx, group.ID)
		if err != nil {
			return engine.ScheduleInput{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load academy commitments")
		}
		input.AcademyCommitments = stored
	}
	return input, nil
}

func (s *PlanGenerationService) placementStrategy(group *models.PlanGroup, req dto.GeneratePlansRequest) models.PlacementStrategy {
	if req.PlacementStrategy != "" {
		return req.PlacementStrategy
	}
	if group.PlacementStrategy != nil && *group.PlacementStrategy != "" {
		return *group.PlacementStrategy
	}
	return s.cfg.PlacementStrategy
}

func (s *PlanGenerationService) allocationStrategy(group *models.PlanGroup, req dto.GeneratePlansRequest) models.AllocationStrategy {
	if req.AllocationStrategy != "" {
		return req.AllocationStrategy
	}
	if group.AllocationStrategy != nil && *group.AllocationStrategy != "" {
		return *group.AllocationStrategy
	}
	return s.cfg.AllocationStrategy
}

func lockKey(planGroupID string) string {
	return "plan-group:" + planGroupID
}

func weeklyBlocksFromDTO(blocks []dto.WeeklyBlockRequest) []models.WeeklyBlock {
	out := make([]models.WeeklyBlock, len(blocks))
	for i, b := range blocks {
		out[i] = models.WeeklyBlock{DayOfWeek: b.DayOfWeek, Start: b.Start, End: b.End, SlotType: b.SlotType}
	}
	return out
}

func exclusionsFromDTO(entries []dto.ExclusionRequest) []models.ExclusionEntry {
	out := make([]models.ExclusionEntry, len(entries))
	for i, e := range entries {
		out[i] = models.ExclusionEntry{Date: e.Date, Type: e.Type, Reason: e.Reason}
	}
	return out
}

func commitmentsFromDTO(commitments []dto.AcademyCommitmentRequest) []models.AcademyCommitment {
	out := make([]models.AcademyCommitment, len(commitments))
	for i, c := range commitments {
		out[i] = models.AcademyCommitment{
			DayOfWeek:         c.DayOfWeek,
			Start:             c.Start,
			End:               c.End,
			TravelTimeMinutes: c.TravelTimeMinutes,
			AcademyName:       c.AcademyName,
		}
	}
	return out
}

func placementViews(placements []models.PlacementResult) []dto.PlacementView {
	views := make([]dto.PlacementView, len(placements))
	for i, p := range placements {
		views[i] = dto.PlacementView{
			ContentID:        p.ContentID,
			Date:             p.Date,
			StartTime:        p.StartTime,
			EndTime:          p.EndTime,
			Amount:           p.Amount,
			TimeSlotType:     p.TimeSlotType,
			AllocationReason: p.AllocationReason,
		}
	}
	return views
}

// buildBreakdown pairs each day's capacity before placement with what would
// remain afterwards, plus the placements themselves.
func buildBreakdown(artifacts *runArtifacts) []dto.DailyBreakdown {
	placedByDate := make(map[string][]models.PlacementResult)
	placedMinutes := make(map[string]int)
	for _, p := range artifacts.outcome.Placements {
		placedByDate[p.Date] = append(placedByDate[p.Date], p)
		placedMinutes[p.Date] += p.Amount
	}

	out := make([]dto.DailyBreakdown, 0, len(artifacts.before))
	for _, day := range artifacts.before {
		beforeMinutes := 0
		for _, r := range day.Ranges {
			beforeMinutes += engine.RangeMinutes(r.TimeRange)
		}
		out = append(out, dto.DailyBreakdown{
			Date:          day.Date,
			DayType:       day.DayType,
			BeforeMinutes: beforeMinutes,
			AfterMinutes:  beforeMinutes - placedMinutes[day.Date],
			Placements:    placementViews(placedByDate[day.Date]),
		})
	}
	return out
}

// planProposalStore parks previewed runs until they are persisted or expire.
type planProposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]planProposal
}

type planProposal struct {
	ProposalID  string
	PlanGroupID string
	RequestedAt time.Time
	Artifacts   *runArtifacts
}

func newPlanProposalStore(ttl time.Duration) *planProposalStore {
	return &planProposalStore{ttl: ttl, items: make(map[string]planProposal)}
}

func (s *planProposalStore) Save(proposal planProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *planProposalStore) Get(id string) (planProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return planProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return planProposal{}, false
	}
	return proposal, true
}

func (s *planProposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

// dockLedger remembers the docked items of each plan group's latest
// persisted run. In-memory: the dock is advisory reporting, not durable
// state.
type dockLedger struct {
	mu    sync.RWMutex
	items map[string]dockRecord
}

type dockRecord struct {
	GenerationID string
	Items        []models.DockedPlanInfo
}

func newDockLedger() *dockLedger {
	return &dockLedger{items: make(map[string]dockRecord)}
}

func (l *dockLedger) Set(planGroupID, generationID string, items []models.DockedPlanInfo) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[planGroupID] = dockRecord{GenerationID: generationID, Items: items}
}

func (l *dockLedger) Get(planGroupID string) (string, []models.DockedPlanInfo) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	record := l.items[planGroupID]
	return record.GenerationID, record.Items
}
