package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seonlab/studyplan-api/internal/dto"
	appErrors "github.com/seonlab/studyplan-api/pkg/errors"
	"github.com/seonlab/studyplan-api/pkg/jobs"
)

const jobTypeGeneratePlans = "generate_plans"

// generationJobPayload is the queued unit of one async generation request.
type generationJobPayload struct {
	PlanGroupID string
	Request     dto.GeneratePlansRequest
}

// AsyncGenerationService pushes generation runs onto the worker pool so
// batch operations return immediately. Lock timeouts are retried by the
// queue; every other failure is final.
type AsyncGenerationService struct {
	generator *PlanGenerationService
	queue     *jobs.Queue
	logger    *zap.Logger
}

// AsyncGenerationConfig tunes the worker pool.
type AsyncGenerationConfig struct {
	Workers    int
	MaxRetries int
}

// NewAsyncGenerationService builds the queue-backed wrapper. Start must be
// called before jobs are accepted.
func NewAsyncGenerationService(generator *PlanGenerationService, cfg AsyncGenerationConfig, logger *zap.Logger) *AsyncGenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AsyncGenerationService{generator: generator, logger: logger}
	s.queue = jobs.NewQueue(jobTypeGeneratePlans, s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
		Retryable:  appErrors.IsRetryable,
	})
	return s
}

// Start launches the workers.
func (s *AsyncGenerationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *AsyncGenerationService) Stop() {
	s.queue.Stop()
}

// Enqueue accepts a generation request for background execution.
func (s *AsyncGenerationService) Enqueue(planGroupID string, req dto.GeneratePlansRequest) (*dto.AsyncGenerateResponse, error) {
	jobID := uuid.NewString()
	err := s.queue.Enqueue(jobs.Job{
		ID:      jobID,
		Type:    jobTypeGeneratePlans,
		Payload: generationJobPayload{PlanGroupID: planGroupID, Request: req},
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue generation job")
	}
	return &dto.AsyncGenerateResponse{
		JobID:       jobID,
		PlanGroupID: planGroupID,
		Status:      "queued",
	}, nil
}

func (s *AsyncGenerationService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(generationJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	resp, err := s.generator.Generate(ctx, payload.PlanGroupID, payload.Request)
	if err != nil {
		return err
	}
	s.logger.Info("async generation finished",
		zap.String("job_id", job.ID),
		zap.String("plan_group_id", payload.PlanGroupID),
		zap.String("generation_id", resp.GenerationID),
		zap.Int("placed", resp.PlacedCount),
		zap.Int("docked", len(resp.Docked)))
	return nil
}
