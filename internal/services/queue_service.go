package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/launchpad-api/internal/metrics"
	"github.com/rxtech-lab/launchpad-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultDrainInterval is how often the background loop polls for queued
// jobs when no enqueue has woken it.
const DefaultDrainInterval = 2 * time.Second

// ErrJobNotClaimable is returned when a job is already being processed or
// has reached a terminal state.
var ErrJobNotClaimable = errors.New("job is not in the queued state")

// QueueService defers deployment pipeline runs onto an asynchronous queue.
// Enqueuing never blocks on deployment; callers poll by job id.
type QueueService interface {
	Enqueue(ctx context.Context, req *models.DeploymentRequest, priority models.JobPriority) (string, error)
	GetJob(jobID string) (*models.QueuedJob, error)
	// ProcessJob claims and runs a single job inline.
	ProcessJob(ctx context.Context, jobID string) error
	Start(ctx context.Context)
	Stop()
}

type queueService struct {
	db       *gorm.DB
	pipeline PipelineService
	logger   *zap.Logger
	interval time.Duration

	wake   chan struct{}
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewQueueService creates a new QueueService draining into the given
// pipeline.
func NewQueueService(db *gorm.DB, pipeline PipelineService, logger *zap.Logger) QueueService {
	return &queueService{
		db:       db,
		pipeline: pipeline,
		logger:   logger.Named("queue"),
		interval: DefaultDrainInterval,
		wake:     make(chan struct{}, 1),
	}
}

func (s *queueService) Enqueue(ctx context.Context, req *models.DeploymentRequest, priority models.JobPriority) (string, error) {
	if priority != models.JobPriorityHigh {
		priority = models.JobPriorityNormal
	}

	job := &models.QueuedJob{
		ID:         uuid.New().String(),
		Priority:   priority,
		State:      models.JobStateQueued,
		Request:    *req,
		EnqueuedAt: time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return "", models.WrapError(models.ErrorKindQueue, err, "failed to enqueue deployment job")
	}

	metrics.QueueDepth.Inc()

	// Nudge the drain loop without blocking the caller.
	select {
	case s.wake <- struct{}{}:
	default:
	}

	return job.ID, nil
}

func (s *queueService) GetJob(jobID string) (*models.QueuedJob, error) {
	var job models.QueuedJob
	err := s.db.Where("id = ?", jobID).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Start launches the background drain loop. A single job's unrecoverable
// failure is recorded on the job and never crashes the loop.
func (s *queueService) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Info("queue drain loop started")
		for {
			s.drainReady(ctx)

			select {
			case <-ctx.Done():
				s.logger.Info("queue drain loop stopping")
				return
			case <-s.wake:
			case <-time.After(s.interval):
			}
		}
	}()
}

func (s *queueService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// drainReady processes every currently queued job, high priority first.
func (s *queueService) drainReady(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, ok := s.claimNext(ctx)
		if !ok {
			return
		}
		s.runJob(ctx, job)
	}
}

// claimNext transitions the oldest ready job to processing. The conditional
// update guarantees at most one active attempt per job id even with
// concurrent drainers.
func (s *queueService) claimNext(ctx context.Context) (*models.QueuedJob, bool) {
	var job models.QueuedJob
	err := s.db.WithContext(ctx).
		Where("state = ?", models.JobStateQueued).
		Order("CASE priority WHEN 'high' THEN 0 ELSE 1 END, enqueued_at asc").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false
	}
	if err != nil {
		s.logger.Error("failed to poll queue", zap.Error(err))
		return nil, false
	}

	claimed := s.db.WithContext(ctx).Model(&models.QueuedJob{}).
		Where("id = ? AND state = ?", job.ID, models.JobStateQueued).
		Update("state", models.JobStateProcessing)
	if claimed.Error != nil || claimed.RowsAffected == 0 {
		return nil, false
	}

	metrics.QueueDepth.Dec()
	job.State = models.JobStateProcessing
	return &job, true
}

// ProcessJob claims and runs one job inline, bypassing the drain loop.
func (s *queueService) ProcessJob(ctx context.Context, jobID string) error {
	job, err := s.GetJob(jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	claimed := s.db.WithContext(ctx).Model(&models.QueuedJob{}).
		Where("id = ? AND state = ?", job.ID, models.JobStateQueued).
		Update("state", models.JobStateProcessing)
	if claimed.Error != nil {
		return claimed.Error
	}
	if claimed.RowsAffected == 0 {
		return ErrJobNotClaimable
	}

	metrics.QueueDepth.Dec()
	job.State = models.JobStateProcessing
	s.runJob(ctx, job)
	return nil
}

func (s *queueService) runJob(ctx context.Context, job *models.QueuedJob) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic while processing job",
				zap.String("job_id", job.ID), zap.Any("panic", r))
			s.markFailed(ctx, job.ID, models.NewAppError(models.ErrorKindUnknown, "panic while processing job: %v", r))
		}
	}()

	record, err := s.pipeline.Execute(ctx, &job.Request)
	if err != nil {
		s.logger.Error("queued deployment failed",
			zap.String("job_id", job.ID), zap.Error(err))
		s.markFailed(ctx, job.ID, models.AsAppError(err))
		return
	}

	updates := map[string]interface{}{
		"state":          models.JobStateCompleted,
		"token_address":  record.TokenAddress,
		"transaction_id": record.ID,
	}
	if record.TxHash != nil {
		updates["tx_hash"] = *record.TxHash
	}
	if err := s.db.WithContext(ctx).Model(&models.QueuedJob{}).Where("id = ?", job.ID).Updates(updates).Error; err != nil {
		s.logger.Error("failed to record job completion",
			zap.String("job_id", job.ID), zap.Error(err))
	}
	metrics.JobsProcessed.WithLabelValues(string(models.JobStateCompleted)).Inc()
}

func (s *queueService) markFailed(ctx context.Context, jobID string, appErr *models.AppError) {
	err := s.db.WithContext(ctx).Model(&models.QueuedJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"state":         models.JobStateFailed,
		"error_kind":    string(appErr.Kind),
		"error_message": appErr.Message,
	}).Error
	if err != nil {
		s.logger.Error("failed to record job failure",
			zap.String("job_id", jobID), zap.Error(err))
	}
	metrics.JobsProcessed.WithLabelValues(string(models.JobStateFailed)).Inc()
}
