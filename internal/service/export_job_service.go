package service

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
	"github.com/campusops/deptdesk-api/pkg/jobs"
	"github.com/campusops/deptdesk-api/pkg/storage"
)

// ExportJobStatus tracks the lifecycle of a background export.
type ExportJobStatus string

const (
	ExportJobPending    ExportJobStatus = "pending"
	ExportJobProcessing ExportJobStatus = "processing"
	ExportJobCompleted  ExportJobStatus = "completed"
	ExportJobFailed     ExportJobStatus = "failed"
)

// ExportJob describes a queued timetable export and its download handle.
type ExportJob struct {
	ID            string          `json:"id"`
	BatchID       string          `json:"batchId"`
	Format        ExportFormat    `json:"format"`
	Status        ExportJobStatus `json:"status"`
	Filename      string          `json:"filename,omitempty"`
	ContentType   string          `json:"contentType,omitempty"`
	DownloadToken string          `json:"downloadToken,omitempty"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
	Error         string          `json:"error,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
}

// ExportDownload is a validated, opened export file ready to stream.
type ExportDownload struct {
	Filename    string
	ContentType string
	Content     []byte
}

type exportJobPayload struct {
	BatchID   string
	Format    ExportFormat
	Reference time.Time
}

// ExportJobConfig governs the background export queue.
type ExportJobConfig struct {
	Workers         int
	DownloadTTL     time.Duration
	FileTTL         time.Duration
	CleanupInterval time.Duration
}

// ExportJobService renders exports asynchronously and serves them through
// signed download tokens. Jobs are tracked in memory; files live on disk.
type ExportJobService struct {
	exports      *ExportService
	store        *storage.FileStore
	signer       *storage.TokenSigner
	logger       *zap.Logger
	fileTTL      time.Duration
	cleanupEvery time.Duration

	queue    *jobs.Queue
	reaperWG sync.WaitGroup
	stopped  chan struct{}
	stopOnce sync.Once

	mu   sync.RWMutex
	jobs map[string]*ExportJob
}

// NewExportJobService constructs the service and its worker queue.
func NewExportJobService(exports *ExportService, store *storage.FileStore, signer *storage.TokenSigner, logger *zap.Logger, config ExportJobConfig) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.FileTTL <= 0 {
		config.FileTTL = 24 * time.Hour
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = time.Hour
	}
	s := &ExportJobService{
		exports:      exports,
		store:        store,
		signer:       signer,
		logger:       logger,
		fileTTL:      config.FileTTL,
		cleanupEvery: config.CleanupInterval,
		stopped:      make(chan struct{}),
		jobs:         make(map[string]*ExportJob),
	}
	s.queue = jobs.NewQueue("timetable-export", s.process, jobs.QueueConfig{
		Workers: config.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the worker pool and the expired-file reaper.
func (s *ExportJobService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	s.reaperWG.Add(1)
	go s.reap(ctx)
}

// Stop drains the worker pool and halts the reaper.
func (s *ExportJobService) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
	s.reaperWG.Wait()
	s.queue.Stop()
}

func (s *ExportJobService) reap(ctx context.Context) {
	defer s.reaperWG.Done()
	ticker := time.NewTicker(s.cleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopped:
			return
		case <-ticker.C:
			if _, err := s.CleanupExpired(); err != nil {
				s.logger.Sugar().Warnw("export cleanup failed", "error", err)
			}
		}
	}
}

// Enqueue registers a new export job and schedules it for rendering.
func (s *ExportJobService) Enqueue(ctx context.Context, batchID string, format ExportFormat, reference time.Time) (*ExportJob, error) {
	if batchID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batchId is required")
	}
	if format != ExportCSV && format != ExportPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	job := &ExportJob{
		ID:        uuid.NewString(),
		BatchID:   batchID,
		Format:    format,
		Status:    ExportJobPending,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:      job.ID,
		Payload: exportJobPayload{BatchID: batchID, Format: format, Reference: reference},
	})
	if err != nil {
		s.mu.Lock()
		delete(s.jobs, job.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule export")
	}

	s.logger.Sugar().Infow("export job queued", "job_id", job.ID, "batch_id", batchID, "format", format)
	return s.snapshot(job.ID), nil
}

// Get returns the current state of a job.
func (s *ExportJobService) Get(jobID string) (*ExportJob, error) {
	job := s.snapshot(jobID)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return job, nil
}

// Download validates a signed token and loads the rendered file.
func (s *ExportJobService) Download(token string) (*ExportDownload, error) {
	tok, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download token")
	}

	job := s.snapshot(tok.JobID)
	if job == nil || job.Status != ExportJobCompleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export is not available")
	}

	content, err := s.store.Read(tok.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}

	return &ExportDownload{
		Filename:    job.Filename,
		ContentType: job.ContentType,
		Content:     content,
	}, nil
}

// CleanupExpired removes rendered files older than the retention TTL.
func (s *ExportJobService) CleanupExpired() (int, error) {
	removed, err := s.store.Sweep(s.fileTTL)
	if err != nil {
		return removed, err
	}
	if removed > 0 {
		s.logger.Sugar().Infow("expired exports removed", "count", removed)
	}
	return removed, nil
}

func (s *ExportJobService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportJobPayload)
	if !ok {
		s.fail(job.ID, "malformed job payload")
		return nil
	}

	s.transition(job.ID, ExportJobProcessing)

	result, err := s.exports.Timetable(ctx, payload.BatchID, payload.Format, payload.Reference, time.Now().UTC())
	if err != nil {
		s.fail(job.ID, err.Error())
		s.logger.Sugar().Errorw("export job failed", "job_id", job.ID, "batch_id", payload.BatchID, "error", err)
		return nil
	}

	relPath := filepath.Join(job.ID, result.Filename)
	if err := s.store.Save(relPath, result.Content); err != nil {
		s.fail(job.ID, "failed to persist export file")
		s.logger.Sugar().Errorw("export job persist failed", "job_id", job.ID, "error", err)
		return nil
	}

	token, grant, err := s.signer.Issue(job.ID, relPath)
	if err != nil {
		s.fail(job.ID, "failed to sign download link")
		s.logger.Sugar().Errorw("export job signing failed", "job_id", job.ID, "error", err)
		return nil
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if stored, ok := s.jobs[job.ID]; ok {
		stored.Status = ExportJobCompleted
		stored.Filename = result.Filename
		stored.ContentType = result.ContentType
		stored.DownloadToken = token
		stored.ExpiresAt = &grant.ExpiresAt
		stored.CompletedAt = &now
	}
	s.mu.Unlock()

	s.logger.Sugar().Infow("export job completed", "job_id", job.ID, "file", result.Filename)
	return nil
}

func (s *ExportJobService) transition(jobID string, status ExportJobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = status
	}
}

func (s *ExportJobService) fail(jobID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = ExportJobFailed
		job.Error = message
	}
}

func (s *ExportJobService) snapshot(jobID string) *ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}
