// Copyright 2025 James Ross
package jobservice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flyingrobots/videoapi/internal/apierr"
	"github.com/flyingrobots/videoapi/internal/jobstore"
	"github.com/flyingrobots/videoapi/internal/scheduler"
	"github.com/flyingrobots/videoapi/internal/tier"
)

// Service implements admission control and the job lifecycle on top of a
// job collection and a scheduler.
type Service struct {
	jobs      *jobstore.JobCollection
	usage     *jobstore.UsageStore
	scheduler *scheduler.Scheduler
	log       *zap.Logger
}

// New builds a Service.
func New(jobs *jobstore.JobCollection, usage *jobstore.UsageStore, sched *scheduler.Scheduler, log *zap.Logger) *Service {
	return &Service{jobs: jobs, usage: usage, scheduler: sched, log: log}
}

// CreateJob runs the admission pipeline and, on success, persists and
// enqueues a new job. The pipeline order is: tier.can_generate, requested
// duration against the tier's max, daily quota, then concurrent job count —
// in that order, so the first violated check is the one reported.
func (s *Service) CreateJob(ctx context.Context, user *jobstore.User, req GenerationRequest) (*jobstore.Job, error) {
	req = req.withDefaults()
	if err := validate(req); err != nil {
		return nil, err
	}

	cfg := tier.Get(user.Tier)

	if !cfg.CanGenerate {
		return nil, apierr.InsufficientTier(string(user.Tier), string(tier.Developer), nil)
	}

	if req.Duration > cfg.MaxVideoDuration {
		required := tier.MinimumTierForDuration(req.Duration)
		return nil, apierr.InsufficientTier(string(user.Tier), string(required), map[string]any{
			"requested_duration": req.Duration,
			"max_duration":        cfg.MaxVideoDuration,
		})
	}

	if cfg.DailyQuota > 0 {
		dailyUsage, err := s.usage.Daily(ctx, user.ID)
		if err != nil {
			return nil, apierr.Internal("could not read usage: " + err.Error())
		}
		if dailyUsage >= cfg.DailyQuota {
			return nil, apierr.QuotaExceeded("daily", cfg.DailyQuota, dailyUsage)
		}
	}

	active := s.jobs.CountActive(user.ID)
	if active >= cfg.MaxConcurrentJobs {
		return nil, apierr.QuotaExceeded("concurrent_jobs", cfg.MaxConcurrentJobs, active)
	}

	jobID := "job_" + uuid.New().String()[:12]
	job := jobstore.NewJob(jobID, user.ID, user.Tier, req.Prompt, req.Duration)
	job.Resolution = req.Resolution
	job.Style = req.Style
	job.AspectRatio = req.AspectRatio
	job.Model = req.Model
	job.WebhookURL = req.WebhookURL
	job.RequestMetadata = req.Metadata

	s.jobs.Create(job.ID, job)

	pos, err := s.scheduler.Enqueue(ctx, job.ID, job.Priority)
	if err != nil {
		return nil, apierr.Internal("could not enqueue job: " + err.Error())
	}

	job.Status = jobstore.StatusQueued
	job.QueuedAt = time.Now().UTC()
	job.QueuePosition = pos.Position
	job.EstimatedWaitSeconds = pos.EstimatedWaitSeconds
	s.jobs.Update(job.ID, job)

	s.log.Info("job created",
		zap.String("job_id", job.ID),
		zap.String("user_id", user.ID),
		zap.String("priority", string(job.Priority)),
		zap.Int("queue_position", pos.Position),
	)

	return job, nil
}

// GetJob fetches a job by ID, enforcing that user owns it.
func (s *Service) GetJob(jobID string, user *jobstore.User) (*jobstore.Job, error) {
	job, ok := s.jobs.Get(jobID)
	if !ok {
		return nil, apierr.JobNotFound(jobID)
	}
	if job.UserID != user.ID {
		return nil, apierr.PermissionDenied("You don't have permission to access this job", map[string]any{"job_id": jobID})
	}
	return job, nil
}

// ListJobs returns a user's jobs, optionally filtered by status, newest
// first, along with the total match count before pagination.
func (s *Service) ListJobs(user *jobstore.User, page, perPage int, status jobstore.Status) ([]*jobstore.Job, int) {
	return s.jobs.List(jobstore.ListFilter{
		UserID:  user.ID,
		Status:  status,
		Page:    page,
		PerPage: perPage,
	})
}

// ActiveJobCount returns the number of non-terminal jobs userID currently
// owns, used by the account/quota endpoint to report concurrency headroom.
func (s *Service) ActiveJobCount(userID string) int {
	return s.jobs.CountActive(userID)
}

// DailyUsage returns userID's request count for the current day, used by
// the account/quota and account/usage endpoints.
func (s *Service) DailyUsage(ctx context.Context, userID string) (int, error) {
	return s.usage.Daily(ctx, userID)
}

// MonthlyUsage returns userID's request count for the current month.
func (s *Service) MonthlyUsage(userID string) int {
	return s.usage.Monthly(userID)
}

// UsageDetail returns today's recorded videos-generated/duration detail
// for userID.
func (s *Service) UsageDetail(userID string) jobstore.UsageDetail {
	return s.usage.Detail(userID)
}

// CancelJob transitions a job to CANCELLED, removing it from the queue if
// it was still waiting there.
func (s *Service) CancelJob(ctx context.Context, jobID string, user *jobstore.User) (*jobstore.Job, error) {
	job, err := s.GetJob(jobID, user)
	if err != nil {
		return nil, err
	}

	if !jobstore.CanTransition(job.Status, jobstore.StatusCancelled) {
		return nil, apierr.JobCancelled("Job cannot be cancelled", map[string]any{
			"job_id":         jobID,
			"current_status": string(job.Status),
		})
	}

	if job.Status == jobstore.StatusQueued {
		if err := s.scheduler.Cancel(ctx, job.ID, job.Priority); err != nil {
			return nil, apierr.Internal("could not cancel queued job: " + err.Error())
		}
	}

	job.Status = jobstore.StatusCancelled
	job.CompletedAt = time.Now().UTC()
	s.jobs.Update(job.ID, job)

	s.log.Info("job cancelled", zap.String("job_id", job.ID))
	return job, nil
}
