// Copyright 2025 James Ross
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/flyingrobots/videoapi/internal/apierr"
	"github.com/flyingrobots/videoapi/internal/jobservice"
	"github.com/flyingrobots/videoapi/internal/jobstore"
	"github.com/flyingrobots/videoapi/internal/obs"
	"github.com/flyingrobots/videoapi/internal/tier"
)

const maxBatchItems = 10

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, apierr.ValidationFailed("could not read request body", nil))
		return nil, false
	}
	return raw, true
}

func toGenerationRequest(body GenerationRequestBody) jobservice.GenerationRequest {
	return jobservice.GenerationRequest{
		Prompt: body.Prompt, Duration: body.Duration, Resolution: body.Resolution,
		Style: body.Style, AspectRatio: body.AspectRatio, Model: body.Model,
		WebhookURL: body.WebhookURL, Metadata: body.Metadata,
	}
}

// handleGenerate implements POST /v1/generate (§6): admits and enqueues a
// single generation job.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}

	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	if err := jobservice.ValidateSchema(raw); err != nil {
		writeError(w, err)
		return
	}

	var body GenerationRequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, apierr.ValidationFailed("malformed request body", nil))
		return
	}

	job, err := s.jobs.CreateJob(r.Context(), user, toGenerationRequest(body))
	if err != nil {
		obs.JobsRejected.WithLabelValues(rejectReason(err)).Inc()
		writeError(w, err)
		return
	}
	obs.JobsAdmitted.Inc()
	writeJSON(w, http.StatusAccepted, jobResponseFrom(job))
}

func rejectReason(err error) string {
	if apiErr, ok := err.(*apierr.Error); ok {
		return apiErr.Code
	}
	return "unknown"
}

// handleGenerateBatch implements POST /v1/generate/batch (§6): PRO+ only,
// up to maxBatchItems jobs admitted in sequence.
func (s *Server) handleGenerateBatch(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}
	if !requireTier(w, user, tier.Pro) {
		return
	}

	raw, ok := readBody(w, r)
	if !ok {
		return
	}
	var body BatchGenerationRequestBody
	if err := json.Unmarshal(raw, &body); err != nil {
		writeError(w, apierr.ValidationFailed("malformed request body", nil))
		return
	}
	if len(body.Requests) == 0 || len(body.Requests) > maxBatchItems {
		writeError(w, apierr.ValidationFailed("batch must contain between 1 and 10 requests", map[string]any{
			"count": len(body.Requests),
		}))
		return
	}

	jobIDs := make([]string, 0, len(body.Requests))
	for _, item := range body.Requests {
		itemJSON, _ := json.Marshal(item)
		if err := jobservice.ValidateSchema(itemJSON); err != nil {
			writeError(w, err)
			return
		}
		job, err := s.jobs.CreateJob(r.Context(), user, toGenerationRequest(item))
		if err != nil {
			obs.JobsRejected.WithLabelValues(rejectReason(err)).Inc()
			writeError(w, err)
			return
		}
		obs.JobsAdmitted.Inc()
		jobIDs = append(jobIDs, job.ID)
	}

	writeJSON(w, http.StatusAccepted, BatchGenerationResponseBody{JobIDs: jobIDs, TotalQueued: len(jobIDs)})
}

// handleModels implements GET /v1/generate/models (§6): the static model
// catalog, available to any authenticated tier including FREE.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAPIKey(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"models": availableModels})
}

func paginationParams(r *http.Request) (page, perPage int) {
	page = 1
	perPage = 20
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			perPage = n
		}
	}
	return page, perPage
}

// handleListJobs implements GET /v1/jobs (§6): owner-scoped, paginated.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}
	page, perPage := paginationParams(r)
	status := jobstore.Status(r.URL.Query().Get("status"))

	jobs, total := s.jobs.ListJobs(user, page, perPage, status)
	items := make([]JobResponseBody, len(jobs))
	for i, j := range jobs {
		items[i] = jobResponseFrom(j)
	}
	writeJSON(w, http.StatusOK, paginate(items, total, page, perPage))
}

// handleGetJob implements GET /v1/jobs/{id} (§6).
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}
	job, err := s.jobs.GetJob(mux.Vars(r)["id"], user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobResponseFrom(job))
}

// handleCancelJob implements DELETE /v1/jobs/{id} (§6).
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}
	job, err := s.jobs.CancelJob(r.Context(), mux.Vars(r)["id"], user)
	if err != nil {
		writeError(w, err)
		return
	}
	obs.JobsCancelled.Inc()
	writeJSON(w, http.StatusOK, jobResponseFrom(job))
}

// handleListVideos implements GET /v1/videos (§6).
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}
	page, perPage := paginationParams(r)
	status := jobstore.VideoStatus(r.URL.Query().Get("status"))

	videos, total := s.videos.List(user, page, perPage, status)
	items := make([]VideoResponseBody, len(videos))
	for i, v := range videos {
		items[i] = videoResponseFrom(v)
	}
	writeJSON(w, http.StatusOK, paginate(items, total, page, perPage))
}

// handleGetVideo implements GET /v1/videos/{id} (§6).
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}
	video, err := s.videos.Get(mux.Vars(r)["id"], user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, videoResponseFrom(video))
}

// handleDeleteVideo implements DELETE /v1/videos/{id} (§6): 204 on success.
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}
	if err := s.videos.Delete(mux.Vars(r)["id"], user); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleVideoStream implements GET /v1/videos/{id}/stream (§6): a
// short-lived stream URL for a ready video.
func (s *Server) handleVideoStream(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}
	url, err := s.videos.StreamURL(mux.Vars(r)["id"], user)
	if err != nil {
		writeError(w, err)
		return
	}
	const expiresIn = 3600
	writeJSON(w, http.StatusOK, map[string]any{"stream_url": url, "expires_in": expiresIn})
}

// handleAccount implements GET /v1/account (§6).
func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id": user.ID, "email": user.Email, "tier": string(user.Tier),
		"is_active": user.IsActive, "created_at": user.CreatedAt,
	})
}

// handleAccountUsage implements GET /v1/account/usage?period=daily|monthly
// (§6).
func (s *Server) handleAccountUsage(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "daily"
	}

	detail := s.jobs.UsageDetail(user.ID)
	switch period {
	case "daily":
		used, err := s.jobs.DailyUsage(r.Context(), user.ID)
		if err != nil {
			writeError(w, apierr.Internal("could not read usage"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"period": "daily", "requests": used,
			"videos_generated": detail.VideosGenerated, "total_duration_seconds": detail.TotalDurationSeconds,
		})
	case "monthly":
		writeJSON(w, http.StatusOK, map[string]any{
			"period": "monthly", "requests": s.jobs.MonthlyUsage(user.ID),
		})
	default:
		writeError(w, apierr.InvalidParameters("period must be daily or monthly", map[string]any{"period": period}))
	}
}

// handleAccountQuota implements GET /v1/account/quota (§6).
func (s *Server) handleAccountQuota(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAPIKey(w, r)
	if !ok {
		return
	}
	cfg := tier.Get(user.Tier)
	dailyUsed, err := s.jobs.DailyUsage(r.Context(), user.ID)
	if err != nil {
		writeError(w, apierr.Internal("could not read usage"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tier":                user.Tier,
		"rate_limit_per_minute": cfg.RateLimitPerMinute,
		"daily_quota":         cfg.DailyQuota,
		"daily_used":          dailyUsed,
		"max_concurrent_jobs": cfg.MaxConcurrentJobs,
		"active_jobs":         s.jobs.ActiveJobCount(user.ID),
		"max_video_duration":  cfg.MaxVideoDuration,
	})
}
