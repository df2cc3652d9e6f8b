// Copyright 2025 James Ross
package httpapi

import (
	"time"

	"github.com/flyingrobots/videoapi/internal/jobstore"
)

// GenerationRequestBody is the wire shape of a create-job request.
type GenerationRequestBody struct {
	Prompt      string         `json:"prompt"`
	Duration    int            `json:"duration"`
	Resolution  string         `json:"resolution"`
	Style       string         `json:"style"`
	AspectRatio string         `json:"aspect_ratio"`
	Model       string         `json:"model"`
	WebhookURL  string         `json:"webhook_url"`
	Metadata    map[string]any `json:"metadata"`
}

// BatchGenerationRequestBody wraps up to 10 generation requests.
type BatchGenerationRequestBody struct {
	Requests []GenerationRequestBody `json:"requests"`
}

// BatchGenerationResponseBody lists the jobs a batch request created.
type BatchGenerationResponseBody struct {
	JobIDs      []string `json:"job_ids"`
	TotalQueued int      `json:"total_queued"`
}

// JobResponseBody is the wire shape of a job's current status.
type JobResponseBody struct {
	JobID          string     `json:"job_id"`
	Status         string     `json:"status"`
	QueuePosition  *int       `json:"queue_position,omitempty"`
	EstimatedWait  string     `json:"estimated_wait,omitempty"`
	Progress       *float64   `json:"progress,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	VideoID        string     `json:"video_id,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// jobResponseFrom renders a job record in API response shape.
func jobResponseFrom(j *jobstore.Job) JobResponseBody {
	body := JobResponseBody{
		JobID:     j.ID,
		Status:    string(j.Status),
		CreatedAt: j.CreatedAt,
		VideoID:   j.VideoID,
		Error:     j.Error,
	}
	if j.Status == jobstore.StatusQueued || j.Status == jobstore.StatusPending {
		pos := j.QueuePosition
		body.QueuePosition = &pos
		body.EstimatedWait = j.EstimatedWaitISO8601()
	}
	if j.Progress > 0 {
		p := j.Progress
		body.Progress = &p
	}
	if !j.StartedAt.IsZero() {
		body.StartedAt = &j.StartedAt
	}
	if !j.CompletedAt.IsZero() {
		body.CompletedAt = &j.CompletedAt
	}
	return body
}

// VideoResponseBody is the wire shape of a video resource.
type VideoResponseBody struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Duration     float64        `json:"duration"`
	Resolution   string         `json:"resolution"`
	AspectRatio  string         `json:"aspect_ratio"`
	Style        string         `json:"style,omitempty"`
	Status       string         `json:"status"`
	URL          string         `json:"url,omitempty"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	OwnerID      string         `json:"owner_id"`
	JobID        string         `json:"job_id,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func videoResponseFrom(v *jobstore.Video) VideoResponseBody {
	return VideoResponseBody{
		ID: v.ID, Title: v.Title, Description: v.Description, Duration: v.Duration,
		Resolution: string(v.Resolution), AspectRatio: string(v.AspectRatio), Style: string(v.Style),
		Status: string(v.Status), URL: v.URL, ThumbnailURL: v.ThumbnailURL,
		CreatedAt: v.CreatedAt, UpdatedAt: v.UpdatedAt, OwnerID: v.OwnerID, JobID: v.JobID,
		Metadata: v.Metadata,
	}
}

// PaginatedResponse wraps a page of items with pagination metadata.
type PaginatedResponse[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

func paginate[T any](items []T, total, page, perPage int) PaginatedResponse[T] {
	totalPages := 0
	if perPage > 0 {
		totalPages = (total + perPage - 1) / perPage
	}
	return PaginatedResponse[T]{Items: items, Total: total, Page: page, PerPage: perPage, TotalPages: totalPages}
}

// Model describes a generation model's capabilities.
type Model struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	MaxDuration          int      `json:"max_duration"`
	SupportedResolutions []string `json:"supported_resolutions"`
	SupportedStyles      []string `json:"supported_styles"`
	Default              bool     `json:"default"`
}

var availableModels = []Model{
	{
		ID: "dream-machine-1.5", Name: "Dream Machine 1.5",
		Description:          "Latest generation model with improved quality and coherence",
		MaxDuration:          300,
		SupportedResolutions: []string{"480p", "720p", "1080p", "4k"},
		SupportedStyles:      []string{"cinematic", "anime", "realistic", "artistic", "documentary"},
		Default:              true,
	},
	{
		ID: "dream-machine-1.0", Name: "Dream Machine 1.0",
		Description:          "Original Dream Machine model",
		MaxDuration:          120,
		SupportedResolutions: []string{"480p", "720p", "1080p"},
		SupportedStyles:      []string{"cinematic", "realistic"},
		Default:              false,
	},
}
