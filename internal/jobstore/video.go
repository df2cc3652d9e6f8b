// Copyright 2025 James Ross
package jobstore

import "time"

// VideoStatus mirrors a Video's processing lifecycle.
type VideoStatus string

const (
	VideoPending    VideoStatus = "pending"
	VideoProcessing VideoStatus = "processing"
	VideoReady      VideoStatus = "ready"
	VideoFailed     VideoStatus = "failed"
)

// Resolution is a supported output resolution.
type Resolution string

const (
	Resolution480p  Resolution = "480p"
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
	Resolution4K    Resolution = "4k"
)

// AspectRatio is a supported frame aspect ratio.
type AspectRatio string

const (
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio4x3  AspectRatio = "4:3"
)

// Style is a supported rendering style.
type Style string

const (
	StyleCinematic  Style = "cinematic"
	StyleAnime      Style = "anime"
	StyleRealistic  Style = "realistic"
	StyleArtistic   Style = "artistic"
	StyleDocumentary Style = "documentary"
)

// Video is a generated (or in-progress) video asset.
type Video struct {
	ID            string
	Title         string
	Description   string
	Duration      float64
	Resolution    Resolution
	AspectRatio   AspectRatio
	Style         Style
	Status        VideoStatus
	URL           string
	ThumbnailURL  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	OwnerID       string
	JobID         string
	Metadata      map[string]any
}

// NewVideoFromJob seeds a Video record from the job that produced it.
func NewVideoFromJob(id string, job *Job) *Video {
	return &Video{
		ID:          id,
		Title:       job.Prompt,
		Duration:    float64(job.Duration),
		Resolution:  Resolution(job.Resolution),
		AspectRatio: AspectRatio(job.AspectRatio),
		Style:       Style(job.Style),
		Status:      VideoPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
		OwnerID:     job.UserID,
		JobID:       job.ID,
		Metadata:    map[string]any{},
	}
}
