// Copyright 2025 James Ross
// Package jobservice implements admission control and the job lifecycle:
// creating, fetching, listing, and cancelling video generation jobs.
package jobservice

// GenerationRequest is the validated body of a create-job call.
type GenerationRequest struct {
	Prompt      string
	Duration    int
	Resolution  string
	Style       string
	AspectRatio string
	Model       string
	WebhookURL  string
	Metadata    map[string]any
}

func (r GenerationRequest) withDefaults() GenerationRequest {
	if r.Resolution == "" {
		r.Resolution = "1080p"
	}
	if r.AspectRatio == "" {
		r.AspectRatio = "16:9"
	}
	if r.Model == "" {
		r.Model = "dream-machine-1.5"
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
	return r
}
