// Copyright 2025 James Ross
package jobservice

import (
	"fmt"
	"strings"

	"github.com/flyingrobots/videoapi/internal/apierr"
)

var prohibitedTerms = []string{"explicit", "violence", "harmful"}

// validate checks structural and content-policy constraints that must hold
// regardless of tier, mirroring the request model's own field validators.
func validate(req GenerationRequest) error {
	if len(req.Prompt) == 0 || len(req.Prompt) > 2000 {
		return apierr.ValidationFailed("prompt must be between 1 and 2000 characters", nil)
	}
	if req.Duration < 1 || req.Duration > 300 {
		return apierr.InvalidParameters("duration must be between 1 and 300 seconds", map[string]any{
			"duration": req.Duration,
		})
	}
	if !oneOf(req.Resolution, "480p", "720p", "1080p", "4k") {
		return apierr.InvalidParameters("invalid resolution", map[string]any{"resolution": req.Resolution})
	}
	if !oneOf(req.AspectRatio, "16:9", "9:16", "1:1", "4:3") {
		return apierr.InvalidParameters("invalid aspect_ratio", map[string]any{"aspect_ratio": req.AspectRatio})
	}
	if req.Style != "" && !oneOf(req.Style, "cinematic", "anime", "realistic", "artistic", "documentary") {
		return apierr.InvalidParameters("invalid style", map[string]any{"style": req.Style})
	}

	lower := strings.ToLower(req.Prompt)
	for _, term := range prohibitedTerms {
		if strings.Contains(lower, term) {
			return apierr.InvalidPrompt(fmt.Sprintf("prompt contains prohibited content: %s", term))
		}
	}
	return nil
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
