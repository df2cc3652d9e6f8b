// Copyright 2025 James Ross
package jobstore

import (
	"time"

	"github.com/flyingrobots/videoapi/internal/tier"
)

// User is an authenticated caller, resolved from an API key.
type User struct {
	ID        string
	Email     string
	Tier      tier.Tier
	APIKey    string
	CreatedAt time.Time
	IsActive  bool
	Metadata  map[string]any
}
