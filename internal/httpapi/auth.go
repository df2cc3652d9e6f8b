// Copyright 2025 James Ross
// Package httpapi exposes the control plane's REST surface: request
// authentication, admission, job and video endpoints, and error rendering.
package httpapi

import (
	"net/http"
	"time"

	"github.com/flyingrobots/videoapi/internal/apierr"
	"github.com/flyingrobots/videoapi/internal/jobstore"
	"github.com/flyingrobots/videoapi/internal/tier"
)

// Authenticator resolves an API key to a user.
type Authenticator interface {
	Validate(apiKey string) (*jobstore.User, error)
}

// MockAuth validates API keys against the fixed set of test keys the
// reference service ships with, one per tier.
type MockAuth struct {
	users map[string]*jobstore.User
}

// NewMockAuth builds a MockAuth seeded with the standard per-tier test keys.
func NewMockAuth() *MockAuth {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	users := map[string]*jobstore.User{
		"free_test_key": {
			ID: "user_free_001", Email: "free@test.com", Tier: tier.Free,
			APIKey: "free_test_key", CreatedAt: created, IsActive: true,
		},
		"dev_test_key": {
			ID: "user_dev_001", Email: "developer@test.com", Tier: tier.Developer,
			APIKey: "dev_test_key", CreatedAt: created, IsActive: true,
		},
		"pro_test_key": {
			ID: "user_pro_001", Email: "pro@test.com", Tier: tier.Pro,
			APIKey: "pro_test_key", CreatedAt: created, IsActive: true,
		},
		"enterprise_test_key": {
			ID: "user_ent_001", Email: "enterprise@test.com", Tier: tier.Enterprise,
			APIKey: "enterprise_test_key", CreatedAt: created, IsActive: true,
		},
	}
	return &MockAuth{users: users}
}

// Users returns every known user, for the dashboard's per-user rate-limit
// snapshot. It satisfies internal/dashboard.UserLister structurally.
func (m *MockAuth) Users() []*jobstore.User {
	out := make([]*jobstore.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out
}

// Validate looks up apiKey, rejecting unknown or deactivated keys.
func (m *MockAuth) Validate(apiKey string) (*jobstore.User, error) {
	user, ok := m.users[apiKey]
	if !ok {
		return nil, apierr.InvalidAPIKey()
	}
	if !user.IsActive {
		return nil, apierr.InvalidAPIKey()
	}
	return user, nil
}

// requireAPIKey extracts X-API-Key and resolves it to a user, writing an
// error response and returning false on failure.
func (s *Server) requireAPIKey(w http.ResponseWriter, r *http.Request) (*jobstore.User, bool) {
	key := r.Header.Get("X-API-Key")
	if key == "" {
		writeError(w, apierr.MissingCredentials())
		return nil, false
	}
	user, err := s.auth.Validate(key)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return user, true
}

// requireTier additionally enforces that user meets minimum.
func requireTier(w http.ResponseWriter, user *jobstore.User, minimum tier.Tier) bool {
	if tier.AtLeast(user.Tier, minimum) {
		return true
	}
	writeError(w, apierr.InsufficientTier(string(user.Tier), string(minimum), nil))
	return false
}
