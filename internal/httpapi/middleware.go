// Copyright 2025 James Ross
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flyingrobots/videoapi/internal/apierr"
	"github.com/flyingrobots/videoapi/internal/dashboard"
	"github.com/flyingrobots/videoapi/internal/obs"
	"github.com/flyingrobots/videoapi/internal/ratelimit"
)

// auditableStatus reports whether status is worth a durable audit record:
// every mutating admission outcome, not routine reads.
func auditableStatus(method string, status int) bool {
	return method != http.MethodGet || status >= http.StatusBadRequest
}

type contextKey string

const requestIDContextKey contextKey = "request_id"

// requestIDFromContext returns the request ID stamped by requestIDMiddleware.
func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// requestIDMiddleware stamps every request with a fresh request ID,
// propagated on the context and echoed back as X-Request-ID, adapted from
// the teacher's RequestIDMiddleware in internal/admin-api/middleware.go.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoveryMiddleware converts a panic in a handler into an INTERNAL_ERROR
// response instead of crashing the server, adapted from the teacher's
// RecoveryMiddleware.
func recoveryMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered",
						zap.Any("error", rec), zap.String("path", r.URL.Path), zap.String("method", r.Method))
					writeErrorDetail(w, apierr.Internal("An unexpected error occurred"), requestIDFromContext(r.Context()))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code
// written, for the dashboard request ring and access logging, adapted
// from the teacher's responseWriter wrapper.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// admissionMiddleware implements C8: request-ID is already stamped by an
// outer middleware; this layer enforces per-request auth + rate limiting
// and records every non-excluded request into the dashboard's ring buffer.
//
// Per §4.8: excluded paths skip enforcement entirely and are served with
// the original ResponseWriter (so /ws/dashboard can still hijack the
// connection); they are not recorded in the ring. A missing or invalid
// API key passes the request through untouched so the downstream handler
// can surface the auth error itself, with no rate-limit accounting. Only
// a recognized key is rate-limited.
func (s *Server) admissionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		if excludedPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		if !s.inflight.allow() {
			writeQueueFull(rec)
			s.recordRequest(r, rec, "", "", start)
			return
		}

		key := r.Header.Get("X-API-Key")
		var userID, tier string
		if key != "" {
			if user, err := s.auth.Validate(key); err == nil {
				userID, tier = user.ID, string(user.Tier)
				result, rlErr := s.limiter.CheckAndIncrement(r.Context(), user.ID, user.Tier, "default")
				if rlErr == nil {
					setRateLimitHeaders(rec, result)
					if s.limiter.Degraded() {
						rec.Header().Set("X-RateLimit-Degraded", "true")
					}
					obs.RateLimitDecisions.WithLabelValues(strconv.FormatBool(result.Allowed)).Inc()
					if !result.Allowed {
						retryAfter := result.ResetAt - time.Now().Unix()
						if retryAfter < 0 {
							retryAfter = 0
						}
						writeErrorDetail(rec, apierr.RateLimitExceeded(result.Limit, result.WindowSecs, int(retryAfter), tier), requestIDFromContext(r.Context()))
						s.recordRequest(r, rec, userID, tier, start)
						return
					}
				}
			}
		}

		next.ServeHTTP(rec, r)
		s.recordRequest(r, rec, userID, tier, start)
	})
}

func setRateLimitHeaders(w http.ResponseWriter, r ratelimit.Result) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(r.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(r.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(r.ResetAt, 10))
	h.Set("X-RateLimit-Window", strconv.Itoa(r.WindowSecs))
	h.Set("X-RateLimit-Policy", "sliding-window")
}

func (s *Server) recordRequest(r *http.Request, rec *statusRecorder, userID, tier string, start time.Time) {
	requestID := requestIDFromContext(r.Context())
	s.dash.RecordRequest(dashboard.RequestRecord{
		RequestID:  requestID,
		Method:     r.Method,
		Path:       r.URL.Path,
		UserID:     userID,
		Tier:       tier,
		Status:     rec.status,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000,
		Timestamp:  start.UTC(),
	})

	if auditableStatus(r.Method, rec.status) {
		if err := s.audit.Log(obs.AuditEntry{
			RequestID: requestID, Method: r.Method, Path: r.URL.Path,
			UserID: userID, Tier: tier, Status: rec.status,
		}); err != nil {
			s.log.Warn("audit log write failed", zap.Error(err))
		}
	}
}
