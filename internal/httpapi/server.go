// Copyright 2025 James Ross
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/flyingrobots/videoapi/internal/config"
	"github.com/flyingrobots/videoapi/internal/dashboard"
	"github.com/flyingrobots/videoapi/internal/jobservice"
	"github.com/flyingrobots/videoapi/internal/obs"
	"github.com/flyingrobots/videoapi/internal/ratelimit"
	"github.com/flyingrobots/videoapi/internal/videoservice"
)

// excludedPaths never go through auth/rate-limit enforcement, per §4.8.
var excludedPaths = map[string]bool{
	"/health":        true,
	"/docs":          true,
	"/redoc":         true,
	"/openapi.json":  true,
	"/ws/dashboard":  true,
	"/":              true,
}

// Server wires the REST surface (C10) over the admission middleware (C8)
// and the job/video services, adapted from the teacher's admin-api
// server/handler/middleware split.
type Server struct {
	cfg       *config.Config
	auth      Authenticator
	limiter   *ratelimit.Limiter
	jobs      *jobservice.Service
	videos    *videoservice.Service
	dash      *dashboard.Hub
	inflight  *inflightLimiter
	audit     *obs.AuditLogger
	log       *zap.Logger
	router    *mux.Router
}

// New builds a Server and wires its routes and middleware chain. audit may
// be a disabled (zero-value) *obs.AuditLogger if no audit path is configured.
func New(cfg *config.Config, auth Authenticator, limiter *ratelimit.Limiter, jobs *jobservice.Service, videos *videoservice.Service, dash *dashboard.Hub, audit *obs.AuditLogger, log *zap.Logger) *Server {
	s := &Server{
		cfg: cfg, auth: auth, limiter: limiter, jobs: jobs, videos: videos,
		dash: dash, inflight: newInflightLimiter(cfg), audit: audit, log: log,
	}
	s.router = s.setupRoutes()
	return s
}

// Handler returns the fully wrapped HTTP handler, ready to pass to
// http.Server.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = s.admissionMiddleware(h)
	h = recoveryMiddleware(s.log)(h)
	h = requestIDMiddleware(h)
	return h
}

func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws/dashboard", s.dash.ServeWS)

	v1 := r.PathPrefix(s.prefix()).Subrouter()
	v1.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodPost)
	v1.HandleFunc("/generate/batch", s.handleGenerateBatch).Methods(http.MethodPost)
	v1.HandleFunc("/generate/models", s.handleModels).Methods(http.MethodGet)

	v1.HandleFunc("/jobs", s.handleListJobs).Methods(http.MethodGet)
	v1.HandleFunc("/jobs/{id}", s.handleGetJob).Methods(http.MethodGet)
	v1.HandleFunc("/jobs/{id}", s.handleCancelJob).Methods(http.MethodDelete)

	v1.HandleFunc("/videos", s.handleListVideos).Methods(http.MethodGet)
	v1.HandleFunc("/videos/{id}", s.handleGetVideo).Methods(http.MethodGet)
	v1.HandleFunc("/videos/{id}", s.handleDeleteVideo).Methods(http.MethodDelete)
	v1.HandleFunc("/videos/{id}/stream", s.handleVideoStream).Methods(http.MethodGet)

	v1.HandleFunc("/account", s.handleAccount).Methods(http.MethodGet)
	v1.HandleFunc("/account/usage", s.handleAccountUsage).Methods(http.MethodGet)
	v1.HandleFunc("/account/quota", s.handleAccountQuota).Methods(http.MethodGet)

	return r
}

func (s *Server) prefix() string {
	if s.cfg.API.Prefix == "" {
		return "/v1"
	}
	return s.cfg.API.Prefix
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
