// Copyright 2025 James Ross
package dashboard

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flyingrobots/videoapi/internal/jobstore"
	"github.com/flyingrobots/videoapi/internal/obs"
	"github.com/flyingrobots/videoapi/internal/ratelimit"
	"github.com/flyingrobots/videoapi/internal/scheduler"
)

// Hub fans a periodic full-state snapshot out to every connected observer,
// grounded on bobmcallan/vire's jobmanager WebSocket hub (register/
// unregister channels, slow-client eviction) but re-targeted from
// per-event broadcast to the spec's 1Hz full-snapshot push.
type Hub struct {
	scheduler *scheduler.Scheduler
	jobs      *jobstore.JobCollection
	limiter   *ratelimit.Limiter
	users     UserLister
	interval  time.Duration
	log       *zap.Logger

	ring *requestRing

	mu      sync.RWMutex
	clients map[*client]bool

	register   chan *client
	unregister chan *client
	done       chan struct{}
}

// New builds a Hub. interval is how often a full snapshot is pushed;
// zero or negative defaults to 1 second per spec §4.9.
func New(sched *scheduler.Scheduler, jobs *jobstore.JobCollection, limiter *ratelimit.Limiter, users UserLister, interval time.Duration, log *zap.Logger) *Hub {
	if interval <= 0 {
		interval = time.Second
	}
	return &Hub{
		scheduler: sched, jobs: jobs, limiter: limiter, users: users, interval: interval, log: log,
		ring:       newRequestRing(),
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// RecordRequest appends rec to the request ring, called by the admission
// middleware for every inbound request.
func (h *Hub) RecordRequest(rec RequestRecord) {
	h.ring.add(rec)
}

// ClientCount returns the number of currently connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run starts the hub's push loop; it blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			obs.DashboardClients.Set(float64(h.ClientCount()))
			h.sendInitial(ctx, c)
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			obs.DashboardClients.Set(float64(h.ClientCount()))
		case <-ticker.C:
			h.broadcast(ctx)
		}
	}
}

func (h *Hub) sendInitial(ctx context.Context, c *client) {
	connected, _ := json.Marshal(map[string]any{"type": "connected", "timestamp": time.Now().UTC()})
	h.deliver(c, connected)
	snap, err := json.Marshal(h.buildSnapshot(ctx))
	if err != nil {
		h.log.Warn("dashboard: snapshot marshal failed", errField(err))
		return
	}
	h.deliver(c, snap)
}

func (h *Hub) broadcast(ctx context.Context) {
	data, err := json.Marshal(h.buildSnapshot(ctx))
	if err != nil {
		h.log.Warn("dashboard: snapshot marshal failed", errField(err))
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients {
		if !h.deliver(c, data) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range slow {
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
	obs.DashboardClients.Set(float64(h.ClientCount()))
}

// deliver queues data for c, reporting false if the client's buffer was
// full (a slow client, removed from the fan-out set on send failure).
func (h *Hub) deliver(c *client, data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func errField(err error) zap.Field { return zap.Error(err) }
