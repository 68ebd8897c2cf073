// Package health implements the /livez and /readyz probes for the server.
//
// Probes are driven by a single scheduler goroutine on a shared interval. To
// avoid flapping, a probe turns unhealthy only after failAfter consecutive
// errors and recovers on the first success. Readiness additionally requires
// an explicit SetReady(true), which lets the server take itself out of
// rotation before a graceful shutdown.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// failAfter is how many consecutive probe errors it takes to report a
	// check as failing.
	failAfter = 3
	// recoverAfter is how many consecutive successes it takes a failing
	// check to recover.
	recoverAfter = 1
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// probe wraps a CheckFunc with its flap-damping state. All state behind mu;
// run is only ever called by the scheduler goroutine, the snapshot methods
// by HTTP handlers.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	mu      sync.Mutex
	failing bool
	lastErr error
	fails   int
	passes  int
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastErr = err
	if err != nil {
		p.passes = 0
		p.fails++
		if p.fails >= failAfter {
			p.failing = true
		}
		return
	}
	p.fails = 0
	p.passes++
	if p.passes >= recoverAfter {
		p.failing = false
	}
}

// status returns whether the probe is failing and, if so, a message.
func (p *probe) status() (failing bool, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.failing {
		return false, ""
	}
	if p.lastErr != nil {
		return true, p.lastErr.Error()
	}
	return true, "check failing"
}

// Service runs the registered probes and serves the probe endpoints.
type Service struct {
	ready atomic.Bool

	mu        sync.Mutex
	liveness  []*probe
	readiness []*probe
	stop      context.CancelFunc
}

// New returns a Service with no probes registered. The service reports not
// ready until SetReady(true).
func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a probe for /livez. Liveness failures mean the
// process itself is broken (leaked goroutines, runaway GC) and should be
// restarted.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, newProbe(name, timeout, check))
}

// AddReadinessCheck registers a probe for /readyz. Readiness failures mean
// the service cannot serve traffic right now (database unreachable) but may
// recover without a restart.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, newProbe(name, timeout, check))
}

func newProbe(name string, timeout time.Duration, check CheckFunc) *probe {
	// A fresh probe counts as passing until it has failed failAfter times.
	return &probe{name: name, timeout: timeout, check: check}
}

// Start launches the probe scheduler. All probes run once immediately and
// then every interval. Register all probes before calling Start.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.stop = cancel
	probes := append(append([]*probe(nil), s.liveness...), s.readiness...)
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			for _, p := range probes {
				p.run(ctx)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop halts the probe scheduler. Safe to call more than once.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

// SetReady flips the manual readiness gate. Pass false at the start of a
// graceful shutdown so load balancers drain the instance.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// passes.
func (s *Service) IsReady() bool {
	if !s.ready.Load() {
		return false
	}
	return len(s.failures(s.snapshot(&s.readiness))) == 0
}

func (s *Service) snapshot(probes *[]*probe) []*probe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*probe(nil), *probes...)
}

func (s *Service) failures(probes []*probe) map[string]string {
	var out map[string]string
	for _, p := range probes {
		if failing, msg := p.status(); failing {
			if out == nil {
				out = make(map[string]string)
			}
			out[p.name] = msg
		}
	}
	return out
}

// statusResponse is the body of both probe endpoints. Checks carries only
// the failing probes.
type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 {"status":"ok"} while every liveness probe
// passes, otherwise 503 listing the failing probes.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, s.failures(s.snapshot(&s.liveness)))
}

// ReadyEndpoint serves /readyz: 200 only when SetReady(true) has been called
// and every readiness probe passes.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failing := s.failures(s.snapshot(&s.readiness))
	if !s.ready.Load() {
		if failing == nil {
			failing = make(map[string]string)
		}
		failing["ready"] = "service not marked ready"
	}
	writeStatus(w, failing)
}

func writeStatus(w http.ResponseWriter, failing map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failing) > 0 {
		resp = statusResponse{Status: "unhealthy", Checks: failing}
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
