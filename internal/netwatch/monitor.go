// Package netwatch tracks whether the remote store is reachable.
package netwatch

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/existflow/ohm/internal/logger"
)

// DefaultProbeURL answers 204 on any healthy connection
const DefaultProbeURL = "https://www.googleapis.com/generate_204"

// Monitor probes a URL on an interval and reports online/offline
// transitions to subscribers.
type Monitor struct {
	url      string
	interval time.Duration
	client   *http.Client

	mu     sync.Mutex
	online bool
	subs   map[int]func(online bool)
	nextID int
}

// Option configures a Monitor
type Option func(*Monitor)

// WithHTTPClient sets the client used for probes
func WithHTTPClient(hc *http.Client) Option {
	return func(m *Monitor) { m.client = hc }
}

// New creates a monitor. It starts out online, the way a freshly opened
// session assumes connectivity until a probe says otherwise.
func New(url string, interval time.Duration, opts ...Option) *Monitor {
	if url == "" {
		url = DefaultProbeURL
	}
	m := &Monitor{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 5 * time.Second},
		online:   true,
		subs:     make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Online reports the last observed state
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers fn for state transitions and returns a func that
// removes it.
func (m *Monitor) Subscribe(fn func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Probe checks connectivity once and records the result.
// Any HTTP response counts as online; only transport failures count as offline.
func (m *Monitor) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		logger.Error("Invalid probe URL", logger.F("url", m.url), logger.Err(err))
		return m.Online()
	}

	online := true
	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return m.Online()
		}
		logger.Debug("Connectivity probe failed", logger.Err(err))
		online = false
	} else {
		_ = resp.Body.Close()
	}
	m.Set(online)
	return online
}

// Set records a state and notifies subscribers if it changed
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if online {
		logger.Info("Connection restored")
	} else {
		logger.Warn("Connection lost")
	}
	for _, fn := range subs {
		fn(online)
	}
}

// Run probes immediately and then on every interval until ctx is done
func (m *Monitor) Run(ctx context.Context) {
	m.Probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
