package netwatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	m := New(srv.URL, time.Hour, WithHTTPClient(srv.Client()))

	var mu sync.Mutex
	var seen []bool
	m.Subscribe(func(online bool) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, online)
	})

	assert.True(t, m.Probe(context.Background()))
	assert.True(t, m.Online())

	srv.Close()
	assert.False(t, m.Probe(context.Background()))
	assert.False(t, m.Online())
	assert.False(t, m.Probe(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false}, seen, "only transitions are reported")
}

func TestServerErrorStillOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := New(srv.URL, time.Hour, WithHTTPClient(srv.Client()))
	m.Set(false)
	assert.True(t, m.Probe(context.Background()))
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	m := New("http://127.0.0.1:0", time.Hour)

	calls := 0
	unsubscribe := m.Subscribe(func(bool) { calls++ })
	m.Set(false)
	m.Set(true)
	unsubscribe()
	m.Set(false)

	assert.Equal(t, 2, calls)
}

func TestRunStopsWithContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	m := New(srv.URL, 10*time.Millisecond, WithHTTPClient(srv.Client()))
	m.Set(false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, m.Online, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
