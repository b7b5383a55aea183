// Package sync keeps the local board and the remote board file in step.
//
// Remote sync is a best-effort overlay: every failure degrades to a status
// value and local editing is never blocked.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/existflow/ohm/internal/drive"
	"github.com/existflow/ohm/internal/logger"
	"github.com/existflow/ohm/internal/model"
	"github.com/existflow/ohm/internal/storage"
	"golang.org/x/oauth2"
)

// Status is the user-facing sync state
type Status int

const (
	StatusIdle Status = iota
	StatusSyncing
	StatusSynced
	StatusError
	StatusOffline
)

var statusNames = [...]string{"idle", "syncing", "synced", "error", "offline"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// MarshalText renders the status by name in JSON
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown sync status %q", text)
}

// Snapshot is a consistent view of the coordinator state
type Snapshot struct {
	Available      bool   `json:"available"`
	Connected      bool   `json:"connected"`
	Status         Status `json:"status"`
	NeedsReconnect bool   `json:"needsReconnect"`
}

// Authenticator acquires and revokes tokens
type Authenticator interface {
	Configured() bool
	Init(ctx context.Context) bool
	RequestAccessToken(ctx context.Context, mode drive.PromptMode) *oauth2.Token
	Revoke(ctx context.Context, tok *oauth2.Token)
}

// RemoteStore reads and writes the remote board file
type RemoteStore interface {
	Load(ctx context.Context, sess *drive.Session) *model.Board
	Save(ctx context.Context, sess *drive.Session, b model.Board) bool
}

// BoardHolder owns the in-memory board
type BoardHolder interface {
	Board() model.Board
	ReplaceBoard(b model.Board)
}

// SyncFlag remembers a previous successful connection across restarts
type SyncFlag interface {
	PreviouslySynced(ctx context.Context) bool
	SetPreviouslySynced(ctx context.Context)
	ClearPreviouslySynced(ctx context.Context)
}

// Connectivity reports online state and its transitions
type Connectivity interface {
	Online() bool
	Subscribe(fn func(online bool)) func()
}

// Config holds the coordinator timings
type Config struct {
	PushDebounce time.Duration
	PollInterval time.Duration
	PollAttempts int
}

// DefaultConfig returns the standard timings
func DefaultConfig() Config {
	return Config{
		PushDebounce: 2 * time.Second,
		PollInterval: 500 * time.Millisecond,
		PollAttempts: 10,
	}
}

// Deps are the collaborators of a Coordinator. Net may be nil, in which case
// the coordinator assumes it is always online.
type Deps struct {
	Auth   Authenticator
	Remote RemoteStore
	Board  BoardHolder
	Flags  SyncFlag
	Net    Connectivity
}

type alwaysOnline struct{}

func (alwaysOnline) Online() bool                { return true }
func (alwaysOnline) Subscribe(func(bool)) func() { return func() {} }

var errAuthNotReady = errors.New("auth client not ready")

// Coordinator bridges the board, local persistence and the remote store
type Coordinator struct {
	cfg    Config
	auth   Authenticator
	remote RemoteStore
	board  BoardHolder
	flags  SyncFlag
	net    Connectivity
	sess   *drive.Session

	ctx    context.Context
	cancel context.CancelFunc

	mergeMu sync.Mutex
	pushMu  sync.Mutex

	mu             sync.Mutex
	available      bool
	connected      bool
	needsReconnect bool
	status         Status
	pushTimer      *time.Timer
	closed         bool
	listeners      map[int]func(Snapshot)
	nextListener   int
	unsubscribeNet func()
}

// New creates a coordinator and starts tracking connectivity
func New(cfg Config, deps Deps) *Coordinator {
	if deps.Net == nil {
		deps.Net = alwaysOnline{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		cfg:       cfg,
		auth:      deps.Auth,
		remote:    deps.Remote,
		board:     deps.Board,
		flags:     deps.Flags,
		net:       deps.Net,
		sess:      drive.NewSession(),
		ctx:       ctx,
		cancel:    cancel,
		listeners: make(map[int]func(Snapshot)),
	}
	if !c.net.Online() {
		c.status = StatusOffline
	}
	c.unsubscribeNet = c.net.Subscribe(c.onConnectivity)
	return c
}

// bind derives a context that is also cancelled when the coordinator closes
func (c *Coordinator) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Snapshot returns the current state
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{
		Available:      c.available,
		Connected:      c.connected,
		Status:         c.status,
		NeedsReconnect: c.needsReconnect,
	}
}

// OnChange registers fn to receive every state change. The returned func
// removes it.
func (c *Coordinator) OnChange(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// update applies fn under the lock and notifies listeners afterwards
func (c *Coordinator) update(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (c *Coordinator) setStatus(s Status) {
	c.update(func() { c.status = s })
}

// Init readies the auth client, polling a bounded number of times while it
// is not ready. When it gives up remote sync stays unavailable for the
// session.
func (c *Coordinator) Init(ctx context.Context) bool {
	if !c.auth.Configured() {
		logger.Info("Remote sync not configured, running local-only")
		return false
	}
	ctx, cancel := c.bind(ctx)
	defer cancel()

	attempts := 0
	_, err := backoff.Retry(ctx, func() (bool, error) {
		attempts++
		if c.auth.Init(ctx) {
			return true, nil
		}
		return false, errAuthNotReady
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(c.cfg.PollInterval)),
		backoff.WithMaxTries(uint(c.cfg.PollAttempts)+1),
	)
	if err != nil {
		logger.Warn("Remote sync unavailable", logger.F("attempts", attempts), logger.Err(err))
		return false
	}

	reconnect := c.flags.PreviouslySynced(ctx)
	c.update(func() {
		c.available = true
		c.needsReconnect = reconnect && !c.connected
	})
	logger.Info("Remote sync available", logger.F("attempts", attempts), logger.F("needsReconnect", reconnect))
	return true
}

// Connect acquires a token, silently first and with consent as a fallback,
// then merges with the remote board. It reports whether a token was acquired.
func (c *Coordinator) Connect(ctx context.Context) bool {
	ctx, cancel := c.bind(ctx)
	defer cancel()

	tok := c.auth.RequestAccessToken(ctx, drive.PromptNone)
	if tok == nil {
		tok = c.auth.RequestAccessToken(ctx, drive.PromptConsent)
	}
	if tok == nil {
		logger.Warn("Remote connect failed")
		return false
	}

	c.sess.SetToken(tok)
	c.flags.SetPreviouslySynced(ctx)
	c.update(func() {
		c.connected = true
		c.needsReconnect = false
		c.status = StatusSyncing
	})
	logger.Info("Remote connected")

	c.merge(ctx)
	return true
}

// ManualSync runs the merge protocol. It does nothing unless connected and
// online, and reports whether a merge ran.
func (c *Coordinator) ManualSync(ctx context.Context) bool {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected || !c.net.Online() {
		logger.Debug("Manual sync skipped", logger.F("connected", connected))
		return false
	}

	ctx, cancel := c.bind(ctx)
	defer cancel()

	if !c.ensureToken(ctx) {
		return false
	}
	c.setStatus(StatusSyncing)
	c.merge(ctx)
	return true
}

// ensureToken refreshes an expired session token from the cached grant.
// When that fails the session drops to needs-reconnect so an explicit
// Connect can run again.
func (c *Coordinator) ensureToken(ctx context.Context) bool {
	if c.sess.IsAuthenticated() {
		return true
	}
	if tok := c.auth.RequestAccessToken(ctx, drive.PromptNone); tok != nil && tok.Valid() {
		c.sess.SetToken(tok)
		logger.Info("Access token refreshed", logger.F("expiry", tok.Expiry))
		return true
	}

	logger.Warn("Access token expired and could not be refreshed")
	c.update(func() {
		if c.pushTimer != nil {
			c.pushTimer.Stop()
			c.pushTimer = nil
		}
		c.connected = false
		c.needsReconnect = true
		c.status = StatusError
	})
	return false
}

// settle records the outcome of a remote call. If connectivity was lost
// while the call ran, offline stays visible instead.
func (c *Coordinator) settle(s Status) {
	online := c.net.Online()
	c.update(func() {
		if !online || c.status == StatusOffline {
			c.status = StatusOffline
			return
		}
		c.status = s
	})
}

// merge adopts the remote board when it is strictly newer and pushes the
// local board otherwise.
func (c *Coordinator) merge(ctx context.Context) {
	c.mergeMu.Lock()
	defer c.mergeMu.Unlock()

	local := c.board.Board()
	remote := c.remote.Load(ctx, c.sess)
	if remote != nil && remote.Version != model.SchemaVersion {
		logger.Warn("Ignoring remote board with unsupported version", logger.F("version", remote.Version))
		remote = nil
	}

	if remote != nil {
		adopted := storage.Sanitize(*remote)
		if adopted.LastSaved.After(local.LastSaved) {
			c.board.ReplaceBoard(adopted)
			c.settle(StatusSynced)
			logger.Info("Adopted newer remote board",
				logger.F("remote", adopted.LastSaved),
				logger.F("local", local.LastSaved))
			return
		}
	}

	if c.remote.Save(ctx, c.sess, local) {
		c.settle(StatusSynced)
		logger.Info("Pushed local board", logger.F("lastSaved", local.LastSaved))
		return
	}
	c.settle(StatusError)
}

// QueueSync schedules a push of b after the debounce window, replacing any
// push already pending. It does nothing unless connected.
func (c *Coordinator) QueueSync(b model.Board) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.closed {
		return
	}
	if c.pushTimer != nil {
		c.pushTimer.Stop()
	}
	c.pushTimer = time.AfterFunc(c.cfg.PushDebounce, func() {
		c.push(b)
	})
}

func (c *Coordinator) push(b model.Board) {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	if !c.net.Online() {
		c.setStatus(StatusOffline)
		logger.Debug("Push skipped while offline")
		return
	}

	ctx, cancel := c.bind(context.Background())
	defer cancel()

	if !c.ensureToken(ctx) {
		return
	}
	c.setStatus(StatusSyncing)
	if c.remote.Save(ctx, c.sess, b) {
		c.settle(StatusSynced)
		return
	}
	c.settle(StatusError)
}

// Disconnect revokes the token and forgets the connection. Local data is
// untouched.
func (c *Coordinator) Disconnect(ctx context.Context) {
	ctx, cancel := c.bind(ctx)
	defer cancel()

	c.auth.Revoke(ctx, c.sess.Token())
	c.sess.Clear()
	c.flags.ClearPreviouslySynced(ctx)
	c.update(func() {
		if c.pushTimer != nil {
			c.pushTimer.Stop()
			c.pushTimer = nil
		}
		c.connected = false
		c.needsReconnect = false
		c.status = StatusIdle
	})
	logger.Info("Remote disconnected")
}

func (c *Coordinator) onConnectivity(online bool) {
	c.update(func() {
		switch {
		case !online:
			c.status = StatusOffline
		case c.status == StatusOffline:
			c.status = StatusIdle
		}
	})
}

// Close cancels the pending push and any in-flight remote call
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.pushTimer != nil {
		c.pushTimer.Stop()
		c.pushTimer = nil
	}
	unsubscribe := c.unsubscribeNet
	c.mu.Unlock()

	unsubscribe()
	c.cancel()
}
