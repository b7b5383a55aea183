package sync

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/existflow/ohm/internal/drive"
	"github.com/existflow/ohm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeAuth struct {
	mu         sync.Mutex
	configured bool
	readyAfter int
	initCalls  int
	silent     *oauth2.Token
	consent    *oauth2.Token
	requests   []drive.PromptMode
	revoked    []*oauth2.Token
}

func (a *fakeAuth) Configured() bool { return a.configured }

func (a *fakeAuth) Init(context.Context) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.initCalls++
	return a.initCalls >= a.readyAfter
}

func (a *fakeAuth) RequestAccessToken(_ context.Context, mode drive.PromptMode) *oauth2.Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, mode)
	if mode == drive.PromptNone {
		return a.silent
	}
	return a.consent
}

func (a *fakeAuth) Revoke(_ context.Context, tok *oauth2.Token) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked = append(a.revoked, tok)
}

type fakeRemote struct {
	mu     sync.Mutex
	board  *model.Board
	saveOK bool
	saves  []model.Board
	onSave func() // runs before Save returns, outside the lock
}

func (r *fakeRemote) Load(context.Context, *drive.Session) *model.Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.board == nil {
		return nil
	}
	b := r.board.Clone()
	return &b
}

func (r *fakeRemote) Save(_ context.Context, _ *drive.Session, b model.Board) bool {
	r.mu.Lock()
	r.saves = append(r.saves, b)
	ok, hook := r.saveOK, r.onSave
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return ok
}

func (r *fakeRemote) saved() []model.Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Board(nil), r.saves...)
}

type fakeHolder struct {
	mu       sync.Mutex
	board    model.Board
	replaced int
}

func (h *fakeHolder) Board() model.Board {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.board
}

func (h *fakeHolder) ReplaceBoard(b model.Board) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.board = b
	h.replaced++
}

type fakeFlags struct {
	mu  sync.Mutex
	set bool
}

func (f *fakeFlags) PreviouslySynced(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set
}

func (f *fakeFlags) SetPreviouslySynced(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = true
}

func (f *fakeFlags) ClearPreviouslySynced(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = false
}

type fakeNet struct {
	mu     sync.Mutex
	online bool
	subs   []func(bool)
}

func (n *fakeNet) Online() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online
}

func (n *fakeNet) Subscribe(fn func(bool)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, fn)
	return func() {}
}

func (n *fakeNet) set(online bool) {
	n.mu.Lock()
	n.online = online
	subs := slices.Clone(n.subs)
	n.mu.Unlock()
	for _, fn := range subs {
		fn(online)
	}
}

type harness struct {
	auth   *fakeAuth
	remote *fakeRemote
	holder *fakeHolder
	flags  *fakeFlags
	net    *fakeNet
	coord  *Coordinator
}

var (
	t1 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 = t1.Add(time.Hour)
)

func boardAt(ts time.Time, titles ...string) model.Board {
	b := model.DefaultBoard(ts)
	for i, title := range titles {
		b.Cards = append(b.Cards, model.Card{
			ID:        title,
			Title:     title,
			Energy:    model.EnergyMedium,
			CreatedAt: ts,
			UpdatedAt: ts,
			SortOrder: float64(i),
		})
	}
	return b
}

func validToken(access string) *oauth2.Token {
	return &oauth2.Token{AccessToken: access, Expiry: time.Now().Add(time.Hour)}
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		auth:   &fakeAuth{configured: true, readyAfter: 1, silent: validToken("silent")},
		remote: &fakeRemote{saveOK: true},
		holder: &fakeHolder{board: boardAt(t1, "local")},
		flags:  &fakeFlags{},
		net:    &fakeNet{online: true},
	}
	h.coord = New(Config{
		PushDebounce: 20 * time.Millisecond,
		PollInterval: time.Millisecond,
		PollAttempts: 10,
	}, Deps{Auth: h.auth, Remote: h.remote, Board: h.holder, Flags: h.flags, Net: h.net})
	t.Cleanup(h.coord.Close)
	return h
}

func TestStatusNames(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "offline", StatusOffline.String())
	assert.Equal(t, "unknown", Status(42).String())

	text, err := StatusSynced.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "synced", string(text))

	var s Status
	require.NoError(t, s.UnmarshalText([]byte("offline")))
	assert.Equal(t, StatusOffline, s)
	assert.Error(t, s.UnmarshalText([]byte("bogus")))
}

func TestInit_PollsUntilReady(t *testing.T) {
	h := newHarness(t)
	h.auth.readyAfter = 3

	require.True(t, h.coord.Init(context.Background()))
	assert.Equal(t, 3, h.auth.initCalls)
	assert.True(t, h.coord.Snapshot().Available)
	assert.False(t, h.coord.Snapshot().NeedsReconnect)
}

func TestInit_GivesUpAfterBoundedAttempts(t *testing.T) {
	h := newHarness(t)
	h.auth.readyAfter = 1000

	assert.False(t, h.coord.Init(context.Background()))
	assert.Equal(t, 11, h.auth.initCalls, "first try plus ten polls")
	assert.False(t, h.coord.Snapshot().Available)
}

func TestInit_NotConfigured(t *testing.T) {
	h := newHarness(t)
	h.auth.configured = false

	assert.False(t, h.coord.Init(context.Background()))
	assert.Equal(t, 0, h.auth.initCalls)
}

func TestInit_RemembersPreviousConnection(t *testing.T) {
	h := newHarness(t)
	h.flags.set = true

	require.True(t, h.coord.Init(context.Background()))
	assert.True(t, h.coord.Snapshot().NeedsReconnect)
	assert.False(t, h.coord.Snapshot().Connected)
}

func TestConnect_SilentFirst(t *testing.T) {
	h := newHarness(t)
	h.flags.set = true
	require.True(t, h.coord.Init(context.Background()))

	require.True(t, h.coord.Connect(context.Background()))
	assert.Equal(t, []drive.PromptMode{drive.PromptNone}, h.auth.requests)

	snap := h.coord.Snapshot()
	assert.True(t, snap.Connected)
	assert.False(t, snap.NeedsReconnect)
	assert.Equal(t, StatusSynced, snap.Status)
	assert.True(t, h.flags.set)

	// no remote board yet, so the local one is pushed
	require.Len(t, h.remote.saved(), 1)
	assert.Equal(t, h.holder.board, h.remote.saved()[0])
}

func TestConnect_FallsBackToConsent(t *testing.T) {
	h := newHarness(t)
	h.auth.silent = nil
	h.auth.consent = validToken("consent")

	require.True(t, h.coord.Connect(context.Background()))
	assert.Equal(t, []drive.PromptMode{drive.PromptNone, drive.PromptConsent}, h.auth.requests)
	assert.True(t, h.coord.Snapshot().Connected)
}

func TestConnect_Denied(t *testing.T) {
	h := newHarness(t)
	h.auth.silent = nil

	assert.False(t, h.coord.Connect(context.Background()))
	snap := h.coord.Snapshot()
	assert.False(t, snap.Connected)
	assert.Equal(t, StatusIdle, snap.Status)
	assert.False(t, h.flags.set)
	assert.Empty(t, h.remote.saved())
}

func TestMerge_RemoteNewerIsAdopted(t *testing.T) {
	h := newHarness(t)
	remote := boardAt(t2, "remote-a", "remote-b")
	h.remote.board = &remote

	require.True(t, h.coord.Connect(context.Background()))

	assert.Equal(t, remote, h.holder.board)
	assert.Equal(t, 1, h.holder.replaced)
	assert.Empty(t, h.remote.saved(), "adopting does not write back")
	assert.Equal(t, StatusSynced, h.coord.Snapshot().Status)
}

func TestMerge_LocalNewerIsPushed(t *testing.T) {
	h := newHarness(t)
	h.holder.board = boardAt(t2, "local")
	remote := boardAt(t1, "remote")
	h.remote.board = &remote
	local := h.holder.board

	require.True(t, h.coord.Connect(context.Background()))

	assert.Equal(t, 0, h.holder.replaced)
	assert.Equal(t, local, h.holder.board)
	require.Len(t, h.remote.saved(), 1)
	assert.Equal(t, local, h.remote.saved()[0])
}

func TestMerge_EqualTimestampsPushLocal(t *testing.T) {
	h := newHarness(t)
	remote := boardAt(t1, "remote")
	h.remote.board = &remote

	require.True(t, h.coord.Connect(context.Background()))
	assert.Equal(t, 0, h.holder.replaced)
	assert.Len(t, h.remote.saved(), 1)
}

func TestMerge_RemoteIsSanitized(t *testing.T) {
	h := newHarness(t)
	remote := boardAt(t2, "remote")
	remote.Cards[0].Status = model.Status(9)
	remote.LiveCapacity = 0
	h.remote.board = &remote

	require.True(t, h.coord.Connect(context.Background()))
	assert.Equal(t, model.StatusCharging, h.holder.board.Cards[0].Status)
	assert.Equal(t, model.DefaultLiveCapacity, h.holder.board.LiveCapacity)
}

func TestMerge_UnsupportedRemoteVersionIsOverwritten(t *testing.T) {
	h := newHarness(t)
	remote := boardAt(t2, "future")
	remote.Version = 2
	h.remote.board = &remote

	require.True(t, h.coord.Connect(context.Background()))
	assert.Equal(t, 0, h.holder.replaced)
	assert.Len(t, h.remote.saved(), 1)
}

func TestMerge_SaveFailureReportsError(t *testing.T) {
	h := newHarness(t)
	h.remote.saveOK = false

	require.True(t, h.coord.Connect(context.Background()))
	assert.Equal(t, StatusError, h.coord.Snapshot().Status)
	assert.True(t, h.coord.Snapshot().Connected)
}

func TestManualSync(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.coord.ManualSync(context.Background()), "not connected")

	require.True(t, h.coord.Connect(context.Background()))
	h.net.set(false)
	assert.False(t, h.coord.ManualSync(context.Background()), "offline")
	assert.Len(t, h.remote.saved(), 1)

	h.net.set(true)
	remote := boardAt(t2, "other-device")
	h.remote.board = &remote
	assert.True(t, h.coord.ManualSync(context.Background()))
	assert.Equal(t, remote, h.holder.board)
}

func TestQueueSync_Debounces(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.coord.Connect(context.Background()))

	h.coord.QueueSync(boardAt(t2, "a"))
	h.coord.QueueSync(boardAt(t2, "a", "b"))
	last := boardAt(t2, "a", "b", "c")
	h.coord.QueueSync(last)

	require.Eventually(t, func() bool { return len(h.remote.saved()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	saves := h.remote.saved()
	require.Len(t, saves, 2, "burst collapses into one push")
	assert.Equal(t, last, saves[1])
	assert.Equal(t, StatusSynced, h.coord.Snapshot().Status)
}

func TestQueueSync_IgnoredWhenDisconnected(t *testing.T) {
	h := newHarness(t)
	h.coord.QueueSync(boardAt(t2, "a"))

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, h.remote.saved())
}

func TestQueueSync_SkippedWhileOffline(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.coord.Connect(context.Background()))
	h.net.set(false)

	h.coord.QueueSync(boardAt(t2, "a"))
	time.Sleep(60 * time.Millisecond)

	assert.Len(t, h.remote.saved(), 1)
	assert.Equal(t, StatusOffline, h.coord.Snapshot().Status)
}

// staleToken is inside the oauth2 expiry margin, so it is already invalid
func staleToken(access string) *oauth2.Token {
	return &oauth2.Token{AccessToken: access, Expiry: time.Now().Add(time.Second)}
}

func TestQueueSync_RefreshesExpiredToken(t *testing.T) {
	h := newHarness(t)
	h.auth.silent = staleToken("short")
	require.True(t, h.coord.Connect(context.Background()))

	h.auth.mu.Lock()
	h.auth.silent = validToken("fresh")
	h.auth.mu.Unlock()

	h.coord.QueueSync(boardAt(t2, "a"))
	require.Eventually(t, func() bool { return len(h.remote.saved()) == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return h.coord.Snapshot().Status == StatusSynced }, time.Second, 5*time.Millisecond)

	assert.True(t, h.coord.Snapshot().Connected)
	assert.Equal(t, "fresh", h.coord.sess.Token().AccessToken)
}

func TestQueueSync_ExpiredTokenNeedsReconnect(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.auth.silent = staleToken("short")
	require.True(t, h.coord.Connect(ctx))

	h.coord.QueueSync(boardAt(t2, "a"))
	require.Eventually(t, func() bool { return h.coord.Snapshot().NeedsReconnect }, time.Second, 5*time.Millisecond)

	snap := h.coord.Snapshot()
	assert.False(t, snap.Connected)
	assert.Equal(t, StatusError, snap.Status)
	assert.Len(t, h.remote.saved(), 1, "nothing pushed with a stale token")
	assert.True(t, h.flags.PreviouslySynced(ctx))
	assert.False(t, h.coord.ManualSync(ctx))

	// an explicit reconnect works again
	h.auth.mu.Lock()
	h.auth.silent = nil
	h.auth.consent = validToken("consent")
	h.auth.mu.Unlock()
	require.True(t, h.coord.Connect(ctx))

	snap = h.coord.Snapshot()
	assert.True(t, snap.Connected)
	assert.False(t, snap.NeedsReconnect)
	assert.Equal(t, StatusSynced, snap.Status)
	assert.Len(t, h.remote.saved(), 2)
}

func TestManualSync_ExpiredTokenNeedsReconnect(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.auth.silent = staleToken("short")
	require.True(t, h.coord.Connect(ctx))

	assert.False(t, h.coord.ManualSync(ctx))
	snap := h.coord.Snapshot()
	assert.False(t, snap.Connected)
	assert.True(t, snap.NeedsReconnect)
	assert.Len(t, h.remote.saved(), 1)
}

func TestQueueSync_PushFailure(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.coord.Connect(context.Background()))
	h.remote.mu.Lock()
	h.remote.saveOK = false
	h.remote.mu.Unlock()

	h.coord.QueueSync(boardAt(t2, "a"))
	require.Eventually(t, func() bool { return h.coord.Snapshot().Status == StatusError }, time.Second, 5*time.Millisecond)
}

func TestConnectivity(t *testing.T) {
	h := newHarness(t)

	h.net.set(false)
	assert.Equal(t, StatusOffline, h.coord.Snapshot().Status)
	h.net.set(true)
	assert.Equal(t, StatusIdle, h.coord.Snapshot().Status)

	require.True(t, h.coord.Connect(context.Background()))
	h.net.set(true)
	assert.Equal(t, StatusSynced, h.coord.Snapshot().Status, "coming online keeps a non-offline status")
}

func TestMerge_OfflineDuringCallStaysOffline(t *testing.T) {
	h := newHarness(t)
	h.remote.onSave = func() { h.net.set(false) }

	require.True(t, h.coord.Connect(context.Background()))
	assert.False(t, h.net.Online())
	assert.Equal(t, StatusOffline, h.coord.Snapshot().Status)

	h.net.set(true)
	assert.Equal(t, StatusIdle, h.coord.Snapshot().Status)
}

func TestPush_OfflineDuringCallStaysOffline(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.coord.Connect(context.Background()))

	h.remote.mu.Lock()
	h.remote.onSave = func() { h.net.set(false) }
	h.remote.mu.Unlock()

	h.coord.QueueSync(boardAt(t2, "a"))
	require.Eventually(t, func() bool { return len(h.remote.saved()) == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StatusOffline, h.coord.Snapshot().Status)
}

func TestNew_StartsOfflineWhenOffline(t *testing.T) {
	net := &fakeNet{online: false}
	c := New(DefaultConfig(), Deps{Auth: &fakeAuth{}, Remote: &fakeRemote{}, Board: &fakeHolder{}, Flags: &fakeFlags{}, Net: net})
	defer c.Close()
	assert.Equal(t, StatusOffline, c.Snapshot().Status)
}

func TestDisconnect(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.coord.Connect(context.Background()))
	h.coord.QueueSync(boardAt(t2, "pending"))

	h.coord.Disconnect(context.Background())

	snap := h.coord.Snapshot()
	assert.False(t, snap.Connected)
	assert.False(t, snap.NeedsReconnect)
	assert.Equal(t, StatusIdle, snap.Status)
	assert.False(t, h.flags.set)
	require.Len(t, h.auth.revoked, 1)
	assert.Equal(t, "silent", h.auth.revoked[0].AccessToken)

	time.Sleep(60 * time.Millisecond)
	assert.Len(t, h.remote.saved(), 1, "pending push was cancelled")
	assert.Equal(t, boardAt(t1, "local"), h.holder.board, "local data untouched")
}

func TestClose_CancelsPendingPush(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.coord.Connect(context.Background()))
	h.coord.QueueSync(boardAt(t2, "pending"))

	h.coord.Close()
	h.coord.QueueSync(boardAt(t2, "after-close"))
	time.Sleep(60 * time.Millisecond)

	assert.Len(t, h.remote.saved(), 1)
}

func TestOnChange(t *testing.T) {
	h := newHarness(t)

	var mu sync.Mutex
	var statuses []Status
	unsubscribe := h.coord.OnChange(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, s.Status)
	})

	require.True(t, h.coord.Connect(context.Background()))
	unsubscribe()
	h.net.set(false)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusSyncing, StatusSynced}, statuses)
}
