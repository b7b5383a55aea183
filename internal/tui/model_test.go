package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/controller"
	"github.com/existflow/ohm/internal/model"
	"github.com/existflow/ohm/internal/storage"
	ohmsync "github.com/existflow/ohm/internal/sync"
	"github.com/existflow/ohm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	snap     ohmsync.Snapshot
	listener func(ohmsync.Snapshot)
	connects int
	syncs    int
}

func (f *fakeSyncer) Snapshot() ohmsync.Snapshot { return f.snap }

func (f *fakeSyncer) OnChange(fn func(ohmsync.Snapshot)) func() {
	f.listener = fn
	return func() {}
}

func (f *fakeSyncer) Connect(context.Context) bool {
	f.connects++
	f.snap.Connected = true
	return true
}

func (f *fakeSyncer) ManualSync(context.Context) bool {
	f.syncs++
	return true
}

func (f *fakeSyncer) Disconnect(context.Context) {
	f.snap.Connected = false
}

func newTestModel(t *testing.T, opts Options) (Model, *controller.Controller, *fakeSyncer) {
	t.Helper()
	ctrl := controller.New(context.Background(), storage.New(testutil.TestDB(t)),
		controller.WithSaveDebounce(time.Hour))
	t.Cleanup(func() { ctrl.Close(context.Background()) })
	fake := &fakeSyncer{}
	return NewModel(ctrl, fake, opts), ctrl, fake
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestQuickAdd(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Options{})

	m = send(t, m, runes("a"))
	require.Equal(t, ModeAdd, m.mode)

	m = send(t, m, runes("Buy milk"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeNormal, m.mode)
	assert.Contains(t, m.message, "Added")

	cards := ctrl.Board().Cards
	require.Len(t, cards, 1)
	assert.Equal(t, "Buy milk", cards[0].Title)
	assert.Equal(t, model.StatusCharging, cards[0].Status)

	card, ok := m.currentCard()
	require.True(t, ok)
	assert.Equal(t, cards[0].ID, card.ID)
}

func TestQuickAdd_EscapeCancels(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Options{})

	m = send(t, m, runes("a"), runes("nope"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeNormal, m.mode)
	assert.Empty(t, ctrl.Board().Cards)
}

func TestAdvance(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Options{})
	card, err := ctrl.QuickAdd("task")
	require.NoError(t, err)
	m.reload()

	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	got, err := ctrl.Card(card.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLive, got.Status)

	// Live advances to Powered
	m = send(t, m, runes("l"), tea.KeyMsg{Type: tea.KeySpace})
	got, err = ctrl.Card(card.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPowered, got.Status)
	assert.Equal(t, 1, m.column)
}

func TestGround_AsksForNote(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Options{})
	card, err := ctrl.QuickAdd("chapter")
	require.NoError(t, err)
	_, err = ctrl.Move(card.ID, model.StatusLive, nil)
	require.NoError(t, err)
	m.reload()

	m = send(t, m, runes("l"), runes("g"))
	require.Equal(t, ModeNote, m.mode)
	assert.Equal(t, card.ID, m.pendingMove)

	m = send(t, m, runes("mid scene two"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeNormal, m.mode)

	got, err := ctrl.Card(card.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusGrounded, got.Status)
	assert.Equal(t, "mid scene two", got.WhereILeftOff)
}

func TestGround_EscapeKeepsCard(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Options{})
	card, err := ctrl.QuickAdd("chapter")
	require.NoError(t, err)
	_, err = ctrl.Move(card.ID, model.StatusLive, nil)
	require.NoError(t, err)
	m.reload()

	m = send(t, m, runes("l"), runes("g"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeNormal, m.mode)
	assert.Empty(t, m.pendingMove)

	got, err := ctrl.Card(card.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusLive, got.Status)
}

func TestMove_InvalidTransition(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Options{})
	card, err := ctrl.QuickAdd("task")
	require.NoError(t, err)
	m.reload()

	m = send(t, m, runes("x"))
	assert.Contains(t, m.message, "Can't move")

	m = send(t, m, runes("3"))
	got, err := ctrl.Card(card.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCharging, got.Status)
}

func TestDelete(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Options{})
	_, err := ctrl.QuickAdd("keep")
	require.NoError(t, err)
	m.reload()

	m = send(t, m, runes("d"))
	require.Equal(t, ModeConfirmDelete, m.mode)
	m = send(t, m, runes("n"))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Len(t, ctrl.Board().Cards, 1)

	m = send(t, m, runes("d"), runes("y"))
	assert.Empty(t, ctrl.Board().Cards)
	assert.Contains(t, m.message, "Deleted")
}

func TestReorder(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Options{})
	first, err := ctrl.QuickAdd("first")
	require.NoError(t, err)
	orig := board.Clock
	board.Clock = func() time.Time { return first.CreatedAt.Add(time.Second) }
	t.Cleanup(func() { board.Clock = orig })
	_, err = ctrl.QuickAdd("second")
	require.NoError(t, err)
	m.reload()

	m = send(t, m, runes("J"))
	assert.Equal(t, 1, m.cursors[0])

	cards := board.ColumnCards(ctrl.Board(), model.StatusCharging)
	require.Len(t, cards, 2)
	assert.Equal(t, "second", cards[0].Title)
	assert.Equal(t, "first", cards[1].Title)
}

func TestWelcome_DismissedByAnyKey(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Options{Welcome: &board.Summary{Live: 2}})
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Contains(t, m.View(), "Welcome back")

	m = send(t, m, runes("a"))
	assert.Nil(t, m.welcome)
	assert.Equal(t, ModeNormal, m.mode)
	assert.Empty(t, ctrl.Board().Cards)
}

func TestConnect(t *testing.T) {
	m, _, fake := newTestModel(t, Options{})

	m = send(t, m, runes("c"))
	assert.Contains(t, m.message, "not set up")
	assert.Zero(t, fake.connects)

	m = send(t, m, syncStatusMsg(ohmsync.Snapshot{Available: true}), DevicePromptMsg("open example.com"))
	assert.Equal(t, "open example.com", m.prompt)

	next, cmd := m.Update(runes("c"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	m = send(t, m, cmd())
	assert.False(t, m.busy)
	assert.Empty(t, m.prompt)
	assert.Equal(t, 1, fake.connects)
	assert.True(t, m.snapshot.Connected)
	assert.Equal(t, "Connected to Google Drive", m.message)
}

func TestConnect_AfterTokenExpiry(t *testing.T) {
	m, _, fake := newTestModel(t, Options{})
	m = send(t, m, syncStatusMsg(ohmsync.Snapshot{
		Available:      true,
		NeedsReconnect: true,
		Status:         ohmsync.StatusError,
	}))
	m = send(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})
	assert.Contains(t, m.View(), "reconnect (c)")

	next, cmd := m.Update(runes("c"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.NotContains(t, m.message, "Already connected")
	m = send(t, m, cmd())
	assert.Equal(t, 1, fake.connects)
	assert.True(t, m.snapshot.Connected)
}

func TestRefresh_RequiresConnection(t *testing.T) {
	m, _, fake := newTestModel(t, Options{})

	m = send(t, m, runes("r"))
	assert.Contains(t, m.message, "Not connected")

	fake.snap = ohmsync.Snapshot{Available: true, Connected: true}
	m = send(t, m, syncStatusMsg(fake.snap))
	_, cmd := m.Update(runes("r"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, fake.syncs)
}

func TestExternalChanges(t *testing.T) {
	m, ctrl, fake := newTestModel(t, Options{})

	_, err := ctrl.QuickAdd("from elsewhere")
	require.NoError(t, err)
	msg := m.waitForBoard()()
	m = send(t, m, msg)
	assert.Len(t, m.board.Cards, 1)

	fake.listener(ohmsync.Snapshot{Available: true, Connected: true, Status: ohmsync.StatusSynced})
	m = send(t, m, m.waitForSync()())
	assert.Equal(t, ohmsync.StatusSynced, m.snapshot.Status)
}

func TestView(t *testing.T) {
	m, ctrl, _ := newTestModel(t, Options{})
	assert.Equal(t, "Loading...", m.View())

	_, err := ctrl.QuickAdd("Paint the fence", board.WithNextStep("buy paint"))
	require.NoError(t, err)
	m.reload()
	m = send(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})

	view := m.View()
	for _, s := range model.Statuses {
		assert.Contains(t, view, s.String())
	}
	assert.Contains(t, view, "Paint the fence")
	assert.Contains(t, view, "local only")

	m = send(t, m, runes("?"))
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
}
