package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/ohm/internal/logger"
	"github.com/existflow/ohm/internal/model"
	ohmsync "github.com/existflow/ohm/internal/sync"
)

// DevicePromptMsg carries sign-in instructions for the device flow
type DevicePromptMsg string

// BoardReloadedMsg is sent when the board was reloaded from disk
type BoardReloadedMsg struct{}

// boardChangedMsg is sent when the board changed outside the UI
type boardChangedMsg struct{}

// syncStatusMsg carries a new sync state
type syncStatusMsg ohmsync.Snapshot

// syncDoneMsg is sent when a background sync action finished
type syncDoneMsg struct {
	action string
	ok     bool
}

// Init starts listening for board and sync changes
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForBoard(), m.waitForSync())
}

// waitForBoard listens for board change signals
func (m Model) waitForBoard() tea.Cmd {
	return func() tea.Msg {
		<-m.boardChan
		return boardChangedMsg{}
	}
}

// waitForSync listens for sync state changes
func (m Model) waitForSync() tea.Cmd {
	return func() tea.Msg {
		return syncStatusMsg(<-m.syncChan)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardChangedMsg:
		m.reload()
		return m, m.waitForBoard()

	case BoardReloadedMsg:
		m.reload()
		m.message = "Board reloaded"
		return m, nil

	case syncStatusMsg:
		m.snapshot = ohmsync.Snapshot(msg)
		if m.snapshot.Connected {
			m.prompt = ""
		}
		return m, m.waitForSync()

	case DevicePromptMsg:
		m.prompt = string(msg)
		return m, nil

	case syncDoneMsg:
		m.busy = false
		m.prompt = ""
		m.snapshot = m.sync.Snapshot()
		m.message = syncDoneMessage(msg)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.welcome != nil {
			m.welcome = nil
			return m, nil
		}

		switch m.mode {
		case ModeAdd, ModeNote:
			return m.updateInput(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Left):
		m.column = (m.column + len(model.Statuses) - 1) % len(model.Statuses)

	case key.Matches(msg, keys.Right):
		m.column = (m.column + 1) % len(model.Statuses)

	case key.Matches(msg, keys.Up):
		if m.cursors[m.column] > 0 {
			m.cursors[m.column]--
		}

	case key.Matches(msg, keys.Down):
		if m.cursors[m.column] < len(m.columnCards(m.currentStatus()))-1 {
			m.cursors[m.column]++
		}

	case key.Matches(msg, keys.Add):
		return m.startInput(ModeAdd, "", "What needs doing?")

	case key.Matches(msg, keys.Advance):
		if card, ok := m.currentCard(); ok {
			next := model.ValidTransitions(card.Status)
			return m.moveTo(card, next[len(next)-1])
		}

	case key.Matches(msg, keys.Power):
		if card, ok := m.currentCard(); ok {
			return m.moveTo(card, model.StatusPowered)
		}

	case key.Matches(msg, keys.Ground):
		if card, ok := m.currentCard(); ok {
			return m.moveTo(card, model.StatusGrounded)
		}

	case msg.String() == "1", msg.String() == "2", msg.String() == "3", msg.String() == "4":
		if card, ok := m.currentCard(); ok {
			n, _ := strconv.Atoi(msg.String())
			return m.moveTo(card, model.Statuses[n-1])
		}

	case key.Matches(msg, keys.MoveUp):
		m.shiftCard(-1)

	case key.Matches(msg, keys.MoveDown):
		m.shiftCard(1)

	case key.Matches(msg, keys.Delete):
		if _, ok := m.currentCard(); ok {
			m.mode = ModeConfirmDelete
		}

	case key.Matches(msg, keys.Connect):
		return m.handleConnect()

	case key.Matches(msg, keys.Refresh):
		return m.handleRefresh()

	case key.Matches(msg, keys.Disconnect):
		return m.handleDisconnect()

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m Model) startInput(mode Mode, value, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.SetValue(value)
	m.input.Placeholder = placeholder
	m.input.CursorEnd()
	m.input.Focus()
	return m, textinput.Blink
}

// moveTo moves card along the circuit. Entering Grounded asks for a note first.
func (m Model) moveTo(card model.Card, to model.Status) (tea.Model, tea.Cmd) {
	if card.Status == to {
		return m, nil
	}
	if !model.CanTransition(card.Status, to) {
		m.message = fmt.Sprintf("Can't move %s → %s", card.Status, to)
		return m, nil
	}
	if to == model.StatusGrounded {
		m.pendingMove = card.ID
		return m.startInput(ModeNote, card.WhereILeftOff, "Where did you leave off?")
	}

	m.applyMove(card.ID, to, nil)
	return m, nil
}

func (m *Model) applyMove(id string, to model.Status, note *string) {
	moved, err := m.ctrl.Move(id, to, note)
	if err != nil {
		logger.Warn("Move failed", logger.F("id", id), logger.Err(err))
		m.message = fmt.Sprintf("Error: %v", err)
		return
	}
	m.reload()
	m.message = fmt.Sprintf("%s → %s", truncate(moved.Title, 30), to)
}

// shiftCard swaps the selected card with its neighbour in the column
func (m *Model) shiftCard(delta int) {
	cards := m.columnCards(m.currentStatus())
	i := m.cursors[m.column]
	j := i + delta
	if len(cards) < 2 || i >= len(cards) || j < 0 || j >= len(cards) {
		return
	}

	ids := make([]string, len(cards))
	for k, c := range cards {
		ids[k] = c.ID
	}
	touched := ids[i]
	ids[i], ids[j] = ids[j], ids[i]

	if err := m.ctrl.ReorderBatch(ids, touched); err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return
	}
	m.reload()
	m.cursors[m.column] = j
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.pendingMove = ""
		m.input.Blur()
		return m, nil

	case key.Matches(msg, keys.Enter):
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = ModeNormal
		m.input.Blur()

		switch mode {
		case ModeAdd:
			if value == "" {
				return m, nil
			}
			card, err := m.ctrl.QuickAdd(value)
			if err != nil {
				m.message = fmt.Sprintf("Error adding card: %v", err)
				return m, nil
			}
			m.reload()
			m.focusCard(card.ID)
			m.message = fmt.Sprintf("Added: %s", truncate(card.Title, 40))

		case ModeNote:
			id := m.pendingMove
			m.pendingMove = ""
			m.applyMove(id, model.StatusGrounded, &value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	if !key.Matches(msg, keys.Confirm) {
		m.message = "Delete cancelled"
		return m, nil
	}

	card, ok := m.currentCard()
	if !ok {
		return m, nil
	}
	if err := m.ctrl.DeleteCard(card.ID); err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return m, nil
	}
	m.reload()
	m.message = fmt.Sprintf("Deleted: %s", truncate(card.Title, 40))
	return m, nil
}

func (m Model) handleConnect() (tea.Model, tea.Cmd) {
	switch {
	case m.busy:
		return m, nil
	case !m.snapshot.Available:
		m.message = "Sync is not set up (run 'ohm sync setup')"
		return m, nil
	case m.snapshot.Connected:
		m.message = "Already connected"
		return m, nil
	}

	m.busy = true
	m.message = "Connecting to Google Drive..."
	s, ctx := m.sync, m.ctx
	return m, func() tea.Msg {
		return syncDoneMsg{action: "connect", ok: s.Connect(ctx)}
	}
}

func (m Model) handleRefresh() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if !m.snapshot.Connected {
		m.message = "Not connected (press c to connect)"
		return m, nil
	}

	m.busy = true
	s, ctx := m.sync, m.ctx
	return m, func() tea.Msg {
		return syncDoneMsg{action: "sync", ok: s.ManualSync(ctx)}
	}
}

func (m Model) handleDisconnect() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if !m.snapshot.Connected && !m.snapshot.NeedsReconnect {
		m.message = "Not connected"
		return m, nil
	}

	m.busy = true
	s, ctx := m.sync, m.ctx
	return m, func() tea.Msg {
		s.Disconnect(ctx)
		return syncDoneMsg{action: "disconnect", ok: true}
	}
}

func syncDoneMessage(msg syncDoneMsg) string {
	switch msg.action {
	case "connect":
		if msg.ok {
			return "Connected to Google Drive"
		}
		return "Could not connect to Google Drive"
	case "disconnect":
		return "Disconnected from Google Drive"
	default:
		if msg.ok {
			return "Synced"
		}
		return "Sync skipped"
	}
}
