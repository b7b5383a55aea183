package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/logger"
	"github.com/existflow/ohm/internal/model"
	ohmsync "github.com/existflow/ohm/internal/sync"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeNote
	ModeConfirmDelete
	ModeHelp
)

// Board is the board state the TUI drives
type Board interface {
	Board() model.Board
	Subscribe(fn func(model.Board)) func()
	QuickAdd(title string, opts ...board.CardOption) (model.Card, error)
	Move(id string, to model.Status, note *string) (model.Card, error)
	DeleteCard(id string) error
	ReorderBatch(orderedIDs []string, touchedID string) error
}

// Syncer is the remote sync state machine
type Syncer interface {
	Snapshot() ohmsync.Snapshot
	OnChange(fn func(ohmsync.Snapshot)) func()
	Connect(ctx context.Context) bool
	ManualSync(ctx context.Context) bool
	Disconnect(ctx context.Context)
}

// Options tune the initial screen
type Options struct {
	// Welcome, when set, is shown as a greeting until the first key press
	Welcome *board.Summary
}

// Model is the main TUI model
type Model struct {
	ctrl Board
	sync Syncer
	ctx  context.Context

	board    model.Board
	snapshot ohmsync.Snapshot

	// Change notifications from other goroutines
	boardChan chan struct{}
	syncChan  chan ohmsync.Snapshot

	// UI state
	width   int
	height  int
	mode    Mode
	column  int
	cursors [4]int

	// Input
	input textinput.Model

	// pendingMove is the card waiting for a Grounded note
	pendingMove string

	welcome *board.Summary
	prompt  string
	busy    bool
	message string
}

// NewModel creates a new TUI model
func NewModel(ctrl Board, sync Syncer, opts Options) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	m := Model{
		ctrl:      ctrl,
		sync:      sync,
		ctx:       context.Background(),
		board:     ctrl.Board(),
		snapshot:  sync.Snapshot(),
		boardChan: make(chan struct{}, 1),
		syncChan:  make(chan ohmsync.Snapshot, 1),
		input:     ti,
		welcome:   opts.Welcome,
	}

	// Non-blocking sends: the UI only needs to know that something changed
	ctrl.Subscribe(func(model.Board) {
		select {
		case m.boardChan <- struct{}{}:
		default:
		}
	})
	sync.OnChange(func(s ohmsync.Snapshot) {
		select {
		case m.syncChan <- s:
		default:
			// Replace a stale snapshot nobody has read yet
			select {
			case <-m.syncChan:
			default:
			}
			select {
			case m.syncChan <- s:
			default:
			}
		}
	})

	logger.Debug("TUI model initialized", logger.F("cards", len(m.board.Cards)))
	return m
}

// currentStatus is the focused column
func (m Model) currentStatus() model.Status {
	return model.Statuses[m.column]
}

// columnCards returns the ordered cards of a column
func (m Model) columnCards(s model.Status) []model.Card {
	return board.ColumnCards(m.board, s)
}

// currentCard returns the selected card of the focused column
func (m Model) currentCard() (model.Card, bool) {
	cards := m.columnCards(m.currentStatus())
	if len(cards) == 0 {
		return model.Card{}, false
	}
	return cards[clamp(m.cursors[m.column], len(cards))], true
}

// reload refreshes the board copy and keeps cursors in range
func (m *Model) reload() {
	m.board = m.ctrl.Board()
	for i, s := range model.Statuses {
		n := len(m.columnCards(s))
		if n == 0 {
			m.cursors[i] = 0
			continue
		}
		m.cursors[i] = clamp(m.cursors[i], n)
	}
}

// focusCard moves the focus to the column and row holding id
func (m *Model) focusCard(id string) {
	for i, s := range model.Statuses {
		for j, c := range m.columnCards(s) {
			if c.ID == id {
				m.column = i
				m.cursors[i] = j
				return
			}
		}
	}
}
