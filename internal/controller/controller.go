// Package controller owns the live in-memory board for a session.
//
// Every mutation updates the board at once, notifies subscribers and schedules
// a debounced local save. ReplaceBoard writes through immediately.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/logger"
	"github.com/existflow/ohm/internal/model"
)

// DefaultSaveDebounce is the quiet period before a local save
const DefaultSaveDebounce = 500 * time.Millisecond

// WelcomeBackAfter is how long the board must have been closed before a
// welcome-back summary is shown
const WelcomeBackAfter = 24 * time.Hour

var (
	ErrCardNotFound     = errors.New("card not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrNoCapacity       = errors.New("column has no capacity")
	ErrTransition       = errors.New("invalid transition")
)

// LocalStore is the durable home of the board
type LocalStore interface {
	Load(ctx context.Context) model.Board
	Stored(ctx context.Context) (model.Board, bool)
	Save(ctx context.Context, b model.Board)
	TouchLastOpened(ctx context.Context, now time.Time) (time.Time, bool)
}

// Option configures a Controller
type Option func(*Controller)

// WithSaveDebounce overrides the local save quiet period
func WithSaveDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// Controller is the board state container
type Controller struct {
	store    LocalStore
	debounce time.Duration

	// saveMu orders writes so an older snapshot never lands after a newer one
	saveMu sync.Mutex

	mu        sync.Mutex
	board     model.Board
	dirty     bool
	saveTimer *time.Timer
	closed    bool
	subs      map[int]func(model.Board)
	nextSub   int
}

// New loads the board from store
func New(ctx context.Context, store LocalStore, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		debounce: DefaultSaveDebounce,
		subs:     make(map[int]func(model.Board)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.board = store.Load(ctx)
	logger.Debug("Board loaded",
		logger.F("cards", len(c.board.Cards)),
		logger.F("lastSaved", c.board.LastSaved))
	return c
}

// Board returns a copy of the current board
func (c *Controller) Board() model.Board {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.board.Clone()
}

// Card returns the card with the given id
func (c *Controller) Card(id string) (model.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	card, ok := c.board.FindCard(id)
	if !ok {
		return model.Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return card, nil
}

// Subscribe registers fn to receive the board after every change. The
// returned func removes it.
func (c *Controller) Subscribe(fn func(model.Board)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// mutate applies fn to the board. fn may reject the change by returning an
// error, in which case nothing is saved or published.
func (c *Controller) mutate(fn func(b model.Board) (model.Board, error)) error {
	c.mu.Lock()
	next, err := fn(c.board)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.board = next
	c.scheduleSaveLocked()
	snap, subs := c.publishLocked()
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return nil
}

func (c *Controller) publishLocked() (model.Board, []func(model.Board)) {
	subs := make([]func(model.Board), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return c.board.Clone(), subs
}

func (c *Controller) scheduleSaveLocked() {
	c.dirty = true
	if c.closed {
		return
	}
	if c.saveTimer != nil {
		c.saveTimer.Stop()
	}
	c.saveTimer = time.AfterFunc(c.debounce, func() {
		c.Flush(context.Background())
	})
}

// Flush writes the board now if a save is pending
func (c *Controller) Flush(ctx context.Context) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return
	}
	if c.saveTimer != nil {
		c.saveTimer.Stop()
		c.saveTimer = nil
	}
	c.dirty = false
	b := c.board.Clone()
	c.mu.Unlock()

	c.store.Save(ctx, b)
}

// Close writes any pending save and cancels the save timer. Mutations after
// Close stay in memory only.
func (c *Controller) Close(ctx context.Context) {
	c.Flush(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.saveTimer != nil {
		c.saveTimer.Stop()
		c.saveTimer = nil
	}
}

// QuickAdd creates a Charging card with the given title
func (c *Controller) QuickAdd(title string, opts ...board.CardOption) (model.Card, error) {
	card := board.CreateCard(title, opts...)
	err := c.mutate(func(b model.Board) (model.Board, error) {
		if err := model.ValidateCard(card, b); err != nil {
			return b, err
		}
		return board.AddCard(b, card), nil
	})
	if err != nil {
		return model.Card{}, err
	}
	logger.Info("Card added", logger.F("id", card.ID), logger.F("title", card.Title))
	return card, nil
}

// Move changes a card's column. Moving to the current column is a no-op.
// The note is stored only when entering Grounded; nil keeps the existing note.
func (c *Controller) Move(id string, to model.Status, note *string) (model.Card, error) {
	if !to.Valid() {
		return model.Card{}, fmt.Errorf("%w: unknown column %d", ErrTransition, to)
	}

	var moved model.Card
	err := c.mutate(func(b model.Board) (model.Board, error) {
		card, ok := b.FindCard(id)
		if !ok {
			return b, fmt.Errorf("%w: %s", ErrCardNotFound, id)
		}
		if card.Status == to {
			moved = card
			return b, errNoop
		}
		if !model.CanTransition(card.Status, to) {
			return b, fmt.Errorf("%w: %s to %s", ErrTransition, card.Status, to)
		}
		moved = board.MoveCard(card, to, note)
		return board.UpdateCard(b, moved), nil
	})
	if errors.Is(err, errNoop) {
		return moved, nil
	}
	if err != nil {
		return model.Card{}, err
	}
	logger.Info("Card moved", logger.F("id", id), logger.F("to", to))
	return moved, nil
}

var errNoop = errors.New("no change")

// UpdateCard replaces a card's content. Identity and creation time are kept.
func (c *Controller) UpdateCard(card model.Card) (model.Card, error) {
	var updated model.Card
	err := c.mutate(func(b model.Board) (model.Board, error) {
		existing, ok := b.FindCard(card.ID)
		if !ok {
			return b, fmt.Errorf("%w: %s", ErrCardNotFound, card.ID)
		}
		if err := model.ValidateCard(card, b); err != nil {
			return b, err
		}
		card.CreatedAt = existing.CreatedAt
		card.UpdatedAt = board.Clock()
		updated = card
		return board.UpdateCard(b, card), nil
	})
	if err != nil {
		return model.Card{}, err
	}
	return updated, nil
}

// DeleteCard removes a card
func (c *Controller) DeleteCard(id string) error {
	err := c.mutate(func(b model.Board) (model.Board, error) {
		if _, ok := b.FindCard(id); !ok {
			return b, fmt.Errorf("%w: %s", ErrCardNotFound, id)
		}
		return board.RemoveCard(b, id), nil
	})
	if err == nil {
		logger.Info("Card deleted", logger.F("id", id))
	}
	return err
}

// Reorder sets one card's sort key
func (c *Controller) Reorder(id string, sortOrder float64) error {
	return c.mutate(func(b model.Board) (model.Board, error) {
		if _, ok := b.FindCard(id); !ok {
			return b, fmt.Errorf("%w: %s", ErrCardNotFound, id)
		}
		return board.ReorderCard(b, id, sortOrder), nil
	})
}

// ReorderBatch renumbers the given cards in order. Only touchedID counts as
// edited.
func (c *Controller) ReorderBatch(orderedIDs []string, touchedID string) error {
	return c.mutate(func(b model.Board) (model.Board, error) {
		for _, id := range orderedIDs {
			if _, ok := b.FindCard(id); !ok {
				return b, fmt.Errorf("%w: %s", ErrCardNotFound, id)
			}
		}
		return board.ReorderBatch(b, orderedIDs, touchedID), nil
	})
}

// SetCapacity changes a tracked column's energy budget
func (c *Controller) SetCapacity(status model.Status, n int) error {
	if err := model.ValidateCapacity(n); err != nil {
		return fmt.Errorf("capacity: %w", err)
	}
	return c.mutate(func(b model.Board) (model.Board, error) {
		if _, ok := b.Capacity(status); !ok {
			return b, fmt.Errorf("%w: %s", ErrNoCapacity, status)
		}
		return board.SetCapacity(b, status, n), nil
	})
}

// AddCategory adds a category. Adding an existing one is a no-op.
func (c *Controller) AddCategory(name string) error {
	if err := model.ValidateCategoryName(name); err != nil {
		return fmt.Errorf("category: %w", err)
	}
	err := c.mutate(func(b model.Board) (model.Board, error) {
		if b.HasCategory(name) {
			return b, errNoop
		}
		return board.AddCategory(b, name), nil
	})
	if errors.Is(err, errNoop) {
		return nil
	}
	return err
}

// RemoveCategory removes a category and clears it from its cards
func (c *Controller) RemoveCategory(name string) error {
	return c.mutate(func(b model.Board) (model.Board, error) {
		if !b.HasCategory(name) {
			return b, fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
		}
		return board.RemoveCategory(b, name), nil
	})
}

// ReplaceBoard swaps in an authoritative board and saves it immediately,
// superseding any pending save.
func (c *Controller) ReplaceBoard(b model.Board) {
	c.saveMu.Lock()
	c.mu.Lock()
	c.board = b.Clone()
	c.dirty = false
	if c.saveTimer != nil {
		c.saveTimer.Stop()
		c.saveTimer = nil
	}
	snap, subs := c.publishLocked()
	c.mu.Unlock()

	c.store.Save(context.Background(), snap)
	c.saveMu.Unlock()

	logger.Info("Board replaced", logger.F("lastSaved", snap.LastSaved))
	for _, fn := range subs {
		fn(snap)
	}
}

// ReloadIfNewer picks up a board written by another process. It does nothing
// while a local save is pending or when the stored board is not newer.
func (c *Controller) ReloadIfNewer(ctx context.Context) bool {
	stored, ok := c.store.Stored(ctx)
	if !ok {
		return false
	}

	c.mu.Lock()
	if c.dirty || !stored.LastSaved.After(c.board.LastSaved) {
		c.mu.Unlock()
		return false
	}
	c.board = stored
	snap, subs := c.publishLocked()
	c.mu.Unlock()

	logger.Info("Board reloaded from disk", logger.F("lastSaved", stored.LastSaved))
	for _, fn := range subs {
		fn(snap)
	}
	return true
}

// WelcomeBack records this launch and, when the previous one was more than a
// day ago, returns per-column counts to greet the user with.
func (c *Controller) WelcomeBack(ctx context.Context, now time.Time) (board.Summary, bool) {
	prev, ok := c.store.TouchLastOpened(ctx, now)
	if !ok || now.Sub(prev) <= WelcomeBackAfter {
		return board.Summary{}, false
	}
	return board.Summarize(c.Board()), true
}
