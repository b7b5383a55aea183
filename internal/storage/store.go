// Package storage persists the board in the local key/value store.
//
// Failures never reach the caller: writes are logged and dropped, reads fall
// back to a fresh default board. Every board leaving Load has been sanitized.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/ohm/internal/db"
	"github.com/existflow/ohm/internal/logger"
	"github.com/existflow/ohm/internal/model"
)

// Record keys
const (
	BoardKey      = "ohm-board"
	SyncFlagKey   = "ohm-drive-synced"
	LastOpenedKey = "ohm-last-opened"
)

// KV is a string-keyed durable store
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store is the local persistence adapter
type Store struct {
	kv    KV
	clock func() time.Time
}

// New creates a store over kv
func New(kv KV) *Store {
	return &Store{
		kv:    kv,
		clock: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Save writes the board record. Failures are logged.
func (s *Store) Save(ctx context.Context, b model.Board) {
	data, err := json.Marshal(b)
	if err != nil {
		logger.Error("Failed to encode board", logger.Err(err))
		return
	}
	if err := s.kv.Set(ctx, BoardKey, string(data)); err != nil {
		logger.Error("Failed to save board locally", logger.Err(err), logger.F("bytes", len(data)))
		return
	}
	logger.Debug("Board saved locally", logger.F("cards", len(b.Cards)), logger.F("lastSaved", b.LastSaved))
}

// Load reads the board record. A missing, unreadable, malformed or
// unknown-version record yields a fresh default board.
func (s *Store) Load(ctx context.Context) model.Board {
	if b, ok := s.Stored(ctx); ok {
		return b
	}
	return model.DefaultBoard(s.clock())
}

// Stored returns the sanitized board record and whether a usable one exists
func (s *Store) Stored(ctx context.Context) (model.Board, bool) {
	raw, err := s.kv.Get(ctx, BoardKey)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			logger.Error("Failed to load board locally", logger.Err(err))
		}
		return model.Board{}, false
	}

	b, err := Decode([]byte(raw))
	if err != nil {
		logger.Warn("Discarding stored board", logger.Err(err))
		return model.Board{}, false
	}
	return Sanitize(b), true
}

// Clear removes the board record. Failures are logged.
func (s *Store) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx, BoardKey); err != nil {
		logger.Error("Failed to clear local board", logger.Err(err))
	}
}

// ErrUnsupportedVersion marks a board document written by an unknown schema
var ErrUnsupportedVersion = errors.New("unsupported board version")

// Decode parses a board document and checks its schema version. It does not sanitize.
func Decode(data []byte) (model.Board, error) {
	var b model.Board
	if err := json.Unmarshal(data, &b); err != nil {
		return model.Board{}, err
	}
	if b.Version != model.SchemaVersion {
		return model.Board{}, ErrUnsupportedVersion
	}
	return b, nil
}

// Sanitize clamps a board that may have been hand-edited or corrupted back
// into the model invariants. It is idempotent.
func Sanitize(b model.Board) model.Board {
	out := b.Clone()
	out.Version = model.SchemaVersion

	if out.ChargingCapacity < 1 {
		out.ChargingCapacity = model.DefaultChargingCapacity
	}
	if out.LiveCapacity < 1 {
		out.LiveCapacity = model.DefaultLiveCapacity
	}
	if out.GroundedCapacity < 1 {
		out.GroundedCapacity = model.DefaultGroundedCapacity
	}

	categories := make([]string, 0, len(out.Categories))
	for _, name := range out.Categories {
		if strings.TrimSpace(name) == "" || slices.Contains(categories, name) {
			continue
		}
		categories = append(categories, name)
	}
	out.Categories = categories

	for i := range out.Cards {
		c := &out.Cards[i]
		if !model.ValidStatus(c.Status) {
			c.Status = model.StatusCharging
		}
		if !model.ValidEnergy(c.Energy) {
			c.Energy = model.EnergyMedium
		}
		if !model.IsKnownCategory(out, c.Category) {
			c.Category = ""
		}
	}
	return out
}

// PreviouslySynced reports whether a remote connection succeeded on this device before
func (s *Store) PreviouslySynced(ctx context.Context) bool {
	v, err := s.kv.Get(ctx, SyncFlagKey)
	return err == nil && v == "1"
}

// SetPreviouslySynced remembers a successful remote connection
func (s *Store) SetPreviouslySynced(ctx context.Context) {
	if err := s.kv.Set(ctx, SyncFlagKey, "1"); err != nil {
		logger.Warn("Failed to persist sync flag", logger.Err(err))
	}
}

// ClearPreviouslySynced forgets the remote connection
func (s *Store) ClearPreviouslySynced(ctx context.Context) {
	if err := s.kv.Delete(ctx, SyncFlagKey); err != nil {
		logger.Warn("Failed to clear sync flag", logger.Err(err))
	}
}

// TouchLastOpened records now as the last launch and returns the previous
// launch time, if one was recorded.
func (s *Store) TouchLastOpened(ctx context.Context, now time.Time) (time.Time, bool) {
	var prev time.Time
	ok := false
	if v, err := s.kv.Get(ctx, LastOpenedKey); err == nil {
		if ms, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			prev, ok = time.UnixMilli(ms).UTC(), true
		}
	}
	if err := s.kv.Set(ctx, LastOpenedKey, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		logger.Warn("Failed to record last opened", logger.Err(err))
	}
	return prev, ok
}
