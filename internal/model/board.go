package model

import (
	"slices"
	"time"
)

// SchemaVersion is the only Board version this build understands
const SchemaVersion = 1

// Default capacities in energy segments
const (
	DefaultChargingCapacity = 12
	DefaultLiveCapacity     = 6
	DefaultGroundedCapacity = 6
)

// DefaultCategories seed a fresh board
var DefaultCategories = []string{"Personal", "Creative", "Home"}

// Board is the aggregate persisted locally and synced to the remote file
type Board struct {
	Version          int       `json:"version"`
	Cards            []Card    `json:"cards"`
	Categories       []string  `json:"categories"`
	ChargingCapacity int       `json:"chargingCapacity"`
	LiveCapacity     int       `json:"liveCapacity"`
	GroundedCapacity int       `json:"groundedCapacity"`
	LastSaved        time.Time `json:"lastSaved"`
}

// DefaultBoard returns an empty board with the seed categories and default capacities
func DefaultBoard(now time.Time) Board {
	return Board{
		Version:          SchemaVersion,
		Cards:            []Card{},
		Categories:       slices.Clone(DefaultCategories),
		ChargingCapacity: DefaultChargingCapacity,
		LiveCapacity:     DefaultLiveCapacity,
		GroundedCapacity: DefaultGroundedCapacity,
		LastSaved:        now,
	}
}

// Clone returns a copy that shares no slices with b
func (b Board) Clone() Board {
	c := b
	c.Cards = slices.Clone(b.Cards)
	if c.Cards == nil {
		c.Cards = []Card{}
	}
	c.Categories = slices.Clone(b.Categories)
	if c.Categories == nil {
		c.Categories = []string{}
	}
	return c
}

// HasCategory reports whether name is in the board's category set
func (b Board) HasCategory(name string) bool {
	return slices.Contains(b.Categories, name)
}

// IsKnownCategory reports whether a card category is acceptable on b.
// The empty category is always acceptable.
func IsKnownCategory(b Board, name string) bool {
	return name == "" || b.HasCategory(name)
}

// Capacity returns the segment budget of a tracked column
func (b Board) Capacity(s Status) (int, bool) {
	switch s {
	case StatusCharging:
		return b.ChargingCapacity, true
	case StatusLive:
		return b.LiveCapacity, true
	case StatusGrounded:
		return b.GroundedCapacity, true
	default:
		return 0, false
	}
}

// WithCapacity returns b with the budget of a tracked column replaced.
// Untracked columns leave b unchanged.
func (b Board) WithCapacity(s Status, n int) Board {
	switch s {
	case StatusCharging:
		b.ChargingCapacity = n
	case StatusLive:
		b.LiveCapacity = n
	case StatusGrounded:
		b.GroundedCapacity = n
	}
	return b
}

// FindCard returns the card with the given id
func (b Board) FindCard(id string) (Card, bool) {
	for _, c := range b.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}
