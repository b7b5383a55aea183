// Package board holds the pure mutation engine for model.Board.
//
// Every function takes a board by value and returns a new one; the input is
// never modified. Mutations refresh LastSaved. Unknown card ids are ignored.
package board

import (
	"slices"
	"time"

	"github.com/existflow/ohm/internal/model"
	"github.com/google/uuid"
)

// Clock returns the current time. Tests replace it.
var Clock = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// CardOption customises a card at creation
type CardOption func(*model.Card)

// WithDescription sets the free-form notes
func WithDescription(d string) CardOption {
	return func(c *model.Card) { c.Description = d }
}

// WithNextStep sets the next concrete action
func WithNextStep(s string) CardOption {
	return func(c *model.Card) { c.NextStep = s }
}

// WithEnergy sets the energy tag
func WithEnergy(e model.Energy) CardOption {
	return func(c *model.Card) { c.Energy = e }
}

// WithCategory sets the category tag
func WithCategory(name string) CardOption {
	return func(c *model.Card) { c.Category = name }
}

// CreateCard builds a quick-capture card: Charging, Medium energy, sorted last
func CreateCard(title string, opts ...CardOption) model.Card {
	now := Clock()
	c := model.Card{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    model.StatusCharging,
		Energy:    model.EnergyMedium,
		CreatedAt: now,
		UpdatedAt: now,
		SortOrder: float64(now.UnixMilli()),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// AddCard appends card to the board
func AddCard(b model.Board, card model.Card) model.Board {
	out := b.Clone()
	out.Cards = append(out.Cards, card)
	out.LastSaved = Clock()
	return out
}

// UpdateCard replaces the card whose id matches updated
func UpdateCard(b model.Board, updated model.Card) model.Board {
	out := b.Clone()
	for i := range out.Cards {
		if out.Cards[i].ID == updated.ID {
			out.Cards[i] = updated
		}
	}
	out.LastSaved = Clock()
	return out
}

// RemoveCard drops the card with the given id
func RemoveCard(b model.Board, id string) model.Board {
	out := b.Clone()
	out.Cards = slices.DeleteFunc(out.Cards, func(c model.Card) bool { return c.ID == id })
	out.LastSaved = Clock()
	return out
}

// MoveCard applies the side effects of a status change and returns the new card.
//
// Entering Grounded stores note when it is non-nil and keeps the current note
// otherwise. Any other destination clears WhereILeftOff. Entering Powered clears
// NextStep. The transition table is not enforced here.
func MoveCard(card model.Card, to model.Status, note *string) model.Card {
	card.Status = to
	card.UpdatedAt = Clock()

	if to == model.StatusGrounded {
		if note != nil {
			card.WhereILeftOff = *note
		}
	} else {
		card.WhereILeftOff = ""
	}

	if to == model.StatusPowered {
		card.NextStep = ""
	}
	return card
}

// ReorderCard sets one card's sort key and marks it touched
func ReorderCard(b model.Board, id string, sortOrder float64) model.Board {
	card, ok := b.FindCard(id)
	if !ok {
		return b
	}
	card.SortOrder = sortOrder
	card.UpdatedAt = Clock()
	return UpdateCard(b, card)
}

// ReorderBatch assigns each id in orderedIDs its index as sort key.
// Only touchedID gets a fresh UpdatedAt.
func ReorderBatch(b model.Board, orderedIDs []string, touchedID string) model.Board {
	now := Clock()
	position := make(map[string]int, len(orderedIDs))
	for i, id := range orderedIDs {
		if _, seen := position[id]; !seen {
			position[id] = i
		}
	}

	out := b.Clone()
	for i := range out.Cards {
		idx, ok := position[out.Cards[i].ID]
		if !ok {
			continue
		}
		out.Cards[i].SortOrder = float64(idx)
		if out.Cards[i].ID == touchedID {
			out.Cards[i].UpdatedAt = now
		}
	}
	out.LastSaved = now
	return out
}

// ColumnCards returns the cards in a column ordered by sort key.
// Equal keys keep their order in b.Cards.
func ColumnCards(b model.Board, status model.Status) []model.Card {
	var cards []model.Card
	for _, c := range b.Cards {
		if c.Status == status {
			cards = append(cards, c)
		}
	}
	slices.SortStableFunc(cards, func(x, y model.Card) int {
		switch {
		case x.SortOrder < y.SortOrder:
			return -1
		case x.SortOrder > y.SortOrder:
			return 1
		default:
			return 0
		}
	})
	return cards
}

// Capacity is the energy usage of a tracked column
type Capacity struct {
	Used  int `json:"used"`
	Total int `json:"total"`
}

// Over reports whether the column is over-committed
func (c Capacity) Over() bool {
	return c.Used > c.Total
}

// ColumnCapacity sums the segment cost of a column's cards.
// Columns without a budget return nil.
func ColumnCapacity(b model.Board, status model.Status) *Capacity {
	total, ok := b.Capacity(status)
	if !ok {
		return nil
	}
	used := 0
	for _, c := range b.Cards {
		if c.Status == status {
			used += c.Energy.Segments()
		}
	}
	return &Capacity{Used: used, Total: total}
}

// SetCapacity replaces the budget of a tracked column. Powered is ignored.
func SetCapacity(b model.Board, status model.Status, n int) model.Board {
	if _, ok := b.Capacity(status); !ok {
		return b
	}
	out := b.Clone().WithCapacity(status, n)
	out.LastSaved = Clock()
	return out
}

// AddCategory appends name unless it is already present
func AddCategory(b model.Board, name string) model.Board {
	if b.HasCategory(name) {
		return b
	}
	out := b.Clone()
	out.Categories = append(out.Categories, name)
	out.LastSaved = Clock()
	return out
}

// RemoveCategory drops name and clears it from every card that used it
func RemoveCategory(b model.Board, name string) model.Board {
	if !b.HasCategory(name) {
		return b
	}
	now := Clock()
	out := b.Clone()
	out.Categories = slices.DeleteFunc(out.Categories, func(c string) bool { return c == name })
	for i := range out.Cards {
		if out.Cards[i].Category == name {
			out.Cards[i].Category = ""
			out.Cards[i].UpdatedAt = now
		}
	}
	out.LastSaved = now
	return out
}
