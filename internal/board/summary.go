package board

import (
	"strings"

	"github.com/existflow/ohm/internal/model"
)

// Summary counts cards per column
type Summary struct {
	Charging int `json:"charging"`
	Live     int `json:"live"`
	Grounded int `json:"grounded"`
	Powered  int `json:"powered"`
}

// Total returns the number of cards on the board
func (s Summary) Total() int {
	return s.Charging + s.Live + s.Grounded + s.Powered
}

// Summarize counts the cards in each column
func Summarize(b model.Board) Summary {
	var s Summary
	for _, c := range b.Cards {
		switch c.Status {
		case model.StatusCharging:
			s.Charging++
		case model.StatusLive:
			s.Live++
		case model.StatusGrounded:
			s.Grounded++
		case model.StatusPowered:
			s.Powered++
		}
	}
	return s
}

// Filter narrows a card listing. Zero values match everything.
type Filter struct {
	Category string
	Energy   *model.Energy
	Text     string
}

// Match reports whether c passes the filter
func (f Filter) Match(c model.Card) bool {
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.Energy != nil && c.Energy != *f.Energy {
		return false
	}
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(c.Title), needle) &&
			!strings.Contains(strings.ToLower(c.Description), needle) {
			return false
		}
	}
	return true
}

// FilterCards keeps the cards that match f, preserving order
func FilterCards(cards []model.Card, f Filter) []model.Card {
	var out []model.Card
	for _, c := range cards {
		if f.Match(c) {
			out = append(out, c)
		}
	}
	return out
}
