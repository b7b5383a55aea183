package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the column a card occupies
type Status int

const (
	StatusCharging Status = iota // Captured, not started
	StatusLive                   // Actively worked on
	StatusGrounded               // Paused with context
	StatusPowered                // Done

	statusCount
)

// Column describes a board column
type Column struct {
	Label       string
	Description string
	// Tracked is false for columns without an energy budget
	Tracked bool
}

var columns = [statusCount]Column{
	StatusCharging: {Label: "Charging", Description: "Captured ideas -- shape with a clear next step", Tracked: true},
	StatusLive:     {Label: "Live", Description: "Actively working on it", Tracked: true},
	StatusGrounded: {Label: "Grounded", Description: "Paused -- with context to pick back up", Tracked: true},
	StatusPowered:  {Label: "Powered", Description: "Done -- circuit complete"},
}

// Statuses lists every column in board order
var Statuses = []Status{StatusCharging, StatusLive, StatusGrounded, StatusPowered}

var transitions = [statusCount][]Status{
	StatusCharging: {StatusLive},
	StatusLive:     {StatusGrounded, StatusPowered},
	StatusGrounded: {StatusLive},
	StatusPowered:  {StatusCharging},
}

// ValidStatus reports whether s names one of the four columns
func ValidStatus(s Status) bool {
	return s >= 0 && s < statusCount
}

// Valid is the method form of ValidStatus
func (s Status) Valid() bool {
	return ValidStatus(s)
}

// Column returns the static column definition. Out-of-range values map to Charging.
func (s Status) Column() Column {
	if !s.Valid() {
		return columns[StatusCharging]
	}
	return columns[s]
}

// String returns the column label
func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return columns[s].Label
}

// ParseStatus accepts a column label (case-insensitive) or its index
func ParseStatus(v string) (Status, error) {
	v = strings.TrimSpace(v)
	for _, s := range Statuses {
		if strings.EqualFold(v, columns[s].Label) || v == fmt.Sprint(int(s)) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q (want charging, live, grounded or powered)", v)
}

// ValidTransitions returns the statuses a card may move to from s
func ValidTransitions(from Status) []Status {
	if !from.Valid() {
		return nil
	}
	return append([]Status(nil), transitions[from]...)
}

// CanTransition reports whether from -> to is in the transition table
func CanTransition(from, to Status) bool {
	for _, s := range ValidTransitions(from) {
		if s == to {
			return true
		}
	}
	return false
}

// Energy is the effort tag of a card
type Energy int

const (
	EnergySmall Energy = iota
	EnergyMedium
	EnergyLarge

	energyCount
)

var energyLevels = [energyCount]struct {
	label    string
	segments int
}{
	EnergySmall:  {"Small", 1},
	EnergyMedium: {"Medium", 2},
	EnergyLarge:  {"Large", 3},
}

// Energies lists every energy level from smallest to largest
var Energies = []Energy{EnergySmall, EnergyMedium, EnergyLarge}

// ValidEnergy reports whether e is a known energy level
func ValidEnergy(e Energy) bool {
	return e >= 0 && e < energyCount
}

// Valid is the method form of ValidEnergy
func (e Energy) Valid() bool {
	return ValidEnergy(e)
}

// Segments returns the capacity cost of the energy level (1, 2 or 3).
// Out-of-range values cost as much as Medium.
func (e Energy) Segments() int {
	if !e.Valid() {
		return energyLevels[EnergyMedium].segments
	}
	return energyLevels[e].segments
}

// String returns the energy label
func (e Energy) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Energy(%d)", int(e))
	}
	return energyLevels[e].label
}

// ParseEnergy accepts a label (small/medium/large), its first letter, or its index
func ParseEnergy(v string) (Energy, error) {
	v = strings.TrimSpace(v)
	for _, e := range Energies {
		label := energyLevels[e].label
		if strings.EqualFold(v, label) || strings.EqualFold(v, label[:1]) || v == fmt.Sprint(int(e)) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown energy %q (want small, medium or large)", v)
}

// Card is a single unit of work on the board
type Card struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Status        Status    `json:"status"`
	NextStep      string    `json:"nextStep"`
	WhereILeftOff string    `json:"whereILeftOff"`
	Energy        Energy    `json:"energy"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	SortOrder     float64   `json:"sortOrder"`
}
