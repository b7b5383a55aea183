package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/ohm/internal/model"
	ohmsync "github.com/existflow/ohm/internal/sync"
)

// Color palette
var (
	// Column accents
	ChargingColor = lipgloss.Color("#FFE66D") // Yellow
	LiveColor     = lipgloss.Color("#4ECDC4") // Teal
	GroundedColor = lipgloss.Color("#FFB347") // Orange
	PoweredColor  = lipgloss.Color("#95E1A3") // Green

	// Sync colors
	SyncOK      = lipgloss.Color("#95E1A3") // Green
	SyncPending = lipgloss.Color("#FFE66D") // Yellow
	SyncError   = lipgloss.Color("#FF6B6B") // Red
	Offline     = lipgloss.Color("#6C757D") // Gray

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Warning   = lipgloss.Color("#FF6B6B")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	ColumnStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	ColumnFocusedStyle = ColumnStyle.
				BorderForeground(Primary)

	CardStyle = lipgloss.NewStyle()

	CardSelectedStyle = lipgloss.NewStyle().
				Background(Surface).
				Bold(true)

	NoteStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true)

	OverCapacityStyle = lipgloss.NewStyle().Foreground(Warning).Bold(true)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// ColumnColor returns the accent of a column
func ColumnColor(s model.Status) lipgloss.Color {
	switch s {
	case model.StatusCharging:
		return ChargingColor
	case model.StatusLive:
		return LiveColor
	case model.StatusGrounded:
		return GroundedColor
	default:
		return PoweredColor
	}
}

// FormatEnergy renders the energy tag as filled and empty segments
func FormatEnergy(e model.Energy) string {
	n := e.Segments()
	return lipgloss.NewStyle().Foreground(Primary).Render(strings.Repeat("▮", n)) +
		HelpStyle.Render(strings.Repeat("▯", 3-n))
}

// FormatSync renders the sync state for the status bar
func FormatSync(s ohmsync.Snapshot) string {
	switch {
	case !s.Available:
		return HelpStyle.Render("local only")
	case s.NeedsReconnect && !s.Connected:
		return lipgloss.NewStyle().Foreground(SyncPending).Render("☁ reconnect (c)")
	case !s.Connected:
		return HelpStyle.Render("☁ not connected (c)")
	}

	switch s.Status {
	case ohmsync.StatusSyncing:
		return lipgloss.NewStyle().Foreground(SyncPending).Render("☁ syncing...")
	case ohmsync.StatusSynced:
		return lipgloss.NewStyle().Foreground(SyncOK).Render("☁ synced")
	case ohmsync.StatusError:
		return lipgloss.NewStyle().Foreground(SyncError).Render("☁ sync error")
	case ohmsync.StatusOffline:
		return lipgloss.NewStyle().Foreground(Offline).Render("☁ offline")
	default:
		return HelpStyle.Render("☁ connected")
	}
}
