package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/model"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(statusBar)

	var body string
	switch {
	case m.welcome != nil:
		body = m.place(bodyHeight, m.renderWelcome())
	case m.mode == ModeHelp:
		body = m.place(bodyHeight, m.renderHelp())
	case m.mode == ModeAdd || m.mode == ModeNote:
		body = m.place(bodyHeight, m.renderModal())
	case m.mode == ModeConfirmDelete:
		body = m.place(bodyHeight, m.renderConfirmDelete())
	default:
		body = m.renderColumns(bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}

func (m Model) place(height int, content string) string {
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, content,
		lipgloss.WithWhitespaceChars(" "))
}

func (m Model) renderHeader() string {
	s := board.Summarize(m.board)
	counts := HelpStyle.Render(fmt.Sprintf("%d charging · %d live · %d grounded · %d powered",
		s.Charging, s.Live, s.Grounded, s.Powered))
	return HeaderStyle.Render("⚡ ohm") + "  " + counts
}

func (m Model) renderColumns(height int) string {
	n := len(model.Statuses)
	// Each column has a border (2) and padding (2)
	width := m.width/n - 4
	if width < 12 {
		width = 12
	}

	cols := make([]string, n)
	for i, status := range model.Statuses {
		cols[i] = m.renderColumn(i, status, width, height-2)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderColumn(index int, status model.Status, width, height int) string {
	focused := index == m.column
	cards := m.columnCards(status)

	title := lipgloss.NewStyle().Bold(true).Foreground(ColumnColor(status)).Render(status.String())
	if c := board.ColumnCapacity(m.board, status); c != nil {
		usage := fmt.Sprintf("%d/%d", c.Used, c.Total)
		if c.Over() {
			usage = OverCapacityStyle.Render(usage + " !")
		} else {
			usage = HelpStyle.Render(usage)
		}
		title += " " + usage
	} else {
		title += " " + HelpStyle.Render(fmt.Sprintf("%d", len(cards)))
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", width)) + "\n")

	if len(cards) == 0 {
		b.WriteString(HelpStyle.Render(emptyHint(status)))
	}
	for i, c := range cards {
		selected := focused && i == m.cursors[index]
		b.WriteString(renderCard(c, width, selected) + "\n")
	}

	style := ColumnStyle
	if focused {
		style = ColumnFocusedStyle
	}
	return style.Width(width).Height(height).Render(b.String())
}

func renderCard(c model.Card, width int, selected bool) string {
	style := CardStyle
	cursor := "  "
	if selected {
		style = CardSelectedStyle
		cursor = "❯ "
	}

	line := style.Render(cursor+truncate(c.Title, width-6)) + " " + FormatEnergy(c.Energy)

	var detail string
	switch {
	case c.Status == model.StatusGrounded && c.WhereILeftOff != "":
		detail = "⏸ " + c.WhereILeftOff
	case c.Status != model.StatusPowered && c.NextStep != "":
		detail = "→ " + c.NextStep
	}
	if detail != "" {
		line += "\n  " + NoteStyle.Render(truncate(detail, width-2))
	}
	if c.Category != "" {
		line += "\n  " + HelpStyle.Render("#"+c.Category)
	}
	return line
}

func emptyHint(s model.Status) string {
	if s == model.StatusCharging {
		return "Nothing charging.\nPress 'a' to add a card."
	}
	return s.Column().Description
}

func (m Model) renderStatusBar() string {
	help := "a:add  space:move  x:power  g:ground  J/K:reorder  d:del  ?:help  q:quit"
	if m.message != "" {
		help = m.message
	}

	syncMsg := FormatSync(m.snapshot)
	if m.busy {
		syncMsg = HelpStyle.Render("working...")
	}

	line := help
	avail := m.width - lipgloss.Width(help) - lipgloss.Width(syncMsg) - 2
	if avail > 0 {
		line += strings.Repeat(" ", avail) + syncMsg
	} else {
		line += " " + syncMsg
	}

	if m.prompt != "" {
		line = lipgloss.NewStyle().Foreground(Primary).Render(m.prompt) + "\n" + line
	}
	return StatusBarStyle.Width(m.width).Render(line)
}

func (m Model) renderModal() string {
	title := "⚡ Quick capture"
	hint := "Lands in Charging with medium energy"
	if m.mode == ModeNote {
		title = "⏸ Grounding"
		hint = "A note for future you"
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n"
	content += HelpStyle.Render(hint) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")

	return ModalStyle.Render(content)
}

func (m Model) renderConfirmDelete() string {
	card, _ := m.currentCard()
	content := lipgloss.NewStyle().Bold(true).Render("Delete card?") + "\n\n"
	content += truncate(card.Title, 50) + "\n\n"
	content += HelpStyle.Render("y:delete  any other key:cancel")
	return ModalStyle.Render(content)
}

func (m Model) renderWelcome() string {
	s := m.welcome
	content := lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Welcome back ⚡") + "\n\n"
	content += fmt.Sprintf("%d charging\n%d live\n%d grounded\n%d powered\n\n",
		s.Charging, s.Live, s.Grounded, s.Powered)
	content += HelpStyle.Render("Press any key to continue")
	return ModalStyle.Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ─────╮
│                            │
│  Navigation                │
│  ──────────                │
│  h/l    Prev/next column   │
│  j/k    Move down/up       │
│                            │
│  Cards                     │
│  ─────                     │
│  a       Quick add         │
│  space   Move along        │
│  x       Power (done)      │
│  g       Ground with note  │
│  1-4     Move to column    │
│  J/K     Reorder           │
│  d       Delete            │
│                            │
│  Sync                      │
│  ────                      │
│  c       Connect Drive     │
│  r       Sync now          │
│  L       Disconnect        │
│                            │
│  ?       Toggle help       │
│  q       Quit              │
│                            │
╰────────────────────────────╯

     Press any key to close
`
	return help
}
