package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/existflow/ohm/internal/model"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var moveCmd = &cobra.Command{
	Use:   "move [card-id] [column]",
	Short: "Move a card to another column",
	Long: `Move a card along the circuit:

  Charging -> Live
  Live     -> Grounded | Powered
  Grounded -> Live
  Powered  -> Charging

Moving into Grounded records where you left off. Without --note you are asked
for it when running in a terminal.

Examples:
  ohm move 3f2a live
  ohm move 3f2a grounded --note "stuck on the intro"`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

var (
	moveNote     string
	moveKeepNote bool
)

func init() {
	moveCmd.Flags().StringVar(&moveNote, "note", "", "Where you left off (Grounded only)")
	moveCmd.Flags().BoolVar(&moveKeepNote, "keep-note", false, "Keep the existing note when entering Grounded")
}

func runMove(cmd *cobra.Command, args []string) error {
	to, err := model.ParseStatus(args[1])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	card, err := findCard(a.ctrl.Board(), args[0])
	if err != nil {
		return err
	}

	var note *string
	if to == model.StatusGrounded && !moveKeepNote {
		switch {
		case cmd.Flags().Changed("note"):
			note = &moveNote
		case term.IsTerminal(int(os.Stdin.Fd())):
			text := readLine(cmd, "Where did you leave off? ")
			note = &text
		}
	}

	return moveCard(cmd, a, card, to, note)
}

func moveCard(cmd *cobra.Command, a *app, card model.Card, to model.Status, note *string) error {
	if card.Status == to {
		out(cmd.OutOrStdout(), "%q is already in %s\n", card.Title, to)
		return nil
	}
	if !model.CanTransition(card.Status, to) {
		var allowed []string
		for _, s := range model.ValidTransitions(card.Status) {
			allowed = append(allowed, strings.ToLower(s.String()))
		}
		return fmt.Errorf("cannot move from %s to %s (allowed: %s)", card.Status, to, strings.Join(allowed, ", "))
	}

	moved, err := a.ctrl.Move(card.ID, to, note)
	if err != nil {
		return err
	}
	out(cmd.OutOrStdout(), "✓ %q: %s → %s\n", moved.Title, card.Status, moved.Status)
	return nil
}
