package cli

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/model"
	"github.com/spf13/cobra"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder [card-id] [position]",
	Short: "Move a card to a position within its column",
	Long: `Move a card to a 1-based position within its column. The column is
renumbered; only the moved card counts as edited.

Examples:
  ohm reorder 3f2a 1`,
	Args: cobra.ExactArgs(2),
	RunE: runReorder,
}

func runReorder(cmd *cobra.Command, args []string) error {
	pos, err := strconv.Atoi(args[1])
	if err != nil || pos < 1 {
		return fmt.Errorf("position must be a positive number, got %q", args[1])
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	b := a.ctrl.Board()
	card, err := findCard(b, args[0])
	if err != nil {
		return err
	}

	ids := columnOrderWith(b, card, pos-1)
	if err := a.ctrl.ReorderBatch(ids, card.ID); err != nil {
		return err
	}
	out(cmd.OutOrStdout(), "✓ %q is now #%d in %s\n", card.Title, slices.Index(ids, card.ID)+1, card.Status)
	return nil
}

// columnOrderWith returns the ids of card's column with card placed at index
func columnOrderWith(b model.Board, card model.Card, index int) []string {
	var ids []string
	for _, c := range board.ColumnCards(b, card.Status) {
		if c.ID != card.ID {
			ids = append(ids, c.ID)
		}
	}
	index = max(0, min(index, len(ids)))
	return slices.Insert(ids, index, card.ID)
}
