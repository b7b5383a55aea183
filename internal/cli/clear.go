package cli

import (
	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/model"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:     "reset",
	Aliases: []string{"clear"},
	Short:   "Replace the board with a fresh default board",
	Long: `Replace the local board with a fresh default board: no cards, the seed
categories and default capacities. The remote copy is not touched; the next
sync pushes the fresh board because it is newer.`,
	RunE: runReset,
}

var resetForce bool

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "Do not ask for confirmation")
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetForce && !confirm(cmd, "Are you sure you want to clear the board? (y/N): ") {
		out(cmd.OutOrStdout(), "Aborted.\n")
		return nil
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	// Drop the stored record first so a failed write leaves no stale board
	// behind; Load falls back to a default board when the record is missing.
	a.store.Clear(ctx)
	a.ctrl.ReplaceBoard(model.DefaultBoard(board.Clock()))
	out(cmd.OutOrStdout(), "🧹 Board cleared.\n")
	return nil
}
