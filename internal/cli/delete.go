package cli

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [card-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a card",
	Long: `Delete a card by its ID or a unique ID prefix.

Examples:
  ohm delete 3f2a
  ohm rm 3f2a --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

var deleteForce bool

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Do not ask for confirmation")
}

func runDelete(cmd *cobra.Command, args []string) error {
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

	if !deleteForce {
		out(cmd.OutOrStdout(), "About to delete: %q (ID: %s)\n", card.Title, shortID(card.ID))
		if !confirm(cmd, "Are you sure? [y/N]: ") {
			out(cmd.OutOrStdout(), "Cancelled.\n")
			return nil
		}
	}

	if err := a.ctrl.DeleteCard(card.ID); err != nil {
		return err
	}
	out(cmd.OutOrStdout(), "🗑️  Deleted: %q\n", card.Title)
	return nil
}
