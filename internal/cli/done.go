package cli

import (
	"github.com/existflow/ohm/internal/model"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done [card-id]",
	Short: "Mark a Live card as Powered",
	Long: `Complete a card. Shorthand for 'ohm move <id> powered'.

Examples:
  ohm done 3f2a
  ohm done 3f2a --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

var doneUndo bool

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Send a Powered card back to Charging")
}

func runDone(cmd *cobra.Command, args []string) error {
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

	to := model.StatusPowered
	if doneUndo {
		to = model.StatusCharging
	}
	return moveCard(cmd, a, card, to, nil)
}
