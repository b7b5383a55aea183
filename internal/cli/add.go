package cli

import (
	"fmt"
	"strings"

	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/model"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Capture a new card in Charging",
	Long: `Capture a new card. It lands in Charging with medium energy unless told otherwise.

Examples:
  ohm add "Buy milk"
  ohm add "Draft chapter 2" -e large -c Creative -n "outline the scenes"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var (
	addEnergy   string
	addCategory string
	addNext     string
	addDesc     string
)

func init() {
	addCmd.Flags().StringVarP(&addEnergy, "energy", "e", "medium", "Energy (small, medium, large)")
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "Category")
	addCmd.Flags().StringVarP(&addNext, "next", "n", "", "Next concrete step")
	addCmd.Flags().StringVarP(&addDesc, "desc", "d", "", "Description")
}

func runAdd(cmd *cobra.Command, args []string) error {
	energy, err := model.ParseEnergy(addEnergy)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	title := strings.Join(args, " ")
	card, err := a.ctrl.QuickAdd(title,
		board.WithEnergy(energy),
		board.WithCategory(addCategory),
		board.WithNextStep(addNext),
		board.WithDescription(addDesc),
	)
	if err != nil {
		return fmt.Errorf("invalid card: %w", err)
	}

	out(cmd.OutOrStdout(), "✓ Added to Charging: %q (%s, %s)\n", card.Title, shortID(card.ID), card.Energy)
	if c := board.ColumnCapacity(a.ctrl.Board(), model.StatusCharging); c != nil && c.Over() {
		out(cmd.OutOrStdout(), "⚠️  Charging is over capacity (%d/%d)\n", c.Used, c.Total)
	}
	return nil
}
