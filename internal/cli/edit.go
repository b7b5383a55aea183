package cli

import (
	"fmt"

	"github.com/existflow/ohm/internal/model"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [card-id]",
	Short: "Change a card's details",
	Long: `Change a card's details. Only the flags given are changed; pass an empty
value to clear a field.

Examples:
  ohm edit 3f2a --title "Draft chapter 3"
  ohm edit 3f2a --energy small --category ""`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	editCmd.Flags().String("title", "", "Title")
	editCmd.Flags().StringP("desc", "d", "", "Description")
	editCmd.Flags().StringP("next", "n", "", "Next concrete step")
	editCmd.Flags().StringP("energy", "e", "", "Energy (small, medium, large)")
	editCmd.Flags().StringP("category", "c", "", "Category")
	editCmd.Flags().String("note", "", "Where you left off")
}

func runEdit(cmd *cobra.Command, args []string) error {
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

	flags := cmd.Flags()
	changed := false
	set := func(name string, field *string) {
		if flags.Changed(name) {
			*field, _ = flags.GetString(name)
			changed = true
		}
	}
	set("title", &card.Title)
	set("desc", &card.Description)
	set("next", &card.NextStep)
	set("category", &card.Category)
	set("note", &card.WhereILeftOff)

	if flags.Changed("energy") {
		v, _ := flags.GetString("energy")
		e, err := model.ParseEnergy(v)
		if err != nil {
			return err
		}
		card.Energy = e
		changed = true
	}

	if !changed {
		return fmt.Errorf("nothing to change (see 'ohm edit --help')")
	}

	updated, err := a.ctrl.UpdateCard(card)
	if err != nil {
		return fmt.Errorf("invalid card: %w", err)
	}
	out(cmd.OutOrStdout(), "✓ Updated %q\n", updated.Title)
	return nil
}
