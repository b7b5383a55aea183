package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [card-id]",
	Short: "Show a card in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	c, err := findCard(a.ctrl.Board(), args[0])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	out(w, "%s\n", c.Title)
	out(w, "  ID:          %s\n", c.ID)
	out(w, "  Column:      %s (%s)\n", c.Status, c.Status.Column().Description)
	out(w, "  Energy:      %s %s\n", energyBar(c.Energy), c.Energy)
	if c.Category != "" {
		out(w, "  Category:    %s\n", c.Category)
	}
	if c.NextStep != "" {
		out(w, "  Next step:   %s\n", c.NextStep)
	}
	if c.WhereILeftOff != "" {
		out(w, "  Left off:    %s\n", c.WhereILeftOff)
	}
	if c.Description != "" {
		out(w, "\n%s\n\n", c.Description)
	}
	out(w, "  Created:     %s\n", c.CreatedAt.Local().Format(time.DateTime))
	out(w, "  Updated:     %s\n", c.UpdatedAt.Local().Format(time.DateTime))
	return nil
}
