package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/model"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Print the board",
	Long: `Print the board column by column, optionally filtered.

Examples:
  ohm list
  ohm list --column live
  ohm list --category Home --energy small
  ohm list --search milk`,
	RunE: runList,
}

var (
	listColumn   string
	listCategory string
	listEnergy   string
	listSearch   string
)

func init() {
	listCmd.Flags().StringVar(&listColumn, "column", "", "Only this column")
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Filter by category")
	listCmd.Flags().StringVarP(&listEnergy, "energy", "e", "", "Filter by energy")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Filter by text in title or description")
}

func runList(cmd *cobra.Command, args []string) error {
	filter := board.Filter{Category: listCategory, Text: listSearch}
	if listEnergy != "" {
		e, err := model.ParseEnergy(listEnergy)
		if err != nil {
			return err
		}
		filter.Energy = &e
	}

	columns := model.Statuses
	if listColumn != "" {
		s, err := model.ParseStatus(listColumn)
		if err != nil {
			return err
		}
		columns = []model.Status{s}
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	b := a.ctrl.Board()
	if len(b.Cards) == 0 {
		out(cmd.OutOrStdout(), "The board is empty. Capture something with: ohm add \"Your idea\"\n")
		return nil
	}
	printBoard(cmd.OutOrStdout(), b, columns, filter)
	return nil
}

func printBoard(w io.Writer, b model.Board, columns []model.Status, filter board.Filter) {
	for _, s := range columns {
		cards := board.FilterCards(board.ColumnCards(b, s), filter)

		header := fmt.Sprintf("%s (%d)", s, len(cards))
		if c := board.ColumnCapacity(b, s); c != nil {
			header = fmt.Sprintf("%s  %d/%d", header, c.Used, c.Total)
			if c.Over() {
				header += "  ⚠ over capacity"
			}
		}
		out(w, "\n%s\n", header)
		out(w, "%s\n", strings.Repeat("─", 60))

		for _, c := range cards {
			printCardLine(w, c)
		}
	}
	out(w, "\n")
}

func printCardLine(w io.Writer, c model.Card) {
	title := c.Title
	if len([]rune(title)) > 40 {
		title = string([]rune(title)[:37]) + "..."
	}
	category := ""
	if c.Category != "" {
		category = "#" + c.Category
	}
	out(w, "  %-8s  %s  %-40s  %s\n", shortID(c.ID), energyBar(c.Energy), title, category)

	switch {
	case c.Status == model.StatusGrounded && c.WhereILeftOff != "":
		out(w, "            ⏸ %s\n", c.WhereILeftOff)
	case c.NextStep != "":
		out(w, "            → %s\n", c.NextStep)
	}
}

func energyBar(e model.Energy) string {
	n := e.Segments()
	return strings.Repeat("▮", n) + strings.Repeat("▯", 3-n)
}
