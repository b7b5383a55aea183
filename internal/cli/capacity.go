package cli

import (
	"fmt"
	"strconv"

	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/model"
	"github.com/spf13/cobra"
)

var capacityCmd = &cobra.Command{
	Use:   "capacity [column] [segments]",
	Short: "Show or set column capacity",
	Long: `Show every column's energy usage, or set a column's capacity in energy
segments (small = 1, medium = 2, large = 3). Powered has no capacity.

Examples:
  ohm capacity
  ohm capacity live 8`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runCapacity,
}

func runCapacity(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return fmt.Errorf("give both a column and a capacity, or neither")
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if len(args) == 2 {
		status, err := model.ParseStatus(args[0])
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("capacity must be a number, got %q", args[1])
		}
		if err := a.ctrl.SetCapacity(status, n); err != nil {
			return err
		}
		out(cmd.OutOrStdout(), "✓ %s capacity set to %d\n", status, n)
	}

	b := a.ctrl.Board()
	for _, s := range model.Statuses {
		c := board.ColumnCapacity(b, s)
		if c == nil {
			continue
		}
		flag := ""
		if c.Over() {
			flag = "  ⚠ over"
		}
		out(cmd.OutOrStdout(), "  %-9s %3d/%-3d%s\n", s, c.Used, c.Total, flag)
	}
	return nil
}
