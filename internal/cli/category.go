package cli

import (
	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"cat"},
	Short:   "Manage categories",
	Long:    `Add, list and remove the categories cards can be tagged with.`,
}

var categoryAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE:  runCategoryAdd,
}

var categoryListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List categories",
	RunE:    runCategoryList,
}

var categoryRemoveCmd = &cobra.Command{
	Use:     "remove [name]",
	Aliases: []string{"rm"},
	Short:   "Remove a category and untag its cards",
	Args:    cobra.ExactArgs(1),
	RunE:    runCategoryRemove,
}

func init() {
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryRemoveCmd)
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if err := a.ctrl.AddCategory(args[0]); err != nil {
		return err
	}
	out(cmd.OutOrStdout(), "✓ Category %q ready\n", args[0])
	return nil
}

func runCategoryList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	b := a.ctrl.Board()
	counts := make(map[string]int)
	for _, c := range b.Cards {
		counts[c.Category]++
	}
	if len(b.Categories) == 0 {
		out(cmd.OutOrStdout(), "No categories. Add one with: ohm category add \"Work\"\n")
		return nil
	}
	for _, name := range b.Categories {
		out(cmd.OutOrStdout(), "  %-20s %d cards\n", name, counts[name])
	}
	return nil
}

func runCategoryRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if err := a.ctrl.RemoveCategory(args[0]); err != nil {
		return err
	}
	out(cmd.OutOrStdout(), "🗑️  Removed category %q\n", args[0])
	return nil
}
