package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/ohm/internal/board"
	"github.com/existflow/ohm/internal/config"
	"github.com/existflow/ohm/internal/logger"
	"github.com/existflow/ohm/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var (
	logLevel   string
	logFile    string
	logConsole bool

	// cfg is loaded once per invocation in PersistentPreRunE
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ohm",
	Short: "ohm - an energy-aware personal task board",
	Long: `ohm is a personal kanban board with four columns:
Charging -> Live -> Grounded -> Powered.

Cards carry an energy tag (small, medium, large) that counts against each
column's capacity. The board can sync to a private file in Google Drive.

Run 'ohm' without arguments to open the interactive board.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}

		if err := applyLogFlags(cmd, loaded); err != nil {
			return err
		}
		cfg = loaded

		if err := logger.Init(cfg.LoggerConfig()); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		logger.Info("ohm started", logger.F("command", cmd.Name()))
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return runList(cmd, args)
		}

		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		summary, welcome := a.ctrl.WelcomeBack(ctx, board.Clock())

		logger.Info("Launching TUI")
		m := tui.NewModel(a.ctrl, a.coord, tui.Options{Welcome: welcomePtr(summary, welcome)})
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
		a.prompt.set(func(text string) { p.Send(tui.DevicePromptMsg(text)) })
		a.startBackground(ctx, func() { p.Send(tui.BoardReloadedMsg{}) })

		if _, err := p.Run(); err != nil {
			logger.Error("TUI error", logger.Err(err))
			return fmt.Errorf("failed to run TUI: %w", err)
		}

		logger.Info("TUI exited normally")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("ohm exiting", logger.F("command", cmd.Name()))
		_ = logger.Close()
	},
}

// applyLogFlags overrides the logging settings for this invocation only
func applyLogFlags(cmd *cobra.Command, c *config.Config) error {
	overrides := map[string]func(){
		"log-level":   func() { c.LogLevel = logLevel },
		"log-file":    func() { c.LogFile = logFile },
		"log-console": func() { c.LogConsole = logConsole },
	}
	changed := false
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if set, ok := overrides[f.Name]; ok {
			set()
			changed = true
		}
	})
	if !changed {
		return nil
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid log flags: %w", err)
	}
	return nil
}

func welcomePtr(s board.Summary, ok bool) *board.Summary {
	if !ok {
		return nil
	}
	return &s
}

// Execute runs the root command until it finishes or the process is
// interrupted. args, when given, replace the command line arguments.
func Execute(args ...string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if len(args) > 0 {
		rootCmd.SetArgs(args)
	}
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "", "override the configured log level for this run")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file for this run")
	pf.BoolVar(&logConsole, "log-console", false, "also log to stderr")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(reorderCmd)
	rootCmd.AddCommand(capacityCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resetCmd)
}
