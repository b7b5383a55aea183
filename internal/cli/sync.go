package cli

import (
	"fmt"

	ohmsync "github.com/existflow/ohm/internal/sync"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the board with Google Drive",
	Long: `Keep the board in a private file in your Google Drive.

Whichever copy was changed last wins in full; there is no field-level merge.

Commands:
  ohm sync setup        # store the OAuth client
  ohm sync connect      # sign in and merge
  ohm sync now          # merge again
  ohm sync status       # show sync state
  ohm sync disconnect   # sign out and forget the grant`,
}

var syncConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Sign in to Google Drive and merge",
	RunE:  runSyncConnect,
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Merge with the remote board now",
	RunE:  runSyncNow,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE:  runSyncStatus,
}

var syncDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Sign out and stop syncing",
	RunE:  runSyncDisconnect,
}

func init() {
	syncCmd.AddCommand(syncSetupCmd)
	syncCmd.AddCommand(syncConnectCmd)
	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncDisconnectCmd)
}

var errSyncNotConfigured = fmt.Errorf("sync is not configured (run 'ohm sync setup')")

func runSyncConnect(cmd *cobra.Command, args []string) error {
	if !cfg.Drive.Enabled() {
		return errSyncNotConfigured
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if !a.initSync(ctx) {
		return fmt.Errorf("could not reach the Google sign-in service")
	}
	out(cmd.OutOrStdout(), "🔄 Connecting...\n")
	if !a.coord.Connect(ctx) {
		return fmt.Errorf("sign-in failed or was denied")
	}
	return reportSync(cmd, a)
}

func runSyncNow(cmd *cobra.Command, args []string) error {
	if !cfg.Drive.Enabled() {
		return errSyncNotConfigured
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if !a.store.PreviouslySynced(ctx) {
		return fmt.Errorf("not connected (run 'ohm sync connect')")
	}
	if !a.initSync(ctx) {
		return fmt.Errorf("could not reach the Google sign-in service")
	}
	if !a.net.Online() {
		return fmt.Errorf("offline, nothing synced")
	}
	out(cmd.OutOrStdout(), "🔄 Synchronizing...\n")
	if !a.coord.Connect(ctx) {
		return fmt.Errorf("sign-in expired (run 'ohm sync connect')")
	}
	return reportSync(cmd, a)
}

func reportSync(cmd *cobra.Command, a *app) error {
	snap := a.coord.Snapshot()
	if snap.Status == ohmsync.StatusError {
		return fmt.Errorf("sync failed, local board kept (see log for details)")
	}
	b := a.ctrl.Board()
	out(cmd.OutOrStdout(), "✓ Synced: %d cards, last change %s\n", len(b.Cards), b.LastSaved.Local().Format("Jan 2 15:04"))
	return nil
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if !cfg.Drive.Enabled() {
		out(w, "Sync:      not configured\n")
		return nil
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	_, err = a.tokens.Load(ctx)
	hasGrant := err == nil

	b := a.ctrl.Board()
	out(w, "Client:    %s\n", cfg.Drive.ClientID)
	out(w, "Connected: %v\n", a.store.PreviouslySynced(ctx))
	out(w, "Grant:     %v\n", hasGrant)
	out(w, "Online:    %v\n", a.net.Probe(ctx))
	out(w, "Board:     %d cards, last change %s\n", len(b.Cards), b.LastSaved.Local().Format("Jan 2 15:04"))
	return nil
}

func runSyncDisconnect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if !a.store.PreviouslySynced(ctx) {
		out(cmd.OutOrStdout(), "Not connected.\n")
		return nil
	}
	// without a ready auth client only the local grant is forgotten
	a.initSync(ctx)
	a.coord.Disconnect(ctx)
	out(cmd.OutOrStdout(), "✓ Disconnected. The local board is unchanged.\n")
	return nil
}
