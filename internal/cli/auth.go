package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var syncSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Store the Google OAuth client used for sync",
	Long: `Store the OAuth client id and secret of a Google Cloud "TV and Limited
Input devices" client in the config file. The client needs the Drive API
enabled; ohm only asks for access to its own app data folder.

The values can also come from OHM_GOOGLE_CLIENT_ID and OHM_GOOGLE_CLIENT_SECRET.`,
	RunE: runSyncSetup,
}

func init() {
	syncSetupCmd.Flags().String("client-id", "", "OAuth client id")
}

func runSyncSetup(cmd *cobra.Command, args []string) error {
	clientID, _ := cmd.Flags().GetString("client-id")
	if clientID == "" {
		clientID = readLine(cmd, "Client ID: ")
	}
	if clientID == "" {
		return fmt.Errorf("client id required")
	}
	secret := readSecret(cmd, "Client secret: ")

	cfg.Drive.ClientID = clientID
	cfg.Drive.ClientSecret = secret
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	out(cmd.OutOrStdout(), "✓ Sync client saved. Connect with: ohm sync connect\n")
	return nil
}

// readLine prints prompt and reads one trimmed line from the command's input
func readLine(cmd *cobra.Command, prompt string) string {
	out(cmd.OutOrStdout(), "%s", prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	return strings.TrimSpace(line)
}

// readSecret reads without echo when stdin is a terminal
func readSecret(cmd *cobra.Command, prompt string) string {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(cmd, prompt)
	}
	out(cmd.OutOrStdout(), "%s", prompt)
	secret, _ := term.ReadPassword(fd)
	out(cmd.OutOrStdout(), "\n")
	return strings.TrimSpace(string(secret))
}

func confirm(cmd *cobra.Command, question string) bool {
	answer := strings.ToLower(readLine(cmd, question))
	return answer == "y" || answer == "yes"
}
