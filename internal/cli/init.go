package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const configTemplate = `# Todoify configuration
# Location: ~/.config/todoify/config.yaml

api:
  # Backend address. TODOIFY_API_URL and --api-url override it.
  base_url: "http://localhost:8000/api"
  # Per-request timeout
  timeout: 30s

auth:
  # Optional OAuth2 client for 'todoify oauth' and ctrl+o on the login screen.
  # oauth:
  #   client_id: ""
  #   client_secret: ""
  #   authorize_url: ""
  #   token_url: ""
  #   scope: ""

ui:
  # "grid" or "calendar"
  default_view: grid
  # "all", "active" or "completed"
  default_filter: all

log:
  # debug, info, warn or error
  level: info
  # Defaults to ~/.local/share/todoify/todoify.log
  # file: ""
`

func newInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file template",
		Args:  cobra.NoArgs,
		RunE:  a.runInit,
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing config file without asking")
	return cmd
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	out := cmd.OutOrStdout()

	path, err := a.configPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(out, "Config file already exists: %s\n", path)
		fmt.Fprint(out, "Overwrite? [y/N]: ")

		response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		response = strings.TrimSpace(response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(out, "Config file created: %s\n\n", path)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Point api.base_url at your Todoify server")
	fmt.Fprintln(out, "  2. Run 'todoify signup' or 'todoify login'")
	fmt.Fprintln(out, "  3. Run 'todoify' to open the dashboard")
	return nil
}
