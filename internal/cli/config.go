package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(out, "Config file already exists at %s\n", configPath)
		fmt.Fprintln(out, "Use 'mailpeek config show' to view current configuration")
		return nil
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(out, "Created config file at %s\n", configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Register a provider: mailpeek providers add-relay <name> <url> <token>")
	fmt.Fprintln(out, "  2. Create a rule:       mailpeek rules add --provider <name>")
	fmt.Fprintln(out, "  3. Start the server:    mailpeek serve")

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(out, "No config file found. Run 'mailpeek config init' to create one.")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	fmt.Fprintf(out, "# Config file: %s\n\n", configPath)
	fmt.Fprintln(out, string(data))
	return nil
}

const defaultConfig = `# mailpeek configuration

[server]
addr = ":8080"
read_timeout = "10s"
write_timeout = "60s"

[database]
path = "~/.local/share/mailpeek/mailpeek.db"

[upstream]
timeout = "30s"        # per outbound request
retry_attempts = 1     # 1 = no retry; only network errors are retried
retry_delay = "500ms"

[graph]
token_url = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
api_base_url = "https://graph.microsoft.com/v1.0"
scope = "https://graph.microsoft.com/.default"

[log]
level = "info"         # debug, info, warn, error
format = "text"        # text, json
`
