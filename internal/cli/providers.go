package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailpeek/internal/database"
	"github.com/vijay-prabhu/mailpeek/internal/email"
	"github.com/vijay-prabhu/mailpeek/internal/output"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Manage provider nodes",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List provider nodes of both kinds",
	RunE:  runProvidersList,
}

var providersAddRelayCmd = &cobra.Command{
	Use:   "add-relay <name> <endpoint-url> <token>",
	Short: "Register a script relay",
	Args:  cobra.ExactArgs(3),
	RunE:  runProvidersAddRelay,
}

var providersAddGraphCmd = &cobra.Command{
	Use:   "add-graph <name> <client-id> <client-secret> <refresh-token>",
	Short: "Register a Microsoft Graph mailbox",
	Args:  cobra.ExactArgs(4),
	RunE:  runProvidersAddGraph,
}

var providersEnableCmd = &cobra.Command{
	Use:   "enable <kind> <id>",
	Short: "Activate a provider node (kind: script_relay or graph_mailbox)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProviderActive(cmd, args, true)
	},
}

var providersDisableCmd = &cobra.Command{
	Use:   "disable <kind> <id>",
	Short: "Deactivate a provider node (kind: script_relay or graph_mailbox)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProviderActive(cmd, args, false)
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersAddRelayCmd)
	providersCmd.AddCommand(providersAddGraphCmd)
	providersCmd.AddCommand(providersEnableCmd)
	providersCmd.AddCommand(providersDisableCmd)
}

func runProvidersList(cmd *cobra.Command, args []string) error {
	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	providers, err := db.ListProviders(cmd.Context())
	if err != nil {
		return err
	}

	return output.Output(cmd.OutOrStdout(), outputFmt, providers)
}

func runProvidersAddRelay(cmd *cobra.Command, args []string) error {
	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	node := &database.ScriptRelayNode{
		Name:        args[0],
		EndpointURL: args[1],
		Token:       args[2],
		Active:      true,
	}
	if err := db.CreateScriptRelay(cmd.Context(), node); err != nil {
		return fmt.Errorf("failed to create script relay: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created script relay %s (id: %s)\n", node.Name, node.ID)
	return nil
}

func runProvidersAddGraph(cmd *cobra.Command, args []string) error {
	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	node := &database.GraphMailboxNode{
		Name:         args[0],
		ClientID:     args[1],
		ClientSecret: args[2],
		RefreshToken: args[3],
		Active:       true,
	}
	if err := db.CreateGraphMailbox(cmd.Context(), node); err != nil {
		return fmt.Errorf("failed to create graph mailbox: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created graph mailbox %s (id: %s)\n", node.Name, node.ID)
	return nil
}

// parseProviderKind accepts only the two node variants
func parseProviderKind(s string) (email.Kind, error) {
	kind := email.Kind(s)
	if kind != email.KindScriptRelay && kind != email.KindGraphMailbox {
		return "", fmt.Errorf("unknown provider kind %q (want %s or %s)", s, email.KindScriptRelay, email.KindGraphMailbox)
	}
	return kind, nil
}

func setProviderActive(cmd *cobra.Command, args []string, active bool) error {
	kind, err := parseProviderKind(args[0])
	if err != nil {
		return err
	}

	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SetProviderActive(cmd.Context(), kind, args[1], active); err != nil {
		return err
	}

	state := "disabled"
	if active {
		state = "enabled"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Provider %s %s\n", args[1], state)
	return nil
}
