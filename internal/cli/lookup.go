package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailpeek/internal/output"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <code>",
	Short: "Run one access-code lookup and print the result",
	Long: `Run the same lookup the server performs for GET /<code> and print the
outcome, its HTTP status, and the rendered lines.

Examples:
  mailpeek lookup abc123            # Human-readable result
  mailpeek lookup abc123 -o json    # Output as JSON`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.pipeline.Run(cmd.Context(), args[0])
	return output.Output(cmd.OutOrStdout(), outputFmt, res)
}
