package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailpeek/internal/database"
	"github.com/vijay-prabhu/mailpeek/internal/output"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage access rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List access rules",
	Long: `List every access rule with its provider, fetch count, and expiry.

Examples:
  mailpeek rules list               # Table output
  mailpeek rules list -o json       # Output as JSON`,
	RunE: runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an access rule",
	Long: `Create an access rule. A random code is generated when --code is omitted.

Examples:
  mailpeek rules add --provider main --sender netflix --body "code|login"
  mailpeek rules add --code tv --provider outlook --days 7 --fetch 10`,
	RunE: runRulesAdd,
}

var rulesUpdateCmd = &cobra.Command{
	Use:   "update <code>",
	Short: "Change an access rule and restart its validity window",
	Long: `Change the fields given as flags. Any update restarts the rule's
validity window from now, as renewing a code does.

Examples:
  mailpeek rules update tv --days 7
  mailpeek rules update tv --sender "netflix|disney" --fetch 10`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesUpdate,
}

var (
	ruleCode     string
	ruleName     string
	ruleProvider string
	ruleFetch    int
	ruleDays     int
	ruleSender   string
	ruleBody     string

	updName     string
	updProvider string
	updFetch    int
	updDays     int
	updSender   string
	updBody     string
)

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)

	rulesAddCmd.Flags().StringVar(&ruleCode, "code", "", "access code (default: random)")
	rulesAddCmd.Flags().StringVar(&ruleName, "name", "", "display name")
	rulesAddCmd.Flags().StringVar(&ruleProvider, "provider", "", "target provider node name (required)")
	rulesAddCmd.Flags().IntVar(&ruleFetch, "fetch", database.DefaultFetchCount, "messages to fetch per lookup")
	rulesAddCmd.Flags().IntVar(&ruleDays, "days", 0, "validity in days, 0 for no expiry")
	rulesAddCmd.Flags().StringVar(&ruleSender, "sender", "", "sender keywords separated by | or ,")
	rulesAddCmd.Flags().StringVar(&ruleBody, "body", "", "body keywords separated by | or ,")
	_ = rulesAddCmd.MarkFlagRequired("provider")

	rulesCmd.AddCommand(rulesUpdateCmd)
	rulesUpdateCmd.Flags().StringVar(&updName, "name", "", "display name")
	rulesUpdateCmd.Flags().StringVar(&updProvider, "provider", "", "target provider node name")
	rulesUpdateCmd.Flags().IntVar(&updFetch, "fetch", database.DefaultFetchCount, "messages to fetch per lookup")
	rulesUpdateCmd.Flags().IntVar(&updDays, "days", 0, "validity in days, 0 for no expiry")
	rulesUpdateCmd.Flags().StringVar(&updSender, "sender", "", "sender keywords separated by | or ,")
	rulesUpdateCmd.Flags().StringVar(&updBody, "body", "", "body keywords separated by | or ,")
}

// validateRuleInput checks a rule's bounds and normalizes its access code.
// An empty code is replaced with a random one.
func validateRuleInput(code string, fetch, days int) (string, error) {
	if fetch < 1 {
		return "", errors.New("--fetch must be at least 1")
	}
	if days < 0 {
		return "", errors.New("--days must not be negative")
	}

	code = strings.TrimSpace(code)
	if code == "" {
		code = strings.ReplaceAll(uuid.New().String(), "-", "")[:10]
	}
	// Codes are served as /{code}; healthz is taken by the liveness route
	if strings.Contains(code, "/") || code == "healthz" {
		return "", fmt.Errorf("invalid access code: %q", code)
	}
	return code, nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rules, err := db.ListRules(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	return output.Output(cmd.OutOrStdout(), outputFmt, rules)
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	code, err := validateRuleInput(ruleCode, ruleFetch, ruleDays)
	if err != nil {
		return err
	}

	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rule := &database.AccessRule{
		Code:           code,
		DisplayName:    ruleName,
		FetchCount:     ruleFetch,
		ValidDays:      ruleDays,
		SenderFilter:   ruleSender,
		BodyFilter:     ruleBody,
		TargetProvider: ruleProvider,
	}
	if err := db.CreateRule(cmd.Context(), rule); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created rule %s (code: %s)\n", rule.ID, rule.Code)
	return nil
}

func runRulesUpdate(cmd *cobra.Command, args []string) error {
	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rule, err := db.GetRuleByCode(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to look up rule: %w", err)
	}
	if rule == nil {
		return fmt.Errorf("rule not found: %s", args[0])
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		rule.DisplayName = updName
	}
	if flags.Changed("provider") {
		rule.TargetProvider = updProvider
	}
	if flags.Changed("fetch") {
		rule.FetchCount = updFetch
	}
	if flags.Changed("days") {
		rule.ValidDays = updDays
	}
	if flags.Changed("sender") {
		rule.SenderFilter = updSender
	}
	if flags.Changed("body") {
		rule.BodyFilter = updBody
	}
	if _, err := validateRuleInput(rule.Code, rule.FetchCount, rule.ValidDays); err != nil {
		return err
	}

	if err := db.UpdateRule(cmd.Context(), rule); err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated rule %s (code: %s)\n", rule.ID, rule.Code)
	return nil
}
