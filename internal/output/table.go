package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/vijay-prabhu/mailpeek/internal/database"
	"github.com/vijay-prabhu/mailpeek/internal/pipeline"
	"github.com/vijay-prabhu/mailpeek/internal/render"
)

const dateLayout = "2006-01-02 15:04"

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case []database.AccessRule:
		return rulesTable(w, v)
	case []database.ProviderSummary:
		return providersTable(w, v)
	case *pipeline.Result:
		return lookupResult(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func rulesTable(w io.Writer, rules []database.AccessRule) error {
	if len(rules) == 0 {
		fmt.Fprintln(w, "No rules found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("CODE", "NAME", "PROVIDER", "FETCH", "EXPIRES", "SENDER", "BODY")

	for _, r := range rules {
		expires := "never"
		if at, ok := r.ExpiresAt(); ok {
			expires = render.FormatTimestamp(at)
		}
		if err := table.Append([]string{
			r.Code,
			truncate(r.DisplayName, 20),
			r.TargetProvider,
			strconv.Itoa(r.FetchCount),
			expires,
			truncate(r.SenderFilter, 25),
			truncate(r.BodyFilter, 25),
		}); err != nil {
			return err
		}
	}

	return table.Render()
}

func providersTable(w io.Writer, providers []database.ProviderSummary) error {
	if len(providers) == 0 {
		fmt.Fprintln(w, "No providers found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("NAME", "KIND", "ACTIVE", "CREATED", "ID")

	for _, p := range providers {
		active := "no"
		if p.Active {
			active = "yes"
		}
		if err := table.Append([]string{
			p.Name,
			string(p.Kind),
			active,
			p.CreatedAt.Format(dateLayout),
			p.ID,
		}); err != nil {
			return err
		}
	}

	return table.Render()
}

func lookupResult(w io.Writer, res *pipeline.Result) error {
	fmt.Fprintf(w, "Outcome:   %s (HTTP %d)\n", res.Outcome, res.Outcome.StatusCode())
	if res.Provider != "" {
		fmt.Fprintf(w, "Provider:  %s\n", res.Provider)
	}
	if !res.ExpiresAt.IsZero() {
		fmt.Fprintf(w, "Expires:   %s (UTC+8)\n", render.FormatTimestamp(res.ExpiresAt))
	}

	if res.Outcome != pipeline.Success {
		fmt.Fprintf(w, "Detail:    %s\n", res.ErrorInfo().Message)
		if res.Err != nil && res.Outcome == pipeline.UpstreamFailure {
			fmt.Fprintf(w, "Error:     %v\n", res.Err)
		}
		return nil
	}

	fmt.Fprintln(w)
	if len(res.Messages) == 0 {
		fmt.Fprintln(w, render.EmptyPlaceholder)
		return nil
	}
	for _, line := range render.Lines(res.Messages) {
		fmt.Fprintf(w, "%s | %s\n", line.Timestamp, line.Body)
	}
	return nil
}

// truncate shortens a string to maxLen runes with ellipsis
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
