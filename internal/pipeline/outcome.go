package pipeline

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vijay-prabhu/mailpeek/internal/database"
	"github.com/vijay-prabhu/mailpeek/internal/email"
	"github.com/vijay-prabhu/mailpeek/internal/render"
)

// Outcome is the terminal state of a request
type Outcome int

const (
	Success Outcome = iota
	NotFound
	Expired
	Misconfigured
	UpstreamFailure
	InternalError
)

var outcomeNames = map[Outcome]string{
	Success:         "success",
	NotFound:        "not_found",
	Expired:         "expired",
	Misconfigured:   "misconfigured",
	UpstreamFailure: "upstream_failure",
	InternalError:   "internal_error",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// MarshalText encodes the outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// StatusCode maps the outcome to its HTTP status
func (o Outcome) StatusCode() int {
	switch o {
	case Success:
		return http.StatusOK
	case NotFound:
		return http.StatusNotFound
	case Expired:
		return http.StatusForbidden
	case Misconfigured:
		return http.StatusServiceUnavailable
	case UpstreamFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Result carries everything known about a finished request
type Result struct {
	Outcome   Outcome
	Rule      *database.AccessRule
	Messages  []email.Message
	ExpiresAt time.Time // zero for rules that never expire
	Provider  string
	Err       error
}

// ErrorInfo describes a non-success result for the visitor
func (r *Result) ErrorInfo() render.ErrorInfo {
	switch r.Outcome {
	case NotFound:
		return render.ErrorInfo{
			Title:   "Not found",
			Message: "The access code is not valid.",
		}
	case Expired:
		return render.ErrorInfo{
			Title:   "Link expired",
			Message: "This access code expired at " + render.FormatTimestamp(r.ExpiresAt) + " (UTC+8).",
		}
	case Misconfigured:
		return render.ErrorInfo{
			Title:   "Configuration error",
			Message: fmt.Sprintf("The provider node [%s] does not exist or is inactive.", r.Provider),
		}
	case UpstreamFailure:
		return render.ErrorInfo{
			Title:   "Upstream error",
			Message: upstreamMessage(r.Err),
		}
	case InternalError:
		msg := "unknown error"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		return render.ErrorInfo{
			Title:   "System error",
			Message: "System error: " + msg,
		}
	default:
		return render.ErrorInfo{}
	}
}

func upstreamMessage(err error) string {
	category, _ := email.CategoryOf(err)
	switch category {
	case email.CategoryAuth:
		return "The mail provider rejected the stored credentials."
	case email.CategoryParse:
		return "Failed to parse the mail provider's response. The token may be wrong or the endpoint did not return JSON."
	case email.CategoryTransport:
		return "A network error occurred while contacting the mail provider."
	default:
		return "Failed to fetch messages from the mail provider."
	}
}

type resultJSON struct {
	Outcome   Outcome              `json:"outcome"`
	Status    int                  `json:"status"`
	Provider  string               `json:"provider,omitempty"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
	Messages  []email.Message      `json:"messages,omitempty"`
	Rule      *database.AccessRule `json:"rule,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// MarshalJSON flattens the result for machine-readable output
func (r *Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Outcome:  r.Outcome,
		Status:   r.Outcome.StatusCode(),
		Provider: r.Provider,
		Messages: r.Messages,
		Rule:     r.Rule,
	}
	if !r.ExpiresAt.IsZero() {
		out.ExpiresAt = &r.ExpiresAt
	}
	if r.Outcome != Success {
		out.Error = r.ErrorInfo().Message
	}
	return json.Marshal(out)
}
