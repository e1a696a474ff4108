package email

import (
	"fmt"
	"strings"
	"time"
)

// NoContent is the body text used when an upstream message carries no body at all
const NoContent = "(no content)"

// Message represents a provider-agnostic email message.
// Messages are built per request from upstream data and never persisted.
type Message struct {
	SentAt   time.Time `json:"sent_at"`           // Absolute send/receive instant
	From     string    `json:"from"`              // Display string, e.g. "Jane <jane@example.com>"
	Subject  string    `json:"subject,omitempty"` // Empty when the upstream had none
	BodyText string    `json:"body"`              // Plain text, markup already stripped
}

// Address represents an email address with optional name
type Address struct {
	Name  string
	Email string
}

// Display formats the address as "{name} <{address}>", or the bare
// address when there is no name
func (a Address) Display() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// ParseAddress parses an email address string like "Name <email@example.com>"
func ParseAddress(s string) Address {
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "<"); start != -1 {
		if end := strings.Index(s, ">"); end > start {
			return Address{
				Name:  strings.Trim(strings.TrimSpace(s[:start]), `"`),
				Email: strings.TrimSpace(s[start+1 : end]),
			}
		}
	}

	return Address{Email: s}
}

// ParseDate attempts to parse the date formats relays and mail headers commonly emit
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000Z0700",
		"2006-01-02 15:04:05",
		time.RFC1123Z,
		time.RFC1123,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2 Jan 2006 15:04:05 -0700",
		"Mon, 02 Jan 2006 15:04:05 -0700 (MST)",
		"Mon Jan 02 2006 15:04:05 GMT-0700",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	// Apps Script Date.toString() appends a zone name, e.g. "(Coordinated Universal Time)"
	if idx := strings.Index(s, " ("); idx != -1 {
		if t, err := time.Parse("Mon Jan 02 2006 15:04:05 GMT-0700", s[:idx]); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}
