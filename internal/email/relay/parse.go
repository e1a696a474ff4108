package relay

import (
	"encoding/json"
	"fmt"

	"github.com/vijay-prabhu/mailpeek/internal/email"
)

// relayMessage is one element of the relay's JSON array
type relayMessage struct {
	Date    string  `json:"date"`
	From    string  `json:"from"`
	Subject string  `json:"subject"`
	Body    *string `json:"body"`
	Snippet *string `json:"snippet"`
}

// text returns body when present and non-empty, then snippet, then ""
func (m relayMessage) text() string {
	if m.Body != nil && *m.Body != "" {
		return *m.Body
	}
	if m.Snippet != nil {
		return *m.Snippet
	}
	return ""
}

// parseMessages decodes a relay response into normalized messages,
// preserving the relay's order
func parseMessages(provider string, body []byte) ([]email.Message, error) {
	var raw []relayMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, email.ParseError(provider, "relay did not return a JSON message array", err)
	}
	// A JSON null decodes into a nil slice without error
	if raw == nil {
		return nil, email.ParseError(provider, "relay did not return a JSON message array", nil)
	}

	messages := make([]email.Message, 0, len(raw))
	for i, m := range raw {
		if m.Date == "" {
			return nil, email.ParseError(provider, fmt.Sprintf("message %d has no date", i), nil)
		}
		sentAt, err := email.ParseDate(m.Date)
		if err != nil {
			return nil, email.ParseError(provider, fmt.Sprintf("message %d has an invalid date", i), err)
		}

		messages = append(messages, email.Message{
			SentAt:   sentAt,
			From:     email.ParseAddress(m.From).Display(),
			Subject:  m.Subject,
			BodyText: m.text(),
		})
	}

	return messages, nil
}
