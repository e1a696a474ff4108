package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/oauth2"

	"github.com/vijay-prabhu/mailpeek/internal/email"
)

// messageFields is the minimal projection requested from the messages endpoint
const messageFields = "subject,from,bodyPreview,receivedDateTime,body"

// graphMessage is one item of the messages endpoint's value array
type graphMessage struct {
	Subject          string    `json:"subject"`
	BodyPreview      string    `json:"bodyPreview"`
	ReceivedDateTime time.Time `json:"receivedDateTime"`
	From             struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
	Body struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
}

// messageList is the messages endpoint response. Value is a pointer so a
// missing array can be told apart from an empty one.
type messageList struct {
	Value *[]graphMessage `json:"value"`
}

// listMessages requests the top limit messages with the bearer token
func (p *Provider) listMessages(ctx context.Context, name string, token *oauth2.Token, limit int) ([]byte, error) {
	q := url.Values{}
	q.Set("$top", strconv.Itoa(limit))
	q.Set("$select", messageFields)
	listURL := strings.TrimRight(p.cfg.APIBaseURL, "/") + "/me/messages?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// Bearer transport over the shared client
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, p.client), oauth2.StaticTokenSource(token))
	client.Timeout = p.client.Timeout

	resp, err := client.Do(req)
	if err != nil {
		return nil, email.TransportError(name, "message request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, email.TransportError(name, "failed to read message response", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, email.AuthError(name, fmt.Sprintf("messages endpoint rejected the token (HTTP %d)", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, email.TransportError(name, fmt.Sprintf("messages endpoint returned HTTP %d", resp.StatusCode), nil)
	}

	return body, nil
}

// parseMessages decodes a messages response into normalized messages
func parseMessages(name string, body []byte) ([]email.Message, error) {
	var list messageList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, email.ParseError(name, "messages endpoint did not return JSON", err)
	}
	if list.Value == nil {
		return nil, email.ParseError(name, "messages response has no value array", nil)
	}

	messages := make([]email.Message, 0, len(*list.Value))
	for i, m := range *list.Value {
		if m.ReceivedDateTime.IsZero() {
			return nil, email.ParseError(name, fmt.Sprintf("message %d has no receivedDateTime", i), nil)
		}
		from := email.Address{
			Name:  m.From.EmailAddress.Name,
			Email: m.From.EmailAddress.Address,
		}
		messages = append(messages, email.Message{
			SentAt:   m.ReceivedDateTime,
			From:     from.Display(),
			Subject:  m.Subject,
			BodyText: bodyText(m),
		})
	}

	return messages, nil
}

// bodyText picks bodyPreview, then the body content, then NoContent
func bodyText(m graphMessage) string {
	if strings.TrimSpace(m.BodyPreview) != "" {
		return m.BodyPreview
	}

	content := m.Body.Content
	if strings.EqualFold(m.Body.ContentType, "html") {
		content = htmlToText(content)
	}
	if strings.TrimSpace(content) != "" {
		return content
	}

	return email.NoContent
}

// htmlToText extracts the visible text of an HTML body
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, head").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
