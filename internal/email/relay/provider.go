// Package relay fetches messages from script relay endpoints.
package relay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vijay-prabhu/mailpeek/internal/email"
)

// maxResponseBytes caps how much of a relay response is read
const maxResponseBytes = 8 << 20

// Provider implements email.Fetcher for script relay nodes
type Provider struct {
	client *http.Client
	retry  email.RetryPolicy
	logger *slog.Logger
}

// New creates a new script relay provider
func New(client *http.Client, policy email.RetryPolicy, logger *slog.Logger) *Provider {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		client: client,
		retry:  policy,
		logger: logger,
	}
}

// Kind returns the node variant this provider serves
func (p *Provider) Kind() email.Kind {
	return email.KindScriptRelay
}

// Fetch issues one GET to the relay and normalizes the returned messages
func (p *Provider) Fetch(ctx context.Context, node email.Node, limit int) ([]email.Message, error) {
	relay, ok := node.(email.ScriptRelay)
	if !ok {
		return nil, fmt.Errorf("relay provider cannot fetch %s node", node.Kind())
	}

	fetchURL, err := buildURL(relay, limit)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = p.retry.Do(ctx, p.logger, relay.Name, func() error {
		body, err = p.get(ctx, relay.Name, fetchURL)
		return err
	})
	if err != nil {
		return nil, err
	}

	return parseMessages(relay.Name, body)
}

func (p *Provider) get(ctx context.Context, name, fetchURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, email.TransportError(name, "request failed", err)
	}
	defer resp.Body.Close()

	p.logger.Debug("Relay request completed",
		"provider", name,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(startTime).Milliseconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, email.TransportError(name, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, email.TransportError(name, fmt.Sprintf("relay returned HTTP %d", resp.StatusCode), nil)
	}

	return body, nil
}

// buildURL appends the relay query: action=get&limit=n&count=n&token=t
func buildURL(relay email.ScriptRelay, limit int) (string, error) {
	u, err := url.Parse(relay.EndpointURL)
	if err != nil {
		return "", fmt.Errorf("invalid relay endpoint %q: %w", relay.EndpointURL, err)
	}

	n := strconv.Itoa(limit)
	q := u.Query()
	q.Set("action", "get")
	q.Set("limit", n)
	q.Set("count", n)
	q.Set("token", relay.Token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
