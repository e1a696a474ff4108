// Package graph fetches messages from Graph API mailboxes using an OAuth2
// refresh-token exchange.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/vijay-prabhu/mailpeek/internal/email"
)

const (
	DefaultTokenURL   = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
	DefaultAPIBaseURL = "https://graph.microsoft.com/v1.0"
	DefaultScope      = "https://graph.microsoft.com/.default"
)

// Config holds the Graph endpoints
type Config struct {
	TokenURL   string
	APIBaseURL string
	Scope      string
}

// DefaultConfig returns the public Microsoft endpoints
func DefaultConfig() Config {
	return Config{
		TokenURL:   DefaultTokenURL,
		APIBaseURL: DefaultAPIBaseURL,
		Scope:      DefaultScope,
	}
}

// Provider implements email.Fetcher for Graph mailbox nodes
type Provider struct {
	cfg    Config
	client *http.Client
	retry  email.RetryPolicy
	logger *slog.Logger
}

// New creates a new Graph provider
func New(cfg Config, client *http.Client, policy email.RetryPolicy, logger *slog.Logger) *Provider {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		cfg:    cfg,
		client: client,
		retry:  policy,
		logger: logger,
	}
}

// Kind returns the node variant this provider serves
func (p *Provider) Kind() email.Kind {
	return email.KindGraphMailbox
}

// Fetch refreshes the mailbox's access token, then lists its newest messages.
// The two calls are sequential; the second needs the first's token.
func (p *Provider) Fetch(ctx context.Context, node email.Node, limit int) ([]email.Message, error) {
	mailbox, ok := node.(email.GraphMailbox)
	if !ok {
		return nil, fmt.Errorf("graph provider cannot fetch %s node", node.Kind())
	}

	var token *oauth2.Token
	err := p.retry.Do(ctx, p.logger, mailbox.Name, func() error {
		var err error
		token, err = p.refreshToken(ctx, mailbox)
		return err
	})
	if err != nil {
		return nil, err
	}

	var body []byte
	err = p.retry.Do(ctx, p.logger, mailbox.Name, func() error {
		var err error
		body, err = p.listMessages(ctx, mailbox.Name, token, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	return parseMessages(mailbox.Name, body)
}
