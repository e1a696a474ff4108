// Package pipeline drives a single access-code request from rule lookup
// through fetching, filtering, and rendering.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"time"

	"github.com/vijay-prabhu/mailpeek/internal/database"
	"github.com/vijay-prabhu/mailpeek/internal/email"
	"github.com/vijay-prabhu/mailpeek/internal/filter"
	"github.com/vijay-prabhu/mailpeek/internal/render"
)

// RuleStore looks up access rules by code. It returns nil, nil when no
// rule matches.
type RuleStore interface {
	GetRuleByCode(ctx context.Context, code string) (*database.AccessRule, error)
}

// Resolver maps a provider name to an active node, or nil when none exists
type Resolver interface {
	Resolve(ctx context.Context, name string) (email.Node, error)
}

// Fetcher retrieves messages from a resolved node
type Fetcher interface {
	Fetch(ctx context.Context, node email.Node, limit int) ([]email.Message, error)
}

// Pipeline is stateless; one instance serves all requests
type Pipeline struct {
	rules    RuleStore
	resolver Resolver
	fetcher  Fetcher
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithClock overrides the time source used by the expiry check
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline
func New(rules RuleStore, resolver Resolver, fetcher Fetcher, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		rules:    rules,
		resolver: resolver,
		fetcher:  fetcher,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run resolves code to a terminal Result. It never panics; a panic in any
// stage becomes an InternalError result.
func (p *Pipeline) Run(ctx context.Context, code string) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic", "code", code, "panic", r)
			res = &Result{Outcome: InternalError, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if code == "" {
		return &Result{Outcome: NotFound}
	}

	rule, err := p.rules.GetRuleByCode(ctx, code)
	if err != nil {
		return p.internal(code, fmt.Errorf("failed to look up rule: %w", err))
	}
	if rule == nil {
		return &Result{Outcome: NotFound}
	}

	res = &Result{Rule: rule, Provider: rule.TargetProvider}

	if expiresAt, ok := rule.ExpiresAt(); ok {
		res.ExpiresAt = expiresAt
		if !rule.IsLive(p.now()) {
			res.Outcome = Expired
			return res
		}
	}

	node, err := p.resolver.Resolve(ctx, rule.TargetProvider)
	if err != nil {
		return p.internal(code, err)
	}
	if node == nil {
		res.Outcome = Misconfigured
		return res
	}

	msgs, err := p.fetcher.Fetch(ctx, node, rule.FetchCount)
	if err != nil {
		p.logger.Warn("upstream fetch failed",
			"code", code,
			"provider", rule.TargetProvider,
			"kind", node.Kind(),
			"error", err,
		)
		res.Outcome = UpstreamFailure
		res.Err = err
		return res
	}

	f := filter.New(rule.SenderFilter, rule.BodyFilter)
	res.Outcome = Success
	res.Messages = f.Apply(msgs)
	if p.logger.Enabled(ctx, slog.LevelDebug) {
		stats := f.GetStats(msgs)
		p.logger.Debug("lookup served",
			"code", code,
			"provider", rule.TargetProvider,
			"fetched", stats.Total,
			"shown", stats.Included,
			"rejected_sender", stats.RejectedSender,
			"rejected_body", stats.RejectedBody,
		)
	}
	return res
}

func (p *Pipeline) internal(code string, err error) *Result {
	p.logger.Error("pipeline failed", "code", code, "error", err)
	return &Result{Outcome: InternalError, Err: err}
}

// Response is a rendered HTTP answer
type Response struct {
	Status  int
	Body    []byte
	Outcome Outcome
}

// Serve runs the pipeline and renders the result as an HTML document
func (p *Pipeline) Serve(ctx context.Context, code string) *Response {
	res := p.Run(ctx, code)

	var buf bytes.Buffer
	var err error
	if res.Outcome == Success {
		err = render.Messages(&buf, res.Messages)
	} else {
		err = render.Error(&buf, res.ErrorInfo())
	}
	if err != nil {
		p.logger.Error("failed to render page", "code", code, "error", err)
		return &Response{
			Status:  http.StatusInternalServerError,
			Body:    fallbackPage("internal error: " + err.Error()),
			Outcome: InternalError,
		}
	}

	return &Response{
		Status:  res.Outcome.StatusCode(),
		Body:    buf.Bytes(),
		Outcome: res.Outcome,
	}
}

// fallbackPage is served when the renderer itself fails
func fallbackPage(msg string) []byte {
	return []byte("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Error</title></head>" +
		"<body><p>" + html.EscapeString(msg) + "</p></body></html>\n")
}
