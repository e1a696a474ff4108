// Package filter applies an access rule's sender and body keyword rules to messages.
package filter

import (
	"github.com/vijay-prabhu/mailpeek/internal/email"
)

// Dimension identifies which part of a message a keyword list is matched against
type Dimension string

const (
	DimensionSender Dimension = "sender"
	DimensionBody   Dimension = "body"
)

// Result represents the outcome of filtering one message
type Result struct {
	Include  bool      // Whether the message survives
	FailedOn Dimension // First dimension that rejected it, empty when included
}

// Filter matches messages against sender and body keyword lists.
// Within a dimension any keyword may match; both dimensions must match.
type Filter struct {
	senderKeywords []string
	bodyKeywords   []string
}

// New creates a Filter from the raw delimiter-separated sender and body rules
func New(senderFilter, bodyFilter string) *Filter {
	return &Filter{
		senderKeywords: SplitKeywords(senderFilter),
		bodyKeywords:   SplitKeywords(bodyFilter),
	}
}

// Check evaluates a single message
func (f *Filter) Check(m *email.Message) Result {
	if !matchAny(m.From, f.senderKeywords) {
		return Result{FailedOn: DimensionSender}
	}

	if !matchAny(m.BodyText, f.bodyKeywords) {
		return Result{FailedOn: DimensionBody}
	}

	return Result{Include: true}
}

// Match reports whether a message passes both dimensions
func (f *Filter) Match(m *email.Message) bool {
	return f.Check(m).Include
}

// Apply returns the messages that pass, in their original order.
// It never reorders or deduplicates.
func (f *Filter) Apply(messages []email.Message) []email.Message {
	included := make([]email.Message, 0, len(messages))
	for i := range messages {
		if f.Match(&messages[i]) {
			included = append(included, messages[i])
		}
	}
	return included
}

// Stats counts filtering outcomes
type Stats struct {
	Total          int
	Included       int
	RejectedSender int
	RejectedBody   int
}

// GetStats returns statistics about how messages fared against the filter
func (f *Filter) GetStats(messages []email.Message) Stats {
	stats := Stats{Total: len(messages)}

	for i := range messages {
		r := f.Check(&messages[i])
		switch {
		case r.Include:
			stats.Included++
		case r.FailedOn == DimensionSender:
			stats.RejectedSender++
		case r.FailedOn == DimensionBody:
			stats.RejectedBody++
		}
	}

	return stats
}
