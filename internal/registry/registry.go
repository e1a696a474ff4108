// Package registry resolves provider nodes by name across both node variants.
package registry

import (
	"context"
	"fmt"

	"github.com/vijay-prabhu/mailpeek/internal/database"
	"github.com/vijay-prabhu/mailpeek/internal/email"
)

// Store is the provider lookup contract: exact-name, active-only point queries
// against each variant collection
type Store interface {
	FindActiveScriptRelay(ctx context.Context, name string) (*database.ScriptRelayNode, error)
	FindActiveGraphMailbox(ctx context.Context, name string) (*database.GraphMailboxNode, error)
}

// Registry resolves a rule's target provider name to a live node.
// It holds no state; every call re-queries the store so credential
// edits take effect on the next request.
type Registry struct {
	store Store
}

// New creates a Registry backed by store
func New(store Store) *Registry {
	return &Registry{store: store}
}

// Resolve returns the first active node named name, or nil when none exists.
// Script relays take precedence over Graph mailboxes sharing the same name.
func (r *Registry) Resolve(ctx context.Context, name string) (email.Node, error) {
	relay, err := r.store.FindActiveScriptRelay(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up script relay %q: %w", name, err)
	}
	if relay != nil {
		return relay.Node(), nil
	}

	mailbox, err := r.store.FindActiveGraphMailbox(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up graph mailbox %q: %w", name, err)
	}
	if mailbox != nil {
		return mailbox.Node(), nil
	}

	return nil, nil
}
