package email

import (
	"context"
	"fmt"
)

// Kind identifies a provider node variant
type Kind string

const (
	KindScriptRelay  Kind = "script_relay"
	KindGraphMailbox Kind = "graph_mailbox"
)

// Node is a configured mail source. It is a closed sum type: the only
// implementations are ScriptRelay and GraphMailbox.
type Node interface {
	// NodeName returns the name rules use to target this node
	NodeName() string

	// IsActive reports whether the node may serve requests
	IsActive() bool

	// Kind returns the variant tag
	Kind() Kind

	node()
}

// ScriptRelay is a script endpoint that returns recent messages as JSON
// in response to a single token-authenticated GET.
type ScriptRelay struct {
	Name        string
	Active      bool
	EndpointURL string
	Token       string
}

func (n ScriptRelay) NodeName() string { return n.Name }
func (n ScriptRelay) IsActive() bool   { return n.Active }
func (n ScriptRelay) Kind() Kind       { return KindScriptRelay }
func (ScriptRelay) node()              {}

// GraphMailbox is a mailbox reached through an OAuth2 refresh exchange
// followed by a Graph API message listing.
type GraphMailbox struct {
	Name         string
	Active       bool
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func (n GraphMailbox) NodeName() string { return n.Name }
func (n GraphMailbox) IsActive() bool   { return n.Active }
func (n GraphMailbox) Kind() Kind       { return KindGraphMailbox }
func (GraphMailbox) node()              {}

// Fetcher retrieves and normalizes recent messages for one node variant
type Fetcher interface {
	// Kind returns the node variant this fetcher serves
	Kind() Kind

	// Fetch retrieves up to limit messages from the node
	Fetch(ctx context.Context, node Node, limit int) ([]Message, error)
}

// Router dispatches a fetch to the Fetcher registered for the node's kind
type Router struct {
	fetchers map[Kind]Fetcher
}

// NewRouter creates a Router over the given fetchers
func NewRouter(fetchers ...Fetcher) *Router {
	r := &Router{fetchers: make(map[Kind]Fetcher, len(fetchers))}
	for _, f := range fetchers {
		r.fetchers[f.Kind()] = f
	}
	return r
}

// Fetch retrieves up to limit messages from node
func (r *Router) Fetch(ctx context.Context, node Node, limit int) ([]Message, error) {
	if node == nil {
		return nil, fmt.Errorf("no provider node given")
	}

	f, ok := r.fetchers[node.Kind()]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for %s", node.Kind())
	}

	return f.Fetch(ctx, node, limit)
}
