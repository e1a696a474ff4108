package database

import (
	"time"

	"github.com/vijay-prabhu/mailpeek/internal/email"
)

const (
	// DefaultFetchCount is used when a rule is created without a fetch count
	DefaultFetchCount = 5

	day = 24 * time.Hour
)

// AccessRule binds an access code to a provider target, fetch limit,
// validity window, and content filters
type AccessRule struct {
	ID             string    `db:"id" json:"id"`
	Code           string    `db:"access_code" json:"access_code"`
	DisplayName    string    `db:"name" json:"name"`
	FetchCount     int       `db:"fetch_count" json:"fetch_count"`
	ValidDays      int       `db:"valid_days" json:"valid_days"`
	SenderFilter   string    `db:"match_sender" json:"match_sender,omitempty"`
	BodyFilter     string    `db:"match_body" json:"match_body,omitempty"`
	TargetProvider string    `db:"target_provider" json:"target_provider"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ExpiresAt returns the end of the validity window. The second return
// value is false for rules that never expire.
func (r *AccessRule) ExpiresAt() (time.Time, bool) {
	if r.ValidDays == 0 {
		return time.Time{}, false
	}
	return r.UpdatedAt.Add(time.Duration(r.ValidDays) * day), true
}

// IsLive reports whether the rule is still valid at now.
// The expiry instant itself is still live.
func (r *AccessRule) IsLive(now time.Time) bool {
	expiresAt, ok := r.ExpiresAt()
	if !ok {
		return true
	}
	return !now.After(expiresAt)
}

// ScriptRelayNode is a stored script relay
type ScriptRelayNode struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	EndpointURL string    `db:"endpoint_url" json:"endpoint_url"`
	Token       string    `db:"token" json:"-"`
	Active      bool      `db:"is_active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Node converts the row into its provider node variant
func (n *ScriptRelayNode) Node() email.ScriptRelay {
	return email.ScriptRelay{
		Name:        n.Name,
		Active:      n.Active,
		EndpointURL: n.EndpointURL,
		Token:       n.Token,
	}
}

// GraphMailboxNode is a stored Graph mailbox
type GraphMailboxNode struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	ClientID     string    `db:"client_id" json:"client_id"`
	ClientSecret string    `db:"client_secret" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	Active       bool      `db:"is_active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Node converts the row into its provider node variant
func (n *GraphMailboxNode) Node() email.GraphMailbox {
	return email.GraphMailbox{
		Name:         n.Name,
		Active:       n.Active,
		ClientID:     n.ClientID,
		ClientSecret: n.ClientSecret,
		RefreshToken: n.RefreshToken,
	}
}

// ProviderSummary is a variant-agnostic listing row for operators
type ProviderSummary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Kind      email.Kind `json:"kind"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
}
