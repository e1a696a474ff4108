package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vijay-prabhu/mailpeek/internal/email"
)

const ruleColumns = `id, access_code, name, fetch_count, valid_days,
	match_sender, match_body, target_provider, updated_at`

// GetRuleByCode retrieves a rule by its exact access code.
// Returns nil, nil when no rule matches.
func (db *DB) GetRuleByCode(ctx context.Context, code string) (*AccessRule, error) {
	r := &AccessRule{}
	err := db.GetContext(ctx, r, `SELECT `+ruleColumns+` FROM access_rules WHERE access_code = ?`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListRules retrieves all rules, most recently updated first
func (db *DB) ListRules(ctx context.Context) ([]AccessRule, error) {
	var rules []AccessRule
	err := db.SelectContext(ctx, &rules, `SELECT `+ruleColumns+` FROM access_rules ORDER BY updated_at DESC`)
	return rules, err
}

// CreateRule inserts a new rule. Zero FetchCount falls back to
// DefaultFetchCount and zero UpdatedAt to now.
func (db *DB) CreateRule(ctx context.Context, r *AccessRule) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.FetchCount == 0 {
		r.FetchCount = DefaultFetchCount
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}

	_, err := db.NamedExecContext(ctx, `
		INSERT INTO access_rules (`+ruleColumns+`)
		VALUES (:id, :access_code, :name, :fetch_count, :valid_days,
			:match_sender, :match_body, :target_provider, :updated_at)
	`, r)
	return err
}

// UpdateRule updates an existing rule and restarts its validity window
func (db *DB) UpdateRule(ctx context.Context, r *AccessRule) error {
	r.UpdatedAt = time.Now().UTC()

	result, err := db.NamedExecContext(ctx, `
		UPDATE access_rules SET
			access_code = :access_code, name = :name, fetch_count = :fetch_count,
			valid_days = :valid_days, match_sender = :match_sender, match_body = :match_body,
			target_provider = :target_provider, updated_at = :updated_at
		WHERE id = :id
	`, r)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("rule not found: %s", r.ID)
	}
	return nil
}

// FindActiveScriptRelay retrieves the first active script relay with the exact name.
// Returns nil, nil when none matches.
func (db *DB) FindActiveScriptRelay(ctx context.Context, name string) (*ScriptRelayNode, error) {
	n := &ScriptRelayNode{}
	err := db.GetContext(ctx, n, `
		SELECT id, name, endpoint_url, token, is_active, created_at
		FROM script_relays WHERE name = ? AND is_active = 1
		ORDER BY created_at ASC LIMIT 1
	`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// FindActiveGraphMailbox retrieves the first active Graph mailbox with the exact name.
// Returns nil, nil when none matches.
func (db *DB) FindActiveGraphMailbox(ctx context.Context, name string) (*GraphMailboxNode, error) {
	n := &GraphMailboxNode{}
	err := db.GetContext(ctx, n, `
		SELECT id, name, client_id, client_secret, refresh_token, is_active, created_at
		FROM graph_mailboxes WHERE name = ? AND is_active = 1
		ORDER BY created_at ASC LIMIT 1
	`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// CreateScriptRelay inserts a new script relay
func (db *DB) CreateScriptRelay(ctx context.Context, n *ScriptRelayNode) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if err := db.checkNameFree(ctx, "graph_mailboxes", n.Name); err != nil {
		return err
	}
	n.CreatedAt = time.Now().UTC()

	_, err := db.NamedExecContext(ctx, `
		INSERT INTO script_relays (id, name, endpoint_url, token, is_active, created_at)
		VALUES (:id, :name, :endpoint_url, :token, :is_active, :created_at)
	`, n)
	return err
}

// CreateGraphMailbox inserts a new Graph mailbox
func (db *DB) CreateGraphMailbox(ctx context.Context, n *GraphMailboxNode) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if err := db.checkNameFree(ctx, "script_relays", n.Name); err != nil {
		return err
	}
	n.CreatedAt = time.Now().UTC()

	_, err := db.NamedExecContext(ctx, `
		INSERT INTO graph_mailboxes (id, name, client_id, client_secret, refresh_token, is_active, created_at)
		VALUES (:id, :name, :client_id, :client_secret, :refresh_token, :is_active, :created_at)
	`, n)
	return err
}

// ErrNameTaken is returned when a provider name is already used by the other variant
var ErrNameTaken = errors.New("provider name already used by another provider kind")

// checkNameFree rejects a name that already exists in the other variant's table,
// keeping provider names unique across kinds
func (db *DB) checkNameFree(ctx context.Context, otherTable, name string) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+otherTable+` WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to check provider name: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", ErrNameTaken, name)
	}
	return nil
}

// SetProviderActive toggles the active flag of a provider node of the given kind
func (db *DB) SetProviderActive(ctx context.Context, kind email.Kind, id string, active bool) error {
	var table string
	switch kind {
	case email.KindScriptRelay:
		table = "script_relays"
	case email.KindGraphMailbox:
		table = "graph_mailboxes"
	default:
		return fmt.Errorf("unknown provider kind: %s", kind)
	}

	result, err := db.ExecContext(ctx, `UPDATE `+table+` SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("provider not found: %s", id)
	}
	return nil
}

// ListProviders retrieves every provider node of both variants, ordered by name
func (db *DB) ListProviders(ctx context.Context) ([]ProviderSummary, error) {
	var relays []ScriptRelayNode
	if err := db.SelectContext(ctx, &relays, `
		SELECT id, name, endpoint_url, token, is_active, created_at FROM script_relays
	`); err != nil {
		return nil, fmt.Errorf("failed to list script relays: %w", err)
	}

	var mailboxes []GraphMailboxNode
	if err := db.SelectContext(ctx, &mailboxes, `
		SELECT id, name, client_id, client_secret, refresh_token, is_active, created_at FROM graph_mailboxes
	`); err != nil {
		return nil, fmt.Errorf("failed to list graph mailboxes: %w", err)
	}

	summaries := make([]ProviderSummary, 0, len(relays)+len(mailboxes))
	for _, n := range relays {
		summaries = append(summaries, ProviderSummary{
			ID: n.ID, Name: n.Name, Kind: email.KindScriptRelay, Active: n.Active, CreatedAt: n.CreatedAt,
		})
	}
	for _, n := range mailboxes {
		summaries = append(summaries, ProviderSummary{
			ID: n.ID, Name: n.Name, Kind: email.KindGraphMailbox, Active: n.Active, CreatedAt: n.CreatedAt,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries, nil
}
