// Package repository implements account persistence for the supported
// backends: MongoDB, Neo4j, PostgreSQL and an in-process map.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/finadvisor/backend/internal/domain"
	"github.com/vanshika/finadvisor/backend/internal/graph"
)

// GraphStore persists accounts as :Account nodes. Profile and settings are
// stored as JSON string properties since nested maps are not valid node
// property values.
type GraphStore struct {
	client graph.Client
}

// NewGraphStore instantiates a GraphStore backed by the supplied graph client.
func NewGraphStore(client graph.Client) *GraphStore {
	return &GraphStore{client: client}
}

// EnsureSchema creates the uniqueness constraints the store relies on.
func (s *GraphStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{accountIDConstraintCypher, accountEmailConstraintCypher} {
		if _, err := s.client.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("ensure account constraints: %w", err)
		}
	}
	return nil
}

// FindByEmail loads the account registered under email.
func (s *GraphStore) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	res, err := s.client.ExecuteRead(ctx, findAccountByEmailCypher, map[string]any{"email": email})
	if err != nil {
		return domain.Account{}, fmt.Errorf("find account by email: %w", err)
	}
	return accountFromResult(res)
}

// FindByID loads the account with the given id.
func (s *GraphStore) FindByID(ctx context.Context, id string) (domain.Account, error) {
	res, err := s.client.ExecuteRead(ctx, findAccountByIDCypher, map[string]any{"id": id})
	if err != nil {
		return domain.Account{}, fmt.Errorf("find account %s: %w", id, err)
	}
	return accountFromResult(res)
}

// Create inserts a new account node. An existing node with the same email
// yields domain.ErrEmailTaken.
func (s *GraphStore) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	props, err := accountProperties(account)
	if err != nil {
		return domain.Account{}, err
	}

	res, err := s.client.ExecuteWrite(ctx, createAccountCypher, map[string]any{
		"email": account.Email,
		"props": props,
	})
	if errors.Is(err, graph.ErrConstraintViolation) {
		return domain.Account{}, domain.ErrEmailTaken
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}
	created, err := accountFromResult(res)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return domain.Account{}, domain.ErrEmailTaken
	}
	return created, err
}

// Update replaces the profile, settings and update timestamp of an account.
func (s *GraphStore) Update(ctx context.Context, account domain.Account) (domain.Account, error) {
	profile, settings, err := encodeDocuments(account)
	if err != nil {
		return domain.Account{}, err
	}

	res, err := s.client.ExecuteWrite(ctx, updateAccountCypher, map[string]any{
		"id":        account.ID,
		"profile":   profile,
		"settings":  settings,
		"updatedAt": formatTime(account.UpdatedAt),
	})
	if err != nil {
		return domain.Account{}, fmt.Errorf("update account %s: %w", account.ID, err)
	}
	return accountFromResult(res)
}

// Ping verifies the graph database is reachable.
func (s *GraphStore) Ping(ctx context.Context) error {
	return s.client.VerifyConnectivity(ctx)
}

func accountProperties(a domain.Account) (map[string]any, error) {
	profile, settings, err := encodeDocuments(a)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":           a.ID,
		"email":        a.Email,
		"passwordHash": a.PasswordHash,
		"profile":      profile,
		"settings":     settings,
		"createdAt":    formatTime(a.CreatedAt),
		"updatedAt":    formatTime(a.UpdatedAt),
	}, nil
}

func encodeDocuments(a domain.Account) (string, string, error) {
	profile, err := json.Marshal(a.Profile)
	if err != nil {
		return "", "", fmt.Errorf("encode profile: %w", err)
	}
	settings, err := json.Marshal(a.Settings)
	if err != nil {
		return "", "", fmt.Errorf("encode settings: %w", err)
	}
	return string(profile), string(settings), nil
}

func accountFromResult(res graph.Result) (domain.Account, error) {
	rec, ok := res.First()
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	account := domain.Account{
		ID:           toString(rec["id"]),
		Email:        toString(rec["email"]),
		PasswordHash: toString(rec["passwordHash"]),
		Settings:     domain.DefaultSettings(),
	}
	if raw := toString(rec["profile"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &account.Profile); err != nil {
			return domain.Account{}, fmt.Errorf("decode profile of account %s: %w", account.ID, err)
		}
	}
	if raw := toString(rec["settings"]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &account.Settings); err != nil {
			return domain.Account{}, fmt.Errorf("decode settings of account %s: %w", account.ID, err)
		}
	}
	account.Profile = account.Profile.WithDefaults()
	if ts := toTimePtr(rec["createdAt"]); ts != nil {
		account.CreatedAt = *ts
	}
	if ts := toTimePtr(rec["updatedAt"]); ts != nil {
		account.UpdatedAt = *ts
	}
	return account, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
	}
	return nil
}

var (
	accountIDConstraintCypher = `
CREATE CONSTRAINT account_id IF NOT EXISTS
FOR (a:Account) REQUIRE a.id IS UNIQUE`

	accountEmailConstraintCypher = `
CREATE CONSTRAINT account_email IF NOT EXISTS
FOR (a:Account) REQUIRE a.email IS UNIQUE`

	accountReturnClause = `
RETURN a.id AS id,
       a.email AS email,
       a.passwordHash AS passwordHash,
       a.profile AS profile,
       a.settings AS settings,
       a.createdAt AS createdAt,
       a.updatedAt AS updatedAt`

	findAccountByEmailCypher = `
MATCH (a:Account {email: $email})` + accountReturnClause

	findAccountByIDCypher = `
MATCH (a:Account {id: $id})` + accountReturnClause

	createAccountCypher = `
OPTIONAL MATCH (existing:Account {email: $email})
WITH existing
WHERE existing IS NULL
CREATE (a:Account)
SET a = $props` + accountReturnClause

	updateAccountCypher = `
MATCH (a:Account {id: $id})
SET a.profile = $profile,
    a.settings = $settings,
    a.updatedAt = $updatedAt` + accountReturnClause
)
