// Package supabase implements the repository over Supabase's PostgREST API.
// Tables and columns use the camelCase names of the hosted schema.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Pseudotools/pseudorandom-worker/internal/apperrors"
	"github.com/jackc/pgerrcode"
	supabasego "github.com/supabase-community/supabase-go"
)

const (
	tableJobs         = "predictionJobs"
	tableRenders      = "renders"
	tableUserProfiles = "userProfiles"
	tableTransactions = "transactions"
)

// Repository talks to the predictionJobs, renders, userProfiles and
// transactions tables.
type Repository struct {
	client *supabasego.Client
}

// NewRepository creates a PostgREST-backed repository. The key must carry the
// service role so row level security does not hide rows from the worker.
func NewRepository(url, serviceKey string) (*Repository, error) {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if url == "" || strings.TrimSpace(serviceKey) == "" {
		return nil, fmt.Errorf("supabase url and service role key are required")
	}
	client, err := supabasego.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &Repository{client: client}, nil
}

func (r *Repository) ready(op string) error {
	if r == nil || r.client == nil {
		return apperrors.Persistence(op, fmt.Errorf("repository not initialised"))
	}
	return nil
}

// classify maps a PostgREST error onto the repository error contract.
// postgrest-go flattens errors to "(code) message".
func classify(op, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "("+pgerrcode.UniqueViolation+")") {
		return apperrors.Conflict(resource, id)
	}
	return apperrors.Persistence(op, err)
}

// decodeRows decodes a representation body and reports how many rows it held.
func decodeRows(body []byte, dst interface{}) (int, error) {
	var raw []json.RawMessage
	if len(body) == 0 {
		return 0, nil
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return 0, fmt.Errorf("decode rows: %w", err)
	}
	if dst != nil && len(raw) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return 0, fmt.Errorf("decode rows: %w", err)
		}
	}
	return len(raw), nil
}

// insert writes rows and discards the representation.
func (r *Repository) insert(ctx context.Context, op, table, resource, id string, value interface{}, upsert bool, onConflict string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Persistence(op, err)
	}
	_, _, err := r.client.From(table).Insert(value, upsert, onConflict, "minimal", "").Execute()
	return classify(op, resource, id, err)
}

// update patches the rows where column equals id and returns how many matched.
func (r *Repository) update(ctx context.Context, op, table, resource, column, id string, patch map[string]interface{}) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, apperrors.Persistence(op, err)
	}
	body, _, err := r.client.From(table).Update(patch, "representation", "").Eq(column, id).Execute()
	if err != nil {
		return 0, classify(op, resource, id, err)
	}
	n, err := decodeRows(body, nil)
	if err != nil {
		return 0, apperrors.Persistence(op, err)
	}
	return n, nil
}

// selectOne loads the single row where column equals id into dst.
func (r *Repository) selectOne(ctx context.Context, op, table, resource, column, id string, dst interface{}) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Persistence(op, err)
	}
	body, _, err := r.client.From(table).Select("*", "", false).Eq(column, id).Execute()
	if err != nil {
		return classify(op, resource, id, err)
	}
	var rows []json.RawMessage
	if _, err := decodeRows(body, &rows); err != nil {
		return apperrors.Persistence(op, err)
	}
	if len(rows) == 0 {
		return apperrors.NotFound(resource, id)
	}
	if err := json.Unmarshal(rows[0], dst); err != nil {
		return apperrors.Persistence(op, fmt.Errorf("decode %s: %w", resource, err))
	}
	return nil
}

func requireID(op, name, id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", apperrors.Persistence(op, fmt.Errorf("%s is required", name))
	}
	return trimmed, nil
}
