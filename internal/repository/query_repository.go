package repository

import (
	"context"
	"fmt"

	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/store"
)

// QueryRepository persists the canonical query list under the queries key.
// It is the only writer of that key.
type QueryRepository struct {
	kv store.KV
}

// NewQueryRepository creates the repository.
func NewQueryRepository(kv store.KV) *QueryRepository {
	return &QueryRepository{kv: kv}
}

// List returns all queries. A missing or malformed key yields an empty list.
func (r *QueryRepository) List(ctx context.Context) ([]models.Query, error) {
	queries := []models.Query{}
	if _, err := r.kv.Read(ctx, store.KeyQueries, &queries); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return queries, nil
}

// Save replaces the stored query list. Last write wins.
func (r *QueryRepository) Save(ctx context.Context, queries []models.Query) error {
	if queries == nil {
		queries = []models.Query{}
	}
	if err := r.kv.Write(ctx, store.KeyQueries, queries); err != nil {
		return fmt.Errorf("write queries: %w", err)
	}
	return nil
}
