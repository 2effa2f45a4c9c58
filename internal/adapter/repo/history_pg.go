package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/sqlinline"
)

// HistoryRepositoryPG implements domain.HistoryStore and domain.BulkDeleter
// on PostgreSQL.
type HistoryRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewHistoryRepository(sql infra.SQLExecutor) *HistoryRepositoryPG {
	return &HistoryRepositoryPG{sql: sql}
}

// Migrate creates the history and credential tables when missing.
func (r *HistoryRepositoryPG) Migrate(ctx context.Context) error {
	for _, stmt := range []string{
		sqlinline.QCreateHistoryTable,
		sqlinline.QCreateHistorySeqIndex,
		sqlinline.QCreateIntegrationTokensTable,
	} {
		if _, err := r.sql.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate history schema: %w", err)
		}
	}
	return nil
}

// List returns every entry, newest first.
func (r *HistoryRepositoryPG) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListHistory)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			e       domain.HistoryEntry
			typ     string
			sources []byte
		)
		if err := rows.Scan(&e.ID, &typ, &e.Asset, &e.Prompt, &e.Text, &sources, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = domain.ResultType(typ)
		if e.Sources, err = decodeSources(sources); err != nil {
			return nil, fmt.Errorf("history entry %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Create inserts result under a new identifier.
func (r *HistoryRepositoryPG) Create(ctx context.Context, result domain.GenerationResult) (domain.HistoryEntry, error) {
	sources, err := encodeSources(result.Sources)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	id := uuid.NewString()
	var createdAt time.Time
	row := r.sql.QueryRow(ctx, sqlinline.QInsertHistory,
		id,
		string(result.Type),
		result.Asset,
		result.Prompt,
		result.Text,
		sources,
	)
	if err := row.Scan(&createdAt); err != nil {
		return domain.HistoryEntry{}, err
	}
	return domain.HistoryEntry{ID: id, GenerationResult: result, CreatedAt: createdAt}, nil
}

// Delete removes id. Identifiers that are not UUIDs cannot exist and are
// treated like any other missing id.
func (r *HistoryRepositoryPG) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	_, err := r.sql.Exec(ctx, sqlinline.QDeleteHistory, id)
	return err
}

// DeleteAll clears the table in one statement.
func (r *HistoryRepositoryPG) DeleteAll(ctx context.Context) error {
	_, err := r.sql.Exec(ctx, sqlinline.QDeleteAllHistory)
	return err
}

var (
	_ domain.HistoryStore = (*HistoryRepositoryPG)(nil)
	_ domain.BulkDeleter  = (*HistoryRepositoryPG)(nil)
)
