package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"genstudio/internal/domain"
	"genstudio/internal/sqlinline"
)

const defaultSQLitePath = "data/history.sqlite3"

// SQLiteStore is the embedded history and credential store used when no
// PostgreSQL database is configured.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (and creates) the database at path. ":memory:" keeps the
// store in process.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultSQLitePath
	}

	dsn := path
	if path != ":memory:" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = absPath
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	for _, stmt := range []string{
		sqlinline.SQLiteCreateHistoryTable,
		sqlinline.SQLiteCreateIntegrationTokensTable,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, sqlinline.SQLiteListHistory)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			e         domain.HistoryEntry
			typ       string
			sources   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &typ, &e.Asset, &e.Prompt, &e.Text, &sources, &createdAt); err != nil {
			return nil, err
		}
		e.Type = domain.ResultType(typ)
		if sources.Valid {
			if e.Sources, err = decodeSources([]byte(sources.String)); err != nil {
				return nil, fmt.Errorf("history entry %s: %w", e.ID, err)
			}
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("history entry %s: parse created_at: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, result domain.GenerationResult) (domain.HistoryEntry, error) {
	raw, err := encodeSources(result.Sources)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	var sources sql.NullString
	if raw != nil {
		sources = sql.NullString{String: string(raw), Valid: true}
	}
	entry := domain.HistoryEntry{
		ID:               uuid.NewString(),
		GenerationResult: result,
		CreatedAt:        s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, sqlinline.SQLiteInsertHistory,
		entry.ID,
		string(result.Type),
		result.Asset,
		result.Prompt,
		result.Text,
		sources,
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	return entry, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, sqlinline.SQLiteDeleteHistory, id)
	return err
}

func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqlinline.SQLiteDeleteAllHistory)
	return err
}

func (s *SQLiteStore) Token(ctx context.Context, provider string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx, sqlinline.SQLiteSelectIntegrationToken, provider).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *SQLiteStore) UpsertToken(ctx context.Context, provider, token string) error {
	now := s.now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, sqlinline.SQLiteUpsertIntegrationToken, provider, token, now, now)
	return err
}

var (
	_ domain.HistoryStore    = (*SQLiteStore)(nil)
	_ domain.BulkDeleter     = (*SQLiteStore)(nil)
	_ domain.TokenRepository = (*SQLiteStore)(nil)
)
