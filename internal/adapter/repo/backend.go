package repo

import (
	"context"
	"fmt"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
)

// Backend bundles the durable stores selected by HISTORY_DRIVER.
type Backend struct {
	History domain.HistoryStore
	Tokens  domain.TokenRepository
	close   func()
}

func (b *Backend) Close() {
	if b != nil && b.close != nil {
		b.close()
	}
}

// OpenBackend connects the configured driver and ensures its schema exists.
func OpenBackend(ctx context.Context, cfg *infra.Config, logger infra.Logger) (*Backend, error) {
	switch cfg.HistoryDriver {
	case infra.HistoryDriverPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		runner := infra.NewSQLRunner(pool, logger)
		history := NewHistoryRepository(runner)
		if err := history.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &Backend{History: history, Tokens: NewTokenRepository(runner), close: pool.Close}, nil
	case infra.HistoryDriverSQLite:
		store, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Backend{History: store, Tokens: store, close: func() { _ = store.Close() }}, nil
	default:
		return nil, fmt.Errorf("unsupported history driver %q", cfg.HistoryDriver)
	}
}
