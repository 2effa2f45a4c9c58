package repo

import (
	"context"
	"strings"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/sqlinline"
)

// TokenRepositoryPG stores provider API keys in integration_tokens.
type TokenRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewTokenRepository(sql infra.SQLExecutor) *TokenRepositoryPG {
	return &TokenRepositoryPG{sql: sql}
}

// Token returns the stored token for provider, or "" when none is stored.
func (r *TokenRepositoryPG) Token(ctx context.Context, provider string) (string, error) {
	var token string
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider).Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (r *TokenRepositoryPG) UpsertToken(ctx context.Context, provider, token string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, []byte(`{}`))
	return err
}

var _ domain.TokenRepository = (*TokenRepositoryPG)(nil)
