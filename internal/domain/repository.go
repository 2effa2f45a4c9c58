package domain

import "context"

// HistoryStore is the durable keyed record table behind the history list.
type HistoryStore interface {
	// List returns every entry, newest first.
	List(ctx context.Context) ([]HistoryEntry, error)
	// Create persists result and returns it with its assigned identifier.
	Create(ctx context.Context, result GenerationResult) (HistoryEntry, error)
	// Delete removes the entry. A missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// BulkDeleter is implemented by stores that can clear every entry atomically.
type BulkDeleter interface {
	DeleteAll(ctx context.Context) error
}

// TokenRepository persists provider credentials keyed by provider name.
type TokenRepository interface {
	Token(ctx context.Context, provider string) (string, error)
	UpsertToken(ctx context.Context, provider, token string) error
}
