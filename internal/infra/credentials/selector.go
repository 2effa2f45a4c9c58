package credentials

import "context"

// Selector is the credential-selection collaborator consulted before video
// generation.
type Selector interface {
	HasSelectedCredential(ctx context.Context) (bool, error)
	// OpenCredentialSelection starts the selection flow and reports whether
	// the user completed it.
	OpenCredentialSelection(ctx context.Context) (bool, error)
}

// StaticSelector is used outside managed environments, where a credential
// is always considered present.
type StaticSelector struct{}

func (StaticSelector) HasSelectedCredential(context.Context) (bool, error)   { return true, nil }
func (StaticSelector) OpenCredentialSelection(context.Context) (bool, error) { return true, nil }

// StoreSelector treats a stored key the provider has not rejected as a
// completed selection. Selection
// itself happens out of band (PUT /v1/credentials or cmd/geminikey), so
// opening the flow cannot complete synchronously.
type StoreSelector struct {
	Store *Store
}

func (s StoreSelector) HasSelectedCredential(ctx context.Context) (bool, error) {
	key, err := s.Store.APIKey(ctx)
	if err != nil {
		return false, err
	}
	return key != "" && !s.Store.isRejected(key), nil
}

func (s StoreSelector) OpenCredentialSelection(ctx context.Context) (bool, error) {
	return s.HasSelectedCredential(ctx)
}
