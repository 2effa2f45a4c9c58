package handlers

import (
	"errors"
	"net/http"

	"genstudio/internal/domain"
	"genstudio/internal/infra/credentials"
)

type credentialsReq struct {
	APIKey string `json:"api_key"`
}

// PutCredentials stores the provider key and marks the credential selected.
func (a *App) PutCredentials(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := a.decode(w, r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.Keys.SetAPIKey(r.Context(), body.APIKey); err != nil {
		if errors.Is(err, credentials.ErrEmptyKey) {
			err = &domain.ValidationError{Message: "api_key is required"}
		}
		a.fail(w, r, err)
		return
	}
	a.Generator.MarkCredentialSelected()
	w.WriteHeader(http.StatusNoContent)
}
