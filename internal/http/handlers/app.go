package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"genstudio/internal/domain"
	"genstudio/internal/generation"
	"genstudio/internal/infra"
	"genstudio/internal/middleware"
)

// Generator runs generations on behalf of one submitter.
type Generator interface {
	Generate(ctx context.Context, submitter string, req domain.GenerationRequest) (domain.HistoryEntry, error)
	Upscale(ctx context.Context, submitter, id string) (domain.HistoryEntry, error)
	MarkCredentialSelected()
}

// HistoryManager is the synchronized history list.
type HistoryManager interface {
	Entries() []domain.HistoryEntry
	Get(id string) (domain.HistoryEntry, error)
	List(ctx context.Context) ([]domain.HistoryEntry, error)
	Create(ctx context.Context, result domain.GenerationResult) (domain.HistoryEntry, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type KeyWriter interface {
	SetAPIKey(ctx context.Context, key string) error
}

type App struct {
	Generator      Generator
	History        HistoryManager
	Keys           KeyWriter
	MaxUploadBytes int64
	Logger         infra.Logger
}

func NewApp(gen Generator, hist HistoryManager, keys KeyWriter, maxUploadBytes int64, logger infra.Logger) *App {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 64 << 20
	}
	return &App{Generator: gen, History: hist, Keys: keys, MaxUploadBytes: maxUploadBytes, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// fail writes err as a localized error body with the status its kind maps to.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("request failed")
	}
	a.error(w, status, generation.Code(err), generation.Message(err, middleware.LocaleFromContext(r.Context())))
}

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCredentialRequired):
		return http.StatusPreconditionRequired
	case errors.Is(err, domain.ErrAPIKeyExpired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrGenerationInFlight):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRemoteProvider),
		errors.Is(err, domain.ErrEmptyResult),
		errors.Is(err, domain.ErrDownloadFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		// client went away; nginx convention
		return 499
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &domain.ValidationError{Message: "request body too large"}
		}
		return &domain.ValidationError{Message: "invalid JSON body"}
	}
	return nil
}
