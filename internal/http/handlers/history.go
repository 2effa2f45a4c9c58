package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"genstudio/internal/domain"
	"genstudio/internal/generation"
	"genstudio/internal/media"
	"genstudio/internal/middleware"
	"genstudio/pkg/zip"
)

type historyRecordReq struct {
	Type    string          `json:"type"`
	Data    string          `json:"data"`
	Prompt  string          `json:"prompt"`
	Text    string          `json:"text"`
	Sources []domain.Source `json:"sources"`
}

// ListHistory serves the cached list, reloading from the store on
// ?reload=true. A failed reload still answers with the last snapshot.
func (a *App) ListHistory(w http.ResponseWriter, r *http.Request) {
	items := a.History.Entries()
	resp := map[string]any{}
	if r.URL.Query().Get("reload") == "true" {
		var err error
		items, err = a.History.List(r.Context())
		if err != nil {
			if !errors.Is(err, domain.ErrHistoryUnavailable) {
				a.fail(w, r, err)
				return
			}
			resp["warning"] = generation.Message(err, middleware.LocaleFromContext(r.Context()))
		}
	}
	if items == nil {
		items = []domain.HistoryEntry{}
	}
	resp["items"] = items
	a.json(w, http.StatusOK, resp)
}

func (a *App) CreateHistory(w http.ResponseWriter, r *http.Request) {
	var body historyRecordReq
	if err := a.decode(w, r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	if body.Data != "" && !media.IsDurable(body.Data) {
		a.fail(w, r, &domain.ValidationError{Message: "data must be a data URI"})
		return
	}
	result := domain.GenerationResult{
		Type:    domain.ResultType(strings.TrimSpace(body.Type)),
		Asset:   body.Data,
		Prompt:  body.Prompt,
		Text:    body.Text,
		Sources: body.Sources,
	}
	if result.Type == domain.ResultResearch {
		result.Sources = domain.NormalizeSources(result.Sources)
	}
	if err := result.Validate(); err != nil {
		a.fail(w, r, &domain.ValidationError{Message: err.Error()})
		return
	}
	entry, err := a.History.Create(r.Context(), result)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, entry)
}

func (a *App) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := a.History.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (a *App) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := a.History.Clear(r.Context()); err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"cleared": true})
}

// DownloadAsset streams the decoded bytes of an entry's durable asset.
func (a *App) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry, err := a.History.Get(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if entry.Asset == "" {
		a.fail(w, r, fmt.Errorf("entry %s has no asset: %w", id, domain.ErrNotFound))
		return
	}
	mimeType, data, err := media.Decode(entry.Asset)
	if err != nil {
		a.fail(w, r, fmt.Errorf("%w: %w", domain.ErrStore, err))
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.%s", id, media.Extension(mimeType)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ExportHistory bundles every cached entry into one zip: media entries as
// their decoded asset, text entries as a .txt file.
func (a *App) ExportHistory(w http.ResponseWriter, r *http.Request) {
	entries := a.History.Entries()
	assets := make([]zip.Asset, 0, len(entries))
	for _, e := range entries {
		if e.Asset != "" {
			mimeType, data, err := media.Decode(e.Asset)
			if err != nil {
				a.Logger.Warn().Err(err).Str("entry_id", e.ID).Msg("export: skipping undecodable asset")
				continue
			}
			assets = append(assets, zip.Asset{
				Filename: fmt.Sprintf("%s-%s.%s", e.Type, e.ID, media.Extension(mimeType)),
				MIME:     mimeType,
				Data:     data,
				Modified: e.CreatedAt,
			})
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("%s-%s.txt", e.Type, e.ID),
			MIME:     "text/plain",
			Data:     []byte(textDocument(e)),
			Modified: e.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=history.zip")
	w.WriteHeader(http.StatusOK)
	if err := zip.WriteArchive(w, assets); err != nil {
		a.Logger.Error().Err(err).Msg("export: archive write failed")
	}
}

func textDocument(e domain.HistoryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n", e.Prompt, e.Text)
	if len(e.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for _, s := range e.Sources {
			fmt.Fprintf(&b, "- %s <%s>\n", s.Title, s.URI)
		}
	}
	return b.String()
}
