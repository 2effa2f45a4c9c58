package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/infra/credentials"
	"genstudio/internal/media"
	"genstudio/internal/middleware"
)

type stubGenerator struct {
	gotSubmitter string
	gotReq       domain.GenerationRequest
	entry        domain.HistoryEntry
	err          error
	marked       bool
}

func (s *stubGenerator) Generate(_ context.Context, submitter string, req domain.GenerationRequest) (domain.HistoryEntry, error) {
	s.gotSubmitter = submitter
	s.gotReq = req
	return s.entry, s.err
}

func (s *stubGenerator) Upscale(context.Context, string, string) (domain.HistoryEntry, error) {
	return s.entry, s.err
}

func (s *stubGenerator) MarkCredentialSelected() { s.marked = true }

type stubHistory struct {
	entries []domain.HistoryEntry
	listErr error
	created []domain.GenerationResult
}

func (s *stubHistory) Entries() []domain.HistoryEntry { return s.entries }

func (s *stubHistory) Get(id string) (domain.HistoryEntry, error) {
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.HistoryEntry{}, domain.ErrNotFound
}

func (s *stubHistory) List(context.Context) ([]domain.HistoryEntry, error) {
	return s.entries, s.listErr
}

func (s *stubHistory) Create(_ context.Context, r domain.GenerationResult) (domain.HistoryEntry, error) {
	s.created = append(s.created, r)
	return domain.HistoryEntry{ID: "new", GenerationResult: r}, nil
}

func (s *stubHistory) Delete(context.Context, string) error { return nil }
func (s *stubHistory) Clear(context.Context) error          { return nil }

type stubKeys struct{ key string }

func (s *stubKeys) SetAPIKey(_ context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return credentials.ErrEmptyKey
	}
	s.key = key
	return nil
}

func newTestRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.I18N("en", nil))
	r.Post("/v1/generations", app.CreateGeneration)
	r.Get("/v1/history", app.ListHistory)
	r.Post("/v1/history", app.CreateHistory)
	r.Get("/v1/history/export", app.ExportHistory)
	r.Get("/v1/history/{id}/asset", app.DownloadAsset)
	r.Put("/v1/credentials", app.PutCredentials)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code, body.Error.Message
}

func TestCreateGenerationDecodesMedia(t *testing.T) {
	gen := &stubGenerator{entry: domain.HistoryEntry{ID: "e1", GenerationResult: domain.GenerationResult{Type: domain.ResultImage, Asset: "data:image/png;base64,AAAA", Prompt: "add sepia tone"}}}
	app := NewApp(gen, &stubHistory{}, &stubKeys{}, 0, infra.DiscardLogger())

	body := `{"mode":"image-edit","prompt":"add sepia tone","media":{"mime_type":"image/png","data":"aGVsbG8="}}`
	rec := doJSON(t, newTestRouter(app), http.MethodPost, "/v1/generations", body, map[string]string{"X-Client-ID": "tab-1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if gen.gotReq.Mode != domain.ModeImageEdit || string(gen.gotReq.Media.Data) != "hello" {
		t.Fatalf("request = %+v", gen.gotReq)
	}
	if gen.gotSubmitter != "client:tab-1" {
		t.Fatalf("submitter = %q", gen.gotSubmitter)
	}
}

func TestCreateGenerationRejectsUnknownMode(t *testing.T) {
	gen := &stubGenerator{}
	app := NewApp(gen, &stubHistory{}, &stubKeys{}, 0, infra.DiscardLogger())

	rec := doJSON(t, newTestRouter(app), http.MethodPost, "/v1/generations", `{"mode":"paint"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if code, _ := decodeError(t, rec); code != "validation_failed" {
		t.Fatalf("code = %q", code)
	}
	if gen.gotReq.Mode != "" {
		t.Fatal("generator should not be called")
	}
}

func TestCreateGenerationMapsErrorsToStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrCredentialRequired, http.StatusPreconditionRequired, "credential_required"},
		{domain.ErrAPIKeyExpired, http.StatusUnauthorized, "api_key_expired"},
		{domain.ErrGenerationInFlight, http.StatusConflict, "generation_in_flight"},
		{domain.ErrRemoteProvider, http.StatusBadGateway, "provider_error"},
		{domain.ErrEmptyResult, http.StatusBadGateway, "empty_result"},
		{domain.ErrStore, http.StatusInternalServerError, "store_error"},
	}
	for _, tc := range tests {
		app := NewApp(&stubGenerator{err: tc.err}, &stubHistory{}, &stubKeys{}, 0, infra.DiscardLogger())
		rec := doJSON(t, newTestRouter(app), http.MethodPost, "/v1/generations", `{"mode":"research","prompt":"AI trends"}`, nil)
		if rec.Code != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
		}
		if code, _ := decodeError(t, rec); code != tc.code {
			t.Fatalf("%v: code = %q, want %q", tc.err, code, tc.code)
		}
	}
}

func TestErrorMessageIsLocalized(t *testing.T) {
	app := NewApp(&stubGenerator{err: domain.ErrGenerationInFlight}, &stubHistory{}, &stubKeys{}, 0, infra.DiscardLogger())
	rec := doJSON(t, newTestRouter(app), http.MethodPost, "/v1/generations", `{"mode":"speech","prompt":"halo"}`, map[string]string{"X-Locale": "id"})
	_, msg := decodeError(t, rec)
	if !strings.Contains(msg, "Tunggu") {
		t.Fatalf("message = %q, want Indonesian", msg)
	}
}

func TestListHistoryServesSnapshotWithWarning(t *testing.T) {
	hist := &stubHistory{
		entries: []domain.HistoryEntry{{ID: "a", GenerationResult: domain.GenerationResult{Type: domain.ResultSummary, Text: "t"}}},
		listErr: errors.Join(domain.ErrHistoryUnavailable, errors.New("db down")),
	}
	app := NewApp(&stubGenerator{}, hist, &stubKeys{}, 0, infra.DiscardLogger())

	rec := doJSON(t, newTestRouter(app), http.MethodGet, "/v1/history?reload=true", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Items   []domain.HistoryEntry `json:"items"`
		Warning string                `json:"warning"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 1 || body.Warning == "" {
		t.Fatalf("body = %+v", body)
	}
}

func TestCreateHistoryRejectsNonDurableData(t *testing.T) {
	hist := &stubHistory{}
	app := NewApp(&stubGenerator{}, hist, &stubKeys{}, 0, infra.DiscardLogger())

	rec := doJSON(t, newTestRouter(app), http.MethodPost, "/v1/history", `{"type":"video","data":"blob:abc","prompt":"waves"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(hist.created) != 0 {
		t.Fatal("nothing should be stored")
	}

	rec = doJSON(t, newTestRouter(app), http.MethodPost, "/v1/history", `{"type":"video","data":"data:video/mp4;base64,AAAA","prompt":"waves"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDownloadAssetAndExport(t *testing.T) {
	hist := &stubHistory{entries: []domain.HistoryEntry{
		{ID: "img", GenerationResult: domain.GenerationResult{Type: domain.ResultImage, Asset: media.Encode("image/png", []byte("png")), Prompt: "cat"}},
		{ID: "txt", GenerationResult: domain.GenerationResult{Type: domain.ResultResearch, Text: "answer", Prompt: "q", Sources: []domain.Source{{Title: "A", URI: "https://a"}}}},
	}}
	app := NewApp(&stubGenerator{}, hist, &stubKeys{}, 0, infra.DiscardLogger())
	h := newTestRouter(app)

	rec := doJSON(t, h, http.MethodGet, "/v1/history/img/asset", "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" || rec.Body.String() != "png" {
		t.Fatalf("asset: status=%d type=%q body=%q", rec.Code, rec.Header().Get("Content-Type"), rec.Body.String())
	}
	if rec := doJSON(t, h, http.MethodGet, "/v1/history/txt/asset", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("text entry asset status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/history/export", "", nil)
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if len(zr.File) != 2 || zr.File[0].Name != "image-img.png" || zr.File[1].Name != "research-txt.txt" {
		names := []string{}
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		t.Fatalf("files = %v", names)
	}
}

func TestPutCredentials(t *testing.T) {
	gen := &stubGenerator{}
	keys := &stubKeys{}
	app := NewApp(gen, &stubHistory{}, keys, 0, infra.DiscardLogger())
	h := newTestRouter(app)

	if rec := doJSON(t, h, http.MethodPut, "/v1/credentials", `{"api_key":" "}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty key status = %d", rec.Code)
	}
	if gen.marked {
		t.Fatal("credential marked after rejected key")
	}
	if rec := doJSON(t, h, http.MethodPut, "/v1/credentials", `{"api_key":"k-1"}`, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if keys.key != "k-1" || !gen.marked {
		t.Fatalf("key=%q marked=%v", keys.key, gen.marked)
	}
}
