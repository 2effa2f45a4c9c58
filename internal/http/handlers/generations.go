package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"genstudio/internal/domain"
	"genstudio/internal/middleware"
)

type mediaPayload struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationReq struct {
	Mode        string        `json:"mode"`
	Prompt      string        `json:"prompt"`
	Media       *mediaPayload `json:"media"`
	AspectRatio string        `json:"aspect_ratio"`
}

func (p generationReq) toDomain() (domain.GenerationRequest, error) {
	mode, err := domain.ParseMode(p.Mode)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	req := domain.GenerationRequest{Mode: mode, Prompt: p.Prompt}
	if mode == domain.ModeVideoGen {
		if req.AspectRatio, err = domain.ParseAspectRatio(p.AspectRatio); err != nil {
			return domain.GenerationRequest{}, err
		}
	}
	if p.Media != nil && p.Media.Data != "" {
		data, err := base64.StdEncoding.DecodeString(stripDataURIPrefix(p.Media.Data))
		if err != nil {
			return domain.GenerationRequest{}, &domain.ValidationError{Mode: mode, Message: "media data must be base64"}
		}
		req.Media = &domain.Media{MIMEType: strings.TrimSpace(p.Media.MIMEType), Data: data}
	}
	return req, nil
}

// stripDataURIPrefix accepts both bare base64 and a full data URI.
func stripDataURIPrefix(s string) string {
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ","); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}

// CreateGeneration runs one generation and returns the recorded history entry.
func (a *App) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	var body generationReq
	if err := a.decode(w, r, &body); err != nil {
		a.fail(w, r, err)
		return
	}
	req, err := body.toDomain()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	entry, err := a.Generator.Generate(r.Context(), middleware.ClientKey(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, entry)
}

func (a *App) UpscaleEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := a.Generator.Upscale(r.Context(), middleware.ClientKey(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, entry)
}
