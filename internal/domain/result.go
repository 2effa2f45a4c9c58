package domain

import (
	"fmt"
	"strings"
	"time"
)

// ResultType tags the variant held by a GenerationResult.
type ResultType string

const (
	ResultImage         ResultType = "image"
	ResultVideo         ResultType = "video"
	ResultAnalysis      ResultType = "analysis"
	ResultAudio         ResultType = "audio"
	ResultTranscription ResultType = "transcription"
	ResultResearch      ResultType = "research"
	ResultSummary       ResultType = "summary"
)

// Valid reports whether t is a known variant.
func (t ResultType) Valid() bool {
	switch t {
	case ResultImage, ResultVideo, ResultAnalysis, ResultAudio, ResultTranscription, ResultResearch, ResultSummary:
		return true
	}
	return false
}

// carriesAsset reports whether the variant's primary payload is a durable asset
// rather than narrative text.
func (t ResultType) carriesAsset() bool {
	return t == ResultImage || t == ResultVideo || t == ResultAudio
}

// Source is a web citation attached to research output.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// GenerationResult is the normalized outcome of one generation. Build it with
// the New*Result constructors so per-variant fields are enforced.
type GenerationResult struct {
	Type    ResultType `json:"type"`
	Asset   string     `json:"data"`
	Prompt  string     `json:"prompt"`
	Text    string     `json:"text,omitempty"`
	Sources []Source   `json:"sources,omitempty"`
}

// HistoryEntry is a GenerationResult once the durable store assigned it an id.
type HistoryEntry struct {
	ID string `json:"id"`
	GenerationResult
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Validate checks the variant invariants: a known type, a durable asset for
// media variants, text for narrative variants, and sources only on research.
func (r GenerationResult) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("unknown result type %q", r.Type)
	}
	asset := strings.TrimSpace(r.Asset)
	text := strings.TrimSpace(r.Text)
	if asset == "" && text == "" {
		return fmt.Errorf("%w: %s result has neither asset nor text", ErrEmptyResult, r.Type)
	}
	if r.Type.carriesAsset() && asset == "" {
		return fmt.Errorf("%w: %s result requires an asset", ErrEmptyResult, r.Type)
	}
	if !r.Type.carriesAsset() && text == "" {
		return fmt.Errorf("%w: %s result requires text", ErrEmptyResult, r.Type)
	}
	if len(r.Sources) > 0 && r.Type != ResultResearch {
		return fmt.Errorf("%s result cannot carry sources", r.Type)
	}
	return nil
}

func newResult(r GenerationResult) (GenerationResult, error) {
	if err := r.Validate(); err != nil {
		return GenerationResult{}, err
	}
	return r, nil
}

func NewImageResult(asset, prompt string) (GenerationResult, error) {
	return newResult(GenerationResult{Type: ResultImage, Asset: asset, Prompt: prompt})
}

func NewVideoResult(asset, prompt string) (GenerationResult, error) {
	return newResult(GenerationResult{Type: ResultVideo, Asset: asset, Prompt: prompt})
}

func NewAudioResult(asset, prompt string) (GenerationResult, error) {
	return newResult(GenerationResult{Type: ResultAudio, Asset: asset, Prompt: prompt})
}

func NewAnalysisResult(text, prompt string) (GenerationResult, error) {
	return newResult(GenerationResult{Type: ResultAnalysis, Text: text, Prompt: prompt})
}

func NewTranscriptionResult(text, prompt string) (GenerationResult, error) {
	return newResult(GenerationResult{Type: ResultTranscription, Text: text, Prompt: prompt})
}

func NewSummaryResult(text, prompt string) (GenerationResult, error) {
	return newResult(GenerationResult{Type: ResultSummary, Text: text, Prompt: prompt})
}

// NewResearchResult normalizes sources with NormalizeSources before storing them.
func NewResearchResult(text, prompt string, sources []Source) (GenerationResult, error) {
	return newResult(GenerationResult{Type: ResultResearch, Text: text, Prompt: prompt, Sources: NormalizeSources(sources)})
}

// NormalizeSources keeps citation order, drops entries without a URI and
// drops repeated URIs. A missing title falls back to the URI.
func NormalizeSources(sources []Source) []Source {
	if len(sources) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(sources))
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		uri := strings.TrimSpace(s.URI)
		if uri == "" {
			continue
		}
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}
		title := strings.TrimSpace(s.Title)
		if title == "" {
			title = uri
		}
		out = append(out, Source{Title: title, URI: uri})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
