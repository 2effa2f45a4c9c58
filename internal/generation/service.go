// Package generation dispatches a validated request to the provider gateway,
// makes the outcome durable and records it in history.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/infra/lock"
	"genstudio/internal/media"
	"genstudio/internal/metrics"
	"genstudio/internal/providers/video"
)

const (
	DefaultAnalyzeQuestion = "Describe this image in detail."
	DefaultEditInstruction = "Enhance this image."
	TranscriptionLabel     = "Audio transcription"
	ImageEditLabel         = "Image edit"
	UpscaledLabelPrefix    = "Upscaled: "
)

// Gateway is the provider, bound to one API key.
type Gateway interface {
	EditImage(ctx context.Context, img domain.Media, instruction string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
	AnalyzeImage(ctx context.Context, img domain.Media, question string) (string, error)
	Synthesize(ctx context.Context, text string) (string, error)
	Transcribe(ctx context.Context, audio domain.Media) (string, error)
	Research(ctx context.Context, query string) (string, []domain.Source, error)
	Summarize(ctx context.Context, url, instruction string) (string, error)
	Upscale(ctx context.Context, img domain.Media) (string, error)
	video.Operations
}

// GatewayFactory builds a Gateway for the key resolved for one request.
type GatewayFactory func(ctx context.Context, apiKey string) (Gateway, error)

type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// KeyRejecter is implemented by key sources that can retire a key the
// provider refused.
type KeyRejecter interface {
	MarkRejected(key string)
}

type CredentialSelector interface {
	HasSelectedCredential(ctx context.Context) (bool, error)
	OpenCredentialSelection(ctx context.Context) (bool, error)
}

type VideoRunner interface {
	Run(ctx context.Context, ops video.Operations, req video.Request) (*media.Transient, error)
}

type Materializer interface {
	Materialize(ctx context.Context, ref media.Reference) (string, error)
}

type History interface {
	Create(ctx context.Context, result domain.GenerationResult) (domain.HistoryEntry, error)
	Get(id string) (domain.HistoryEntry, error)
}

// Deps wires a Service.
type Deps struct {
	Gateways     GatewayFactory
	Keys         KeySource
	Selector     CredentialSelector
	Poller       VideoRunner
	Materializer Materializer
	History      History
	Locker       lock.Locker
	LockTTL      time.Duration
	Logger       infra.Logger
}

// Service is the mode dispatcher.
type Service struct {
	deps Deps

	// credentialPresent caches the selection check for video generation. It
	// is cleared whenever the provider rejects the key.
	credentialPresent atomic.Bool
}

func NewService(deps Deps) *Service {
	if deps.Locker == nil {
		deps.Locker = lock.NewMemoryLocker()
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = 15 * time.Minute
	}
	if deps.Materializer == nil {
		deps.Materializer = media.NewMaterializer(0)
	}
	return &Service{deps: deps}
}

// CredentialPresent reports the cached credential flag.
func (s *Service) CredentialPresent() bool {
	return s.credentialPresent.Load()
}

// MarkCredentialSelected records a completed out-of-band selection.
func (s *Service) MarkCredentialSelected() {
	s.credentialPresent.Store(true)
}

// Generate runs one generation for submitter. Validation happens before any
// network activity, and nothing is persisted unless the result was fully
// materialized.
func (s *Service) Generate(ctx context.Context, submitter string, req domain.GenerationRequest) (domain.HistoryEntry, error) {
	log := s.deps.Logger.With().Str("mode", string(req.Mode)).Logger()
	if err := req.Validate(); err != nil {
		metrics.Generations.WithLabelValues(string(req.Mode), "invalid").Inc()
		return domain.HistoryEntry{}, err
	}
	if req.Mode == domain.ModeVideoGen {
		if err := s.ensureCredential(ctx); err != nil {
			s.record(req.Mode, err)
			return domain.HistoryEntry{}, err
		}
	}

	start := time.Now()
	entry, err := s.withGateway(ctx, submitter, func(gw Gateway) (domain.HistoryEntry, error) {
		result, err := s.dispatch(ctx, gw, req)
		if err != nil {
			return domain.HistoryEntry{}, err
		}
		return s.persist(ctx, result)
	})
	metrics.GenerationDuration.WithLabelValues(string(req.Mode)).Observe(time.Since(start).Seconds())
	s.record(req.Mode, err)
	if err != nil {
		s.logFailure(log, err)
		return domain.HistoryEntry{}, err
	}
	log.Info().Str("entry_id", entry.ID).Dur("elapsed", time.Since(start)).Msg("generation: completed")
	return entry, nil
}

// Upscale enhances the image stored under id and records it as a new entry.
func (s *Service) Upscale(ctx context.Context, submitter, id string) (domain.HistoryEntry, error) {
	source, err := s.deps.History.Get(id)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	if source.Type != domain.ResultImage {
		return domain.HistoryEntry{}, &domain.ValidationError{Message: "only images can be upscaled"}
	}
	mimeType, data, err := media.Decode(source.Asset)
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("%w: stored image is not decodable: %w", domain.ErrStore, err)
	}

	log := s.deps.Logger.With().Str("mode", "upscale").Str("source_id", id).Logger()
	entry, err := s.withGateway(ctx, submitter, func(gw Gateway) (domain.HistoryEntry, error) {
		asset, err := gw.Upscale(ctx, domain.Media{MIMEType: mimeType, Data: data})
		if err != nil {
			return domain.HistoryEntry{}, err
		}
		result, err := domain.NewImageResult(asset, UpscaledLabelPrefix+source.Prompt)
		if err != nil {
			return domain.HistoryEntry{}, err
		}
		return s.persist(ctx, result)
	})
	if err != nil {
		s.logFailure(log, err)
		return domain.HistoryEntry{}, err
	}
	return entry, nil
}

func (s *Service) ensureCredential(ctx context.Context) error {
	if s.credentialPresent.Load() {
		return nil
	}
	sel := s.deps.Selector
	if sel == nil {
		s.credentialPresent.Store(true)
		return nil
	}
	ok, err := sel.HasSelectedCredential(ctx)
	if err != nil {
		return fmt.Errorf("check credential selection: %w", err)
	}
	if !ok {
		ok, err = sel.OpenCredentialSelection(ctx)
		if err != nil {
			return fmt.Errorf("open credential selection: %w", err)
		}
	}
	if !ok {
		return domain.ErrCredentialRequired
	}
	s.credentialPresent.Store(true)
	return nil
}

// withGateway holds the submitter's in-flight lock, resolves the key for
// this request and builds the gateway bound to it.
func (s *Service) withGateway(ctx context.Context, submitter string, fn func(Gateway) (domain.HistoryEntry, error)) (domain.HistoryEntry, error) {
	release, err := s.deps.Locker.Acquire(ctx, submitter, s.deps.LockTTL)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	defer release()

	apiKey, err := s.deps.Keys.APIKey(ctx)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	if strings.TrimSpace(apiKey) == "" {
		return domain.HistoryEntry{}, domain.ErrCredentialRequired
	}
	gw, err := s.deps.Gateways(ctx, apiKey)
	if err != nil {
		return domain.HistoryEntry{}, err
	}

	entry, err := fn(gw)
	if errors.Is(err, domain.ErrAPIKeyExpired) {
		s.credentialPresent.Store(false)
		if r, ok := s.deps.Keys.(KeyRejecter); ok {
			r.MarkRejected(apiKey)
		}
	}
	return entry, err
}

func (s *Service) dispatch(ctx context.Context, gw Gateway, req domain.GenerationRequest) (domain.GenerationResult, error) {
	prompt := strings.TrimSpace(req.Prompt)

	switch req.Mode {
	case domain.ModeImageEdit:
		instruction, label := prompt, prompt
		if instruction == "" {
			instruction, label = DefaultEditInstruction, ImageEditLabel
		}
		asset, err := gw.EditImage(ctx, *req.Media, instruction)
		if err != nil {
			return domain.GenerationResult{}, err
		}
		return domain.NewImageResult(asset, label)

	case domain.ModeGenerateImage:
		asset, err := gw.GenerateImage(ctx, prompt)
		if err != nil {
			return domain.GenerationResult{}, err
		}
		return domain.NewImageResult(asset, prompt)

	case domain.ModeVideoGen:
		ref, err := s.deps.Poller.Run(ctx, gw, video.Request{
			Prompt:      prompt,
			AspectRatio: req.AspectRatio,
			Seed:        req.Media,
		})
		if err != nil {
			return domain.GenerationResult{}, err
		}
		asset, err := s.deps.Materializer.Materialize(ctx, ref)
		if err != nil {
			_ = ref.Release()
			return domain.GenerationResult{}, err
		}
		return domain.NewVideoResult(asset, prompt)

	case domain.ModeAnalyze:
		question := prompt
		if question == "" {
			question = DefaultAnalyzeQuestion
		}
		text, err := gw.AnalyzeImage(ctx, *req.Media, question)
		if err != nil {
			return domain.GenerationResult{}, err
		}
		return domain.NewAnalysisResult(text, question)

	case domain.ModeSpeech:
		asset, err := gw.Synthesize(ctx, prompt)
		if err != nil {
			return domain.GenerationResult{}, err
		}
		return domain.NewAudioResult(asset, prompt)

	case domain.ModeTranscribe:
		text, err := gw.Transcribe(ctx, *req.Media)
		if err != nil {
			return domain.GenerationResult{}, err
		}
		return domain.NewTranscriptionResult(text, TranscriptionLabel)

	case domain.ModeResearch:
		text, sources, err := gw.Research(ctx, prompt)
		if err != nil {
			return domain.GenerationResult{}, err
		}
		return domain.NewResearchResult(text, prompt, sources)

	case domain.ModeSummarize:
		url, instruction := SplitSummarizeInput(prompt)
		text, err := gw.Summarize(ctx, url, instruction)
		if err != nil {
			return domain.GenerationResult{}, err
		}
		return domain.NewSummaryResult(text, prompt)
	}
	return domain.GenerationResult{}, &domain.ValidationError{Mode: req.Mode, Message: fmt.Sprintf("unsupported mode %q", req.Mode)}
}

// persist stores result unless the request was abandoned first.
func (s *Service) persist(ctx context.Context, result domain.GenerationResult) (domain.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return domain.HistoryEntry{}, err
	}
	return s.deps.History.Create(ctx, result)
}

// SplitSummarizeInput separates the URL from an optional instruction, e.g.
// "https://example.com focus on pricing".
func SplitSummarizeInput(prompt string) (url, instruction string) {
	fields := strings.Fields(prompt)
	for i, f := range fields {
		lower := strings.ToLower(f)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			rest := append(append([]string(nil), fields[:i]...), fields[i+1:]...)
			return f, strings.Join(rest, " ")
		}
	}
	return strings.TrimSpace(prompt), ""
}

func (s *Service) record(mode domain.Mode, err error) {
	metrics.Generations.WithLabelValues(string(mode), Code(err)).Inc()
}

func (s *Service) logFailure(log infra.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyResult):
		log.Warn().Err(err).Msg("generation: provider returned no usable result")
	case errors.Is(err, domain.ErrGenerationInFlight), domain.IsValidation(err):
		log.Info().Err(err).Msg("generation: rejected")
	case errors.Is(err, context.Canceled):
		log.Info().Msg("generation: cancelled")
	default:
		log.Error().Err(err).Msg("generation: failed")
	}
}
