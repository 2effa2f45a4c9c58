// Package gemini implements the provider gateway over the Gemini API: one
// call per generation mode plus the long-running video protocol.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/media"
	"genstudio/internal/providers/video"
)

const (
	defaultImageModel = "gemini-2.5-flash-image-preview"
	defaultTextModel  = "gemini-2.5-flash"
	defaultTTSModel   = "gemini-2.5-flash-preview-tts"
	defaultVideoModel = "veo-3.0-fast-generate-001"
	defaultVoice      = "Kore"

	DefaultAnalyzeQuestion = "Describe this image in detail."

	transcribeInstruction = "Transcribe this audio accurately. Return only the transcript."
	summarizeInstruction  = "Summarize the content of this page in a few concise paragraphs."
	upscaleInstruction    = "Upscale this image: increase its resolution and sharpen fine detail without changing the composition, colors or content."
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	ImageModel string
	TextModel  string
	TTSModel   string
	VideoModel string
	Voice      string
	// Timeout bounds every request/response call. Video polling is bounded
	// by the poller instead.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     infra.Logger
}

// Client is the gateway for a single API key. It is cheap to build and is
// constructed per request with the key resolved for that request.
type Client struct {
	genai      *genai.Client
	apiKey     string
	imageModel string
	textModel  string
	ttsModel   string
	videoModel string
	voice      string
	timeout    time.Duration
	httpClient *http.Client
	logger     infra.Logger
}

// NewClient constructs a Gemini client with defaults for every unset option.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, domain.ErrCredentialRequired
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: configure gemini client: %w", domain.ErrRemoteProvider, err)
	}

	return &Client{
		genai:      gc,
		apiKey:     apiKey,
		imageModel: firstNonEmpty(opts.ImageModel, defaultImageModel),
		textModel:  firstNonEmpty(opts.TextModel, defaultTextModel),
		ttsModel:   firstNonEmpty(opts.TTSModel, defaultTTSModel),
		videoModel: firstNonEmpty(opts.VideoModel, defaultVideoModel),
		voice:      firstNonEmpty(opts.Voice, defaultVoice),
		timeout:    opts.Timeout,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// EditImage applies instruction to img and returns the edited image as a
// data URI.
func (c *Client) EditImage(ctx context.Context, img domain.Media, instruction string) (string, error) {
	parts := []*genai.Part{inlinePart(img), {Text: instruction}}
	return c.generateImage(ctx, "edit_image", parts)
}

// GenerateImage creates a new image from prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return c.generateImage(ctx, "generate_image", []*genai.Part{{Text: prompt}})
}

// Upscale returns an enhanced version of img using a fixed instruction.
func (c *Client) Upscale(ctx context.Context, img domain.Media) (string, error) {
	parts := []*genai.Part{inlinePart(img), {Text: upscaleInstruction}}
	return c.generateImage(ctx, "upscale", parts)
}

// AnalyzeImage answers question about img. An empty question asks for a
// detailed description.
func (c *Client) AnalyzeImage(ctx context.Context, img domain.Media, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		question = DefaultAnalyzeQuestion
	}
	resp, err := c.generate(ctx, "analyze_image", c.textModel, []*genai.Part{inlinePart(img), {Text: question}}, nil)
	if err != nil {
		return "", err
	}
	return requireText(resp)
}

// Transcribe returns the transcript of audio. The fixed transcription
// instruction is always sent; user text is not.
func (c *Client) Transcribe(ctx context.Context, audio domain.Media) (string, error) {
	resp, err := c.generate(ctx, "transcribe", c.textModel, []*genai.Part{inlinePart(audio), {Text: transcribeInstruction}}, nil)
	if err != nil {
		return "", err
	}
	return requireText(resp)
}

// Synthesize speaks text with the configured voice and returns a WAV data URI.
func (c *Client) Synthesize(ctx context.Context, text string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.voice},
			},
		},
	}
	resp, err := c.generate(ctx, "synthesize", c.ttsModel, []*genai.Part{{Text: text}}, cfg)
	if err != nil {
		return "", err
	}
	blob := firstInlineBlob(resp)
	if blob == nil {
		return "", fmt.Errorf("%w: no audio returned", domain.ErrEmptyResult)
	}
	return encodeAudio(blob.MIMEType, blob.Data), nil
}

// Research answers query with Google Search grounding and returns the text
// together with the web citations in response order.
func (c *Client) Research(ctx context.Context, query string) (string, []domain.Source, error) {
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	resp, err := c.generate(ctx, "research", c.textModel, []*genai.Part{{Text: query}}, cfg)
	if err != nil {
		return "", nil, err
	}
	text, err := requireText(resp)
	if err != nil {
		return "", nil, err
	}
	return text, extractSources(resp), nil
}

// Summarize fetches url through the URL context tool and summarizes it,
// following instruction when one is given.
func (c *Client) Summarize(ctx context.Context, url, instruction string) (string, error) {
	if strings.TrimSpace(instruction) == "" {
		instruction = summarizeInstruction
	}
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{URLContext: &genai.URLContext{}}},
	}
	prompt := instruction + "\n\n" + strings.TrimSpace(url)
	resp, err := c.generate(ctx, "summarize", c.textModel, []*genai.Part{{Text: prompt}}, cfg)
	if err != nil {
		return "", err
	}
	return requireText(resp)
}

func (c *Client) generateImage(ctx context.Context, op string, parts []*genai.Part) (string, error) {
	cfg := &genai.GenerateContentConfig{ResponseModalities: []string{"IMAGE", "TEXT"}}
	resp, err := c.generate(ctx, op, c.imageModel, parts, cfg)
	if err != nil {
		return "", err
	}
	blob := firstInlineBlob(resp)
	if blob == nil {
		c.logger.Warn().Str("operation", op).Str("model", c.imageModel).Msg("gemini: response carried no inline image")
		return "", fmt.Errorf("%w: no image returned", domain.ErrEmptyResult)
	}
	return media.Encode(firstNonEmpty(blob.MIMEType, "image/png"), blob.Data), nil
}

func (c *Client) generate(parent context.Context, op, model string, parts []*genai.Part, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	ctx := parent
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, c.timeout)
		defer cancel()
	}
	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := c.genai.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		c.logger.Error().Err(err).Str("operation", op).Str("model", model).Msg("gemini: generate content failed")
		return nil, classifyError(parent, err)
	}
	c.logger.Debug().
		Str("operation", op).
		Str("model", model).
		Dur("elapsed", time.Since(start)).
		Msg("gemini: generate content")
	return resp, nil
}

// StartVideo issues a video generation and returns its operation handle.
func (c *Client) StartVideo(ctx context.Context, req video.Request) (*video.Operation, error) {
	var seed *genai.Image
	if req.Seed.Present() {
		seed = &genai.Image{ImageBytes: req.Seed.Data, MIMEType: req.Seed.MIMEType}
	}
	cfg := &genai.GenerateVideosConfig{
		AspectRatio:    string(req.AspectRatio),
		NumberOfVideos: 1,
	}
	op, err := c.genai.Models.GenerateVideos(ctx, c.videoModel, req.Prompt, seed, cfg)
	if err != nil {
		c.logger.Error().Err(err).Str("model", c.videoModel).Msg("gemini: start video failed")
		return nil, classifyError(ctx, err)
	}
	return toOperation(op), nil
}

// PollVideo refreshes op from the provider.
func (c *Client) PollVideo(ctx context.Context, op *video.Operation) (*video.Operation, error) {
	handle, ok := op.Handle.(*genai.GenerateVideosOperation)
	if !ok || handle == nil {
		handle = &genai.GenerateVideosOperation{Name: op.Name}
	}
	next, err := c.genai.Operations.GetVideosOperation(ctx, handle, nil)
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	return toOperation(next), nil
}

var _ video.Operations = (*Client)(nil)
