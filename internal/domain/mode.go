package domain

import (
	"fmt"
	"strings"
)

// Mode enumerates the generation kinds a user can submit.
type Mode string

const (
	ModeImageEdit     Mode = "image-edit"
	ModeGenerateImage Mode = "generate-image"
	ModeVideoGen      Mode = "video-gen"
	ModeAnalyze       Mode = "analyze"
	ModeResearch      Mode = "research"
	ModeSummarize     Mode = "summarize"
	ModeSpeech        Mode = "speech"
	ModeTranscribe    Mode = "transcribe"
)

// Modes returns every supported mode in presentation order.
func Modes() []Mode {
	return []Mode{
		ModeImageEdit,
		ModeGenerateImage,
		ModeVideoGen,
		ModeAnalyze,
		ModeResearch,
		ModeSummarize,
		ModeSpeech,
		ModeTranscribe,
	}
}

// ParseMode normalizes free-form input into a supported mode.
func ParseMode(raw string) (Mode, error) {
	candidate := Mode(strings.ToLower(strings.TrimSpace(raw)))
	for _, m := range Modes() {
		if m == candidate {
			return m, nil
		}
	}
	return "", &ValidationError{Message: fmt.Sprintf("unsupported mode %q", raw)}
}

// AspectRatio enumerates the frame shapes accepted by video generation.
type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
)

// ParseAspectRatio defaults to landscape when raw is empty.
func ParseAspectRatio(raw string) (AspectRatio, error) {
	switch AspectRatio(strings.TrimSpace(raw)) {
	case "", AspectLandscape:
		return AspectLandscape, nil
	case AspectPortrait:
		return AspectPortrait, nil
	default:
		return "", &ValidationError{Mode: ModeVideoGen, Message: fmt.Sprintf("unsupported aspect ratio %q", raw)}
	}
}

// Media is an inline binary payload such as an uploaded image or a recorded clip.
type Media struct {
	MIMEType string
	Data     []byte
}

// Present reports whether the payload carries any bytes.
func (m *Media) Present() bool {
	return m != nil && len(m.Data) > 0
}

// GenerationRequest is created per user action and lives only for the
// duration of one generation.
type GenerationRequest struct {
	Mode        Mode
	Prompt      string
	Media       *Media
	AspectRatio AspectRatio
}

// Validate enforces the per-mode preconditions. It never touches the network.
func (r GenerationRequest) Validate() error {
	hasPrompt := strings.TrimSpace(r.Prompt) != ""
	switch r.Mode {
	case ModeImageEdit:
		if !r.Media.Present() {
			return &ValidationError{Mode: r.Mode, Message: "upload an image to edit"}
		}
	case ModeGenerateImage:
		if !hasPrompt {
			return &ValidationError{Mode: r.Mode, Message: "describe the image to generate"}
		}
	case ModeVideoGen:
		if !hasPrompt {
			return &ValidationError{Mode: r.Mode, Message: "describe the video to generate"}
		}
		if r.AspectRatio != "" && r.AspectRatio != AspectLandscape && r.AspectRatio != AspectPortrait {
			return &ValidationError{Mode: r.Mode, Message: fmt.Sprintf("unsupported aspect ratio %q", r.AspectRatio)}
		}
	case ModeAnalyze:
		if !r.Media.Present() {
			return &ValidationError{Mode: r.Mode, Message: "upload an image to analyze"}
		}
	case ModeResearch:
		if !hasPrompt {
			return &ValidationError{Mode: r.Mode, Message: "enter a research question"}
		}
	case ModeSummarize:
		if !hasPrompt {
			return &ValidationError{Mode: r.Mode, Message: "enter a URL to summarize"}
		}
	case ModeSpeech:
		if !hasPrompt {
			return &ValidationError{Mode: r.Mode, Message: "enter text to speak"}
		}
	case ModeTranscribe:
		if !r.Media.Present() {
			return &ValidationError{Mode: r.Mode, Message: "record audio to transcribe"}
		}
	default:
		return &ValidationError{Mode: r.Mode, Message: fmt.Sprintf("unsupported mode %q", r.Mode)}
	}
	return nil
}
