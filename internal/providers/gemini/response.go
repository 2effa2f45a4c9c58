package gemini

import (
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"genstudio/internal/domain"
	"genstudio/internal/media"
	"genstudio/internal/providers/video"
)

func inlinePart(m domain.Media) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{MIMEType: m.MIMEType, Data: m.Data}}
}

func firstInlineBlob(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData
			}
		}
	}
	return nil
}

// responseText joins the text parts of the first candidate, skipping thoughts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

func requireText(resp *genai.GenerateContentResponse) (string, error) {
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: no text returned", domain.ErrEmptyResult)
	}
	return text, nil
}

// extractSources reads web citations from the grounding metadata. Chunks
// without a URI are dropped; duplicates are removed by NormalizeSources.
func extractSources(resp *genai.GenerateContentResponse) []domain.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	sources := make([]domain.Source, 0, len(meta.GroundingChunks))
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || strings.TrimSpace(chunk.Web.URI) == "" {
			continue
		}
		sources = append(sources, domain.Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return domain.NormalizeSources(sources)
}

// encodeAudio wraps raw PCM in a WAV container before encoding.
func encodeAudio(mimeType string, data []byte) string {
	if mimeType == "" || media.IsRawPCM(mimeType) {
		rate, channels := media.PCMParams(mimeType)
		return media.Encode("audio/wav", media.WrapPCM(data, rate, channels))
	}
	return media.Encode(mimeType, data)
}

func toOperation(op *genai.GenerateVideosOperation) *video.Operation {
	if op == nil {
		return nil
	}
	out := &video.Operation{Name: op.Name, Done: op.Done, Handle: op}
	if len(op.Error) > 0 {
		out.Failure = describeOperationError(op.Error)
	}
	if op.Response != nil {
		for _, gv := range op.Response.GeneratedVideos {
			if gv != nil && gv.Video != nil && gv.Video.URI != "" {
				out.VideoURI = gv.Video.URI
				break
			}
		}
	}
	return out
}

func describeOperationError(fields map[string]any) string {
	if msg, ok := fields["message"].(string); ok && msg != "" {
		return msg
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
