package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	dataScheme   = "data:"
	base64Marker = ";base64,"
)

// ErrNotDurable is returned when a string is not a base64 data URI.
var ErrNotDurable = errors.New("media: not a durable data uri")

// Encode builds the durable form of a binary payload: a MIME-tagged base64
// data URI that can be replayed without the provider.
func Encode(mimeType string, data []byte) string {
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	var b strings.Builder
	b.Grow(len(dataScheme) + len(mimeType) + len(base64Marker) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString(dataScheme)
	b.WriteString(mimeType)
	b.WriteString(base64Marker)
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// IsDurable reports whether s is already in durable form.
func IsDurable(s string) bool {
	if !strings.HasPrefix(s, dataScheme) {
		return false
	}
	idx := strings.Index(s, base64Marker)
	return idx > len(dataScheme)
}

// Decode splits a durable data URI into its MIME type and payload.
func Decode(s string) (string, []byte, error) {
	if !IsDurable(s) {
		return "", nil, ErrNotDurable
	}
	idx := strings.Index(s, base64Marker)
	mimeType := s[len(dataScheme):idx]
	data, err := base64.StdEncoding.DecodeString(s[idx+len(base64Marker):])
	if err != nil {
		return "", nil, fmt.Errorf("media: decode payload: %w", err)
	}
	return mimeType, data, nil
}

// Extension returns a file extension for common generated MIME types.
func Extension(mimeType string) string {
	base := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch base {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "video/mp4":
		return "mp4"
	case "video/webm", "audio/webm":
		return "webm"
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "audio/mpeg":
		return "mp3"
	case "text/plain":
		return "txt"
	default:
		return "bin"
	}
}
