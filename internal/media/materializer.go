package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"genstudio/internal/domain"
)

// ErrAssetTooLarge is returned when a transient stream exceeds the size limit.
var ErrAssetTooLarge = errors.New("media: asset exceeds size limit")

// Reference is either a Durable encoding or a *Transient handle.
type Reference interface {
	reference()
}

// Durable is an asset already in data URI form.
type Durable string

func (Durable) reference() {}

// Materializer turns references into durable encodings suitable for storage.
type Materializer struct {
	maxBytes int64
}

// NewMaterializer caps transient reads at maxBytes; zero or less means 64 MiB.
func NewMaterializer(maxBytes int64) *Materializer {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	return &Materializer{maxBytes: maxBytes}
}

// Materialize returns the durable encoding of ref. Durable input is returned
// unchanged so repeated materialization is a no-op. A transient reference is
// read fully, closed and re-encoded; the handle itself is never returned.
func (m *Materializer) Materialize(ctx context.Context, ref Reference) (string, error) {
	switch r := ref.(type) {
	case Durable:
		if !IsDurable(string(r)) {
			return "", ErrNotDurable
		}
		return string(r), nil
	case *Transient:
		return m.consume(ctx, r)
	case nil:
		return "", fmt.Errorf("%w: nil media reference", domain.ErrEmptyResult)
	default:
		return "", fmt.Errorf("media: unsupported reference %T", ref)
	}
}

func (m *Materializer) consume(ctx context.Context, t *Transient) (string, error) {
	body, err := t.take()
	if err != nil {
		return "", err
	}
	defer body.Close()
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(body, m.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read transient media: %w", domain.ErrDownloadFailed, err)
	}
	if int64(len(data)) > m.maxBytes {
		return "", fmt.Errorf("%w: %w", domain.ErrDownloadFailed, ErrAssetTooLarge)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: transient media is empty", domain.ErrEmptyResult)
	}
	return Encode(t.MIMEType(), data), nil
}
