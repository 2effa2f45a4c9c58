package media

import (
	"errors"
	"io"
	"sync"
)

// ErrTransientConsumed is returned when a transient reference is read twice.
var ErrTransientConsumed = errors.New("media: transient reference already consumed")

// Transient is a short-lived capability over binary data that is only valid
// within the request that produced it, typically an open download stream.
// It must be materialized exactly once and is never persisted.
type Transient struct {
	mimeType string
	body     io.ReadCloser

	mu       sync.Mutex
	consumed bool
}

// NewTransient wraps body; ownership of body moves to the Transient.
func NewTransient(mimeType string, body io.ReadCloser) *Transient {
	return &Transient{mimeType: mimeType, body: body}
}

// MIMEType returns the advertised content type.
func (t *Transient) MIMEType() string {
	return t.mimeType
}

// take hands out the body once.
func (t *Transient) take() (io.ReadCloser, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.consumed || t.body == nil {
		return nil, ErrTransientConsumed
	}
	t.consumed = true
	return t.body, nil
}

// Release closes the underlying stream without reading it. Used when a
// generation is abandoned before materialization.
func (t *Transient) Release() error {
	body, err := t.take()
	if err != nil {
		return nil
	}
	return body.Close()
}

func (*Transient) reference() {}
