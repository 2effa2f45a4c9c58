package video

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/media"
)

type fakeOps struct {
	doneAfter int
	failure   string
	noVideo   bool
	pollErr   error

	starts    atomic.Int32
	polls     atomic.Int32
	downloads atomic.Int32
	lastURI   string
}

func (f *fakeOps) StartVideo(ctx context.Context, req Request) (*Operation, error) {
	f.starts.Add(1)
	return &Operation{Name: "operations/1", Done: f.doneAfter == 0, VideoURI: f.uri()}, nil
}

func (f *fakeOps) PollVideo(ctx context.Context, op *Operation) (*Operation, error) {
	n := int(f.polls.Add(1))
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	done := f.doneAfter >= 0 && n >= f.doneAfter
	next := &Operation{Name: op.Name, Done: done, Failure: ""}
	if done {
		next.Failure = f.failure
		next.VideoURI = f.uri()
	}
	return next, nil
}

func (f *fakeOps) DownloadVideo(ctx context.Context, uri string) (*media.Transient, error) {
	f.downloads.Add(1)
	f.lastURI = uri
	return media.NewTransient("video/mp4", io.NopCloser(strings.NewReader("mp4"))), nil
}

func (f *fakeOps) uri() string {
	if f.noVideo {
		return ""
	}
	return "https://files.example/video.mp4"
}

func newTestPoller(timeout time.Duration) *Poller {
	return NewPoller(time.Millisecond, timeout, infra.DiscardLogger())
}

func TestPollerQueriesUntilDoneThenDownloadsOnce(t *testing.T) {
	for _, n := range []int{0, 1, 3, 7} {
		ops := &fakeOps{doneAfter: n}
		asset, err := newTestPoller(time.Minute).Run(context.Background(), ops, Request{Prompt: "waves"})
		if err != nil {
			t.Fatalf("n=%d: Run error: %v", n, err)
		}
		if asset == nil {
			t.Fatalf("n=%d: expected asset", n)
		}
		if got := int(ops.polls.Load()); got != n {
			t.Fatalf("n=%d: polls = %d", n, got)
		}
		if got := ops.downloads.Load(); got != 1 {
			t.Fatalf("n=%d: downloads = %d, want 1", n, got)
		}
		if ops.lastURI != "https://files.example/video.mp4" {
			t.Fatalf("n=%d: downloaded %q", n, ops.lastURI)
		}
	}
}

func TestPollerOperationFailure(t *testing.T) {
	ops := &fakeOps{doneAfter: 2, failure: "safety filter"}
	_, err := newTestPoller(time.Minute).Run(context.Background(), ops, Request{Prompt: "x"})
	if !errors.Is(err, domain.ErrRemoteProvider) {
		t.Fatalf("err = %v, want ErrRemoteProvider", err)
	}
	if ops.downloads.Load() != 0 {
		t.Fatal("expected no download after failure")
	}
}

func TestPollerDoneWithoutVideo(t *testing.T) {
	ops := &fakeOps{doneAfter: 1, noVideo: true}
	_, err := newTestPoller(time.Minute).Run(context.Background(), ops, Request{Prompt: "x"})
	if !errors.Is(err, domain.ErrEmptyResult) {
		t.Fatalf("err = %v, want ErrEmptyResult", err)
	}
}

func TestPollerPropagatesPollError(t *testing.T) {
	ops := &fakeOps{doneAfter: 5, pollErr: domain.ErrAPIKeyExpired}
	_, err := newTestPoller(time.Minute).Run(context.Background(), ops, Request{Prompt: "x"})
	if !errors.Is(err, domain.ErrAPIKeyExpired) {
		t.Fatalf("err = %v, want ErrAPIKeyExpired", err)
	}
	if ops.polls.Load() != 1 {
		t.Fatalf("polls = %d, want 1", ops.polls.Load())
	}
}

func TestPollerTimesOut(t *testing.T) {
	ops := &fakeOps{doneAfter: -1}
	_, err := newTestPoller(20*time.Millisecond).Run(context.Background(), ops, Request{Prompt: "x"})
	if !errors.Is(err, ErrPollTimeout) || !errors.Is(err, domain.ErrRemoteProvider) {
		t.Fatalf("err = %v, want ErrPollTimeout wrapped in ErrRemoteProvider", err)
	}
	if ops.downloads.Load() != 0 {
		t.Fatal("expected no download after timeout")
	}
}

func TestPollerStopsOnCancel(t *testing.T) {
	ops := &fakeOps{doneAfter: -1}
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(time.Hour, 2*time.Hour, infra.DiscardLogger())

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx, ops, Request{Prompt: "x"})
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	if ops.polls.Load() != 0 || ops.downloads.Load() != 0 {
		t.Fatalf("polls = %d downloads = %d after cancel", ops.polls.Load(), ops.downloads.Load())
	}
}
