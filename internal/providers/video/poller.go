package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/media"
	"genstudio/internal/metrics"
)

const (
	DefaultInterval = 10 * time.Second
	DefaultTimeout  = 10 * time.Minute
)

// ErrPollTimeout is returned, wrapped in domain.ErrRemoteProvider, when the
// operation is still running at the wall-clock ceiling.
var ErrPollTimeout = errors.New("video: operation did not finish before the poll timeout")

// Poller drives a video operation to completion with a fixed wait between
// status queries.
type Poller struct {
	interval time.Duration
	timeout  time.Duration
	logger   infra.Logger
}

func NewPoller(interval, timeout time.Duration, logger infra.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Poller{interval: interval, timeout: timeout, logger: logger}
}

// Run issues the request, waits and re-queries until the provider reports the
// operation done, then downloads the asset exactly once. Cancelling ctx stops
// the loop between attempts and returns ctx.Err().
func (p *Poller) Run(ctx context.Context, ops Operations, req Request) (*media.Transient, error) {
	op, err := ops.StartVideo(ctx, req)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("%w: provider returned no operation", domain.ErrRemoteProvider)
	}
	log := p.logger.With().Str("operation", op.Name).Logger()
	log.Info().Msg("video operation started")

	deadline := time.Now().Add(p.timeout)
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for attempt := 1; !op.Done; attempt++ {
		if attempt > 1 {
			timer.Reset(p.interval)
		}
		select {
		case <-ctx.Done():
			log.Info().Int("attempt", attempt).Msg("video polling cancelled")
			return nil, ctx.Err()
		case <-timer.C:
		}
		if time.Now().After(deadline) {
			log.Warn().Int("attempt", attempt).Dur("timeout", p.timeout).Msg("video polling timed out")
			return nil, fmt.Errorf("%w: %w", domain.ErrRemoteProvider, ErrPollTimeout)
		}

		metrics.VideoPollAttempts.Inc()
		next, err := ops.PollVideo(ctx, op)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, fmt.Errorf("%w: provider returned no operation status", domain.ErrRemoteProvider)
		}
		op = next
		log.Debug().Int("attempt", attempt).Bool("done", op.Done).Msg("video operation polled")
	}

	if op.Failure != "" {
		return nil, fmt.Errorf("%w: video operation failed: %s", domain.ErrRemoteProvider, op.Failure)
	}
	if op.VideoURI == "" {
		log.Warn().Msg("video operation finished without a video")
		return nil, fmt.Errorf("%w: video operation returned no video", domain.ErrEmptyResult)
	}

	asset, err := ops.DownloadVideo(ctx, op.VideoURI)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("video downloaded")
	return asset, nil
}
