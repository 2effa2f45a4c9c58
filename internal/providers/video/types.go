package video

import (
	"context"

	"genstudio/internal/domain"
	"genstudio/internal/media"
)

// Request describes one video generation.
type Request struct {
	Prompt      string
	AspectRatio domain.AspectRatio
	Seed        *domain.Media
}

// Operation is the provider's handle to an in-flight video job. Handle carries
// the provider-specific value needed to query the next status.
type Operation struct {
	Name     string
	Done     bool
	VideoURI string
	Failure  string
	Handle   any
}

// Operations is the two-call long-running protocol: issue, query status, then
// download the finished asset.
type Operations interface {
	StartVideo(ctx context.Context, req Request) (*Operation, error)
	PollVideo(ctx context.Context, op *Operation) (*Operation, error)
	DownloadVideo(ctx context.Context, uri string) (*media.Transient, error)
}
