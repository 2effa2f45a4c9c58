package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"genstudio/internal/domain"
	"genstudio/internal/media"
)

const apiKeyHeader = "x-goog-api-key"

// DownloadVideo opens the finished video. The API key travels in a header,
// never in the query string. The caller owns the returned stream and must
// materialize or release it.
func (c *Client) DownloadVideo(ctx context.Context, uri string) (*media.Transient, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create download request: %w", domain.ErrDownloadFailed, err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: download video: %w", domain.ErrDownloadFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		c.logger.Error().Int("status", resp.StatusCode).Msg("gemini: video download rejected")
		return nil, fmt.Errorf("%w: download status %d: %s", domain.ErrDownloadFailed, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = "video/mp4"
	}
	return media.NewTransient(mimeType, resp.Body), nil
}
