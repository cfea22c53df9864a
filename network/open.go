package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/castor-cli/castor/constant"
	"github.com/samber/mo"
)

// ErrInvalidURL marks a source locator that must never reach the transport or the filesystem.
var ErrInvalidURL = errors.New("invalid URL")

// Stream is an open remote byte stream with an optional advertised length.
// The advertised length is a hint only; servers may omit it or report it incorrectly.
type Stream struct {
	Body          io.ReadCloser
	ContentLength mo.Option[int64]
}

// ValidateURL verifies that a source locator is an absolute http(s) URL with a non-empty host.
// Rejections wrap ErrInvalidURL so callers can classify them without string matching.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidURL, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidURL)
	}

	return nil
}

// Open starts a GET transfer for the given URL and returns the response body as a Stream.
// The request is bound to ctx, so cancelling the context unblocks any pending read.
func Open(ctx context.Context, rawURL string, headers map[string]string) (*Stream, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", constant.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", rawURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("open %s: unexpected status %s", rawURL, resp.Status)
	}

	stream := &Stream{Body: resp.Body}
	if resp.ContentLength >= 0 {
		stream.ContentLength = mo.Some(resp.ContentLength)
	}

	return stream, nil
}
