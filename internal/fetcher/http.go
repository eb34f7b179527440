package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/council-ops/unit-roster/internal/resilience"
)

// HTTPOptions configures the Downloader.
type HTTPOptions struct {
	UserAgent   string
	Timeout     time.Duration
	MaxRetries  int
	RatePerSec  float64
	BaseBackoff time.Duration
}

// Downloader fetches listing feeds over HTTP with retry on 429 and 5xx
// responses and a shared rate limit.
type Downloader struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
	policy  resilience.Policy
}

// NewDownloader creates a Downloader, filling in defaults for zero options.
func NewDownloader(opts HTTPOptions) *Downloader {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "unit-roster/1.0"
	}
	if opts.RatePerSec == 0 {
		opts.RatePerSec = 5
	}
	if opts.BaseBackoff == 0 {
		opts.BaseBackoff = time.Second
	}
	policy := resilience.DefaultPolicy()
	policy.Attempts = opts.MaxRetries
	policy.Base = opts.BaseBackoff
	policy.OnRetry = func(attempt int, err error) {
		zap.L().Warn("fetcher: retrying download",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return &Downloader{
		client:  &http.Client{Timeout: opts.Timeout},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
		policy:  policy,
	}
}

// Download fetches the URL and returns the response body.
func (d *Downloader) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", d.opts.UserAgent)

	resp, err := resilience.Retry(ctx, d.policy, func(ctx context.Context) (*http.Response, error) {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}
		resp, err := d.client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resilience.IsRetryableStatus(resp.StatusCode) {
			_ = resp.Body.Close()
			return nil, &resilience.StatusError{StatusCode: resp.StatusCode, URL: rawURL}
		}
		return resp, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: download")
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	return resp.Body, nil
}
