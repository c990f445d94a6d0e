package firebase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"golang.org/x/time/rate"
)

// restClient is the shared HTTP layer under both the Firestore session store
// and the Storage object store: bearer auth, client-side rate limiting, and
// retry with backoff. A 401/403 maps to ErrUnauthorized and is never retried.
type restClient struct {
	http    *http.Client
	limiter *rate.Limiter
	retry   *RetryPolicy
	token   string
	logger  arbor.ILogger
}

func newRESTClient(cfg *common.UploaderConfig, token string, logger arbor.ILogger) *restClient {
	interval := cfg.RateLimit
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &restClient{
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		limiter: rate.NewLimiter(limit, 1),
		retry:   NewRetryPolicy(cfg.MaxRetries),
		token:   token,
		logger:  logger,
	}
}

// do runs one HTTP call inside the rate limiter and retry policy, returning
// the response body and status code.
func (c *restClient) do(ctx context.Context, method, url string, body []byte, contentType string) ([]byte, int, error) {
	if c.token == "" {
		return nil, 0, fmt.Errorf("%w: no auth token for request", interfaces.ErrUnauthorized)
	}

	var respBody []byte
	status, err := c.retry.ExecuteWithRetry(ctx, c.logger, func() (int, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, err
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return 0, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
		}
		return resp.StatusCode, nil
	})
	if err != nil {
		return nil, status, err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return respBody, status, fmt.Errorf("%w: %s %s returned %d", interfaces.ErrUnauthorized, method, url, status)
	}
	return respBody, status, nil
}
