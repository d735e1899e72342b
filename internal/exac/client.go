package exac

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultURL is the ExAC bulk variant endpoint.
const DefaultURL = "http://exac.hms.harvard.edu/rest/bulk/variant"

// Options configures a Client.
type Options struct {
	URL           string        // bulk endpoint, DefaultURL if empty
	Timeout       time.Duration // per-request timeout
	MaxRetries    int           // retries after the first attempt
	RetryInterval time.Duration // initial backoff interval
	BatchSize     int           // identities per request, 0 for a single request
	Concurrency   int           // requests in flight when batching
}

// Client queries the ExAC bulk variant endpoint.
type Client struct {
	url           string
	httpClient    *http.Client
	maxRetries    int
	retryInterval time.Duration
	batchSize     int
	concurrency   int
	logger        *zap.Logger
}

// NewClient creates a new ExAC client.
func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &Client{
		url: opts.URL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		maxRetries:    opts.MaxRetries,
		retryInterval: opts.RetryInterval,
		batchSize:     opts.BatchSize,
		concurrency:   opts.Concurrency,
		logger:        zap.NewNop(),
	}
}

// SetLogger sets the logger for retry and batch messages.
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Lookup fetches and decodes the ExAC records for the given query keys.
// Keys the service does not know are simply absent from the result.
func (c *Client) Lookup(ctx context.Context, keys []string) (map[string]VariantInfo, error) {
	raw, err := c.FetchRaw(ctx, keys)
	if err != nil {
		return nil, err
	}
	infos, err := DecodeAll(raw)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	return infos, nil
}

// FetchRaw fetches the raw JSON record of each query key.
func (c *Client) FetchRaw(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	batches := chunk(keys, c.batchSize)
	c.logger.Info("querying ExAC",
		zap.String("url", c.url),
		zap.Int("identities", len(keys)),
		zap.Int("batches", len(batches)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			raw, err := c.post(gctx, batch)
			if err != nil {
				return err
			}
			c.logger.Debug("ExAC batch complete",
				zap.Int("batch", i),
				zap.Int("requested", len(batch)),
				zap.Int("returned", len(raw)))

			mu.Lock()
			defer mu.Unlock()
			for k, v := range raw {
				result[k] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// post sends one batch, retrying transient failures with exponential backoff.
func (c *Client) post(ctx context.Context, keys []string) (map[string][]byte, error) {
	body, err := EncodeBatch(keys)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}

	var (
		result   map[string][]byte
		attempts int
		status   int
	)

	op := func() error {
		attempts++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			err := fmt.Errorf("unexpected status %s: %s", resp.Status, truncate(payload, 200))
			if retryable(resp.StatusCode) {
				return err
			}
			return backoff.Permanent(err)
		}

		result, err = DecodeBatch(payload)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("ExAC request failed, retrying",
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, &ServiceError{StatusCode: status, Attempts: attempts, Err: err}
	}
	return result, nil
}

// retryable reports whether a response status is worth another attempt.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// ServiceError is returned when the ExAC lookup cannot be completed.
type ServiceError struct {
	StatusCode int // last HTTP status seen, 0 if none
	Attempts   int
	Err        error
}

func (e *ServiceError) Error() string {
	msg := "exac lookup failed"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
