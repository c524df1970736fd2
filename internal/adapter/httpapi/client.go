package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auto-dns/fleet-dashboard/internal/config"
	"github.com/auto-dns/fleet-dashboard/internal/domain"
	"github.com/avast/retry-go/v5"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

const maxBackoff = 5 * time.Second

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client performs JSON GETs against one backend. Every call goes through a
// circuit breaker and a retry loop; validation failures are not retried and
// do not count against the breaker.
type Client struct {
	name    string
	baseURL *url.URL
	http    httpDoer
	breaker *gobreaker.CircuitBreaker
	cfg     *config.APIConfig
	logger  zerolog.Logger
}

func NewClient(name, baseURL string, cfg *config.APIConfig, doer httpDoer, logger zerolog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s base url: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s base url must be http or https: %q", name, baseURL)
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	logger = logger.With().Str("component", "api_client").Str("api", name).Logger()

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.BreakerHalfOpen,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || domain.ClassifyFailure(err) == domain.KindValidation
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Msgf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	return &Client{
		name:    name,
		baseURL: u,
		http:    doer,
		breaker: breaker,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// getJSON decodes the response of GET <base>/<path>?<query> into out.
// Failures are *domain.AdapterError.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.getWithRetry(ctx, path, query, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.NewAdapterError(domain.KindNetwork, 0, fmt.Errorf("%s unavailable: %w", c.name, err))
	}
	return err
}

func (c *Client) getWithRetry(ctx context.Context, path string, query url.Values, out any) error {
	attempts := c.cfg.RetryAttempts
	if attempts == 0 {
		attempts = 1
	}

	var lastErr error
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			return c.backoff(n)
		}),
	)
	err := r.Do(func() error {
		lastErr = c.get(ctx, path, query, out)
		if lastErr != nil && domain.ClassifyFailure(lastErr) == domain.KindValidation {
			return retry.Unrecoverable(lastErr)
		}
		return lastErr
	})
	if err == nil {
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return domain.NewAdapterError(domain.KindNetwork, 0, err)
}

func (c *Client) backoff(n uint) time.Duration {
	base := c.cfg.RetryDelay
	if base <= 0 {
		return 0
	}
	if n > 10 {
		n = 10
	}
	d := base << n
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	u := c.baseURL.JoinPath(path)
	u.RawQuery = query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.NewAdapterError(domain.KindValidation, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewAdapterError(domain.KindNetwork, 0, err)
	}
	defer resp.Body.Close()

	body := io.Reader(resp.Body)
	if c.cfg.MaxResponseBytes > 0 {
		body = io.LimitReader(resp.Body, c.cfg.MaxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readMessage(body)
		kind := domain.KindServer
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			kind = domain.KindValidation
		}
		c.logger.Debug().Msgf("GET %s returned %d", u.Path, resp.StatusCode)
		return domain.NewAdapterError(kind, resp.StatusCode, fmt.Errorf("GET %s: %s", u.Path, msg))
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return domain.NewAdapterError(domain.KindServer, resp.StatusCode, fmt.Errorf("decode %s response: %w", u.Path, err))
	}
	return nil
}

func readMessage(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		return "no response body"
	}
	return msg
}
