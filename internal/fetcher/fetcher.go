package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/vgccalc/vgccalc/internal/config"
)

// Service names, also used as breaker keys.
const (
	Showdown  = "showdown"
	Smogon    = "smogon"
	Pokepaste = "pokepaste"
)

// maxBody caps the size of a downloaded document.
const maxBody = 64 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned status %d", e.URL, e.Code)
}

// NotFound reports a 404, which is not retried and does not count against
// the breaker.
func (e *StatusError) NotFound() bool { return e.Code == http.StatusNotFound }

// Observer is told about every completed request.
type Observer func(service string, ok bool, d time.Duration)

// Client downloads Pokedex data, usage statistics and pastes.
type Client struct {
	cfg        config.FetchConfig
	httpClient *http.Client
	logger     *slog.Logger
	breakers   map[string]*Breaker
	observer   Observer
	maxTries   uint
	backoff    func() backoff.BackOff
}

// New creates a client. Services without breaker settings in cfg use
// DefaultBreakerConfig.
func New(cfg config.FetchConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "vgccalc/1.0"
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		breakers:   map[string]*Breaker{},
		maxTries:   3,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
	for _, name := range []string{Showdown, Smogon, Pokepaste} {
		c.breakers[name] = NewBreaker(name, cfg.Breakers[name], c.logTransition)
	}
	return c
}

func (c *Client) logTransition(service string, from, to State) {
	c.logger.Info("Circuit breaker state changed", "service", service, "from", from, "to", to)
}

// SetObserver registers a callback for request outcomes.
func (c *Client) SetObserver(o Observer) { c.observer = o }

// Breaker returns the breaker of a service, or nil.
func (c *Client) Breaker(service string) *Breaker { return c.breakers[service] }

// States returns the state of every breaker by service.
func (c *Client) States() map[string]string {
	out := make(map[string]string, len(c.breakers))
	for name, b := range c.breakers {
		out[name] = string(b.State())
	}
	return out
}

// Pokedex downloads the Showdown pokedex.json.
func (c *Client) Pokedex(ctx context.Context) ([]byte, error) {
	return c.get(ctx, Showdown, joinURL(c.cfg.Showdown, "pokedex.json"))
}

// Moves downloads the Showdown moves.json.
func (c *Client) Moves(ctx context.Context) ([]byte, error) {
	return c.get(ctx, Showdown, joinURL(c.cfg.Showdown, "moves.json"))
}

// ChaosURL returns the URL of a chaos statistics file, e.g.
// <base>/2025-12/chaos/gen9vgc2026regfbo3-1760.json.
func (c *Client) ChaosURL(month, smogonID string, elo int) string {
	return joinURL(c.cfg.Smogon, month, "chaos", fmt.Sprintf("%s-%d.json", smogonID, elo))
}

// Chaos downloads a chaos statistics file.
func (c *Client) Chaos(ctx context.Context, month, smogonID string, elo int) ([]byte, error) {
	return c.get(ctx, Smogon, c.ChaosURL(month, smogonID, elo))
}

// Paste downloads the raw text of a paste.
func (c *Client) Paste(ctx context.Context, id string) (string, error) {
	body, err := c.get(ctx, Pokepaste, joinURL(c.cfg.Pokepaste, url.PathEscape(id), "raw"))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, service, target string) ([]byte, error) {
	br := c.breakers[service]

	start := time.Now()
	body, err := br.Execute(ctx, func() ([]byte, error) {
		return backoff.Retry(ctx, func() ([]byte, error) {
			body, err := c.do(ctx, target)
			var se *StatusError
			if errors.As(err, &se) && se.Code < 500 && se.Code != http.StatusTooManyRequests {
				return nil, backoff.Permanent(err)
			}
			if err != nil {
				c.logger.Debug("Fetch attempt failed", "service", service, "url", target, "error", err)
			}
			return body, err
		}, backoff.WithBackOff(c.backoff()), backoff.WithMaxTries(c.maxTries))
	})
	var be *BreakerError
	if errors.As(err, &be) {
		return nil, err
	}

	if c.observer != nil {
		c.observer(service, err == nil, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("Fetch failed", "service", service, "url", target, "error", err, "breaker", br.State())
		return nil, fmt.Errorf("%s: %w", service, err)
	}
	c.logger.Debug("Fetched", "service", service, "url", target, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

func (c *Client) do(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: target, Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

func joinURL(base string, parts ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
