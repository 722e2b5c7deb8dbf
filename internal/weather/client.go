package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/bcosynot/ouch/internal/observability"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/3.0/onecall"
	defaultExclude = "minutely,hourly,daily,alerts"
)

var (
	// ErrRateLimited is returned on HTTP 429; the call is not retried.
	ErrRateLimited = errors.New("too many requests - API rate limit reached")

	errMissingAPIKey    = errors.New("API key is required")
	errServerError      = errors.New("upstream server error")
	errUnexpectedStatus = errors.New("unexpected status code")
	errCircuitOpen      = errors.New("circuit breaker open")
)

// BackoffConfig controls the retry loop around the One Call request.
type BackoffConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Jitter          time.Duration // uniform random addition to each delay
}

// Client fetches current conditions for a fixed location from the
// OpenWeatherMap One Call 3.0 API.
type Client struct {
	apiKey  string
	lat     float64
	lon     float64
	baseURL string
	exclude string

	httpClient *http.Client
	backoff    BackoffConfig
	circuit    *gobreaker.CircuitBreaker
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// NewClient creates a One Call client with the standard resilience settings:
// 5 total attempts, 1s initial backoff doubling per attempt, up to 500ms of
// jitter, and a circuit breaker in front of the upstream.
func NewClient(client *http.Client, apiKey string, lat, lon float64, metrics *observability.Metrics, logger zerolog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		apiKey:  apiKey,
		lat:     lat,
		lon:     lon,
		baseURL: defaultBaseURL,
		exclude: defaultExclude,

		httpClient: client,
		backoff: BackoffConfig{
			MaxAttempts:     5,
			InitialInterval: 1 * time.Second,
			MaxInterval:     16 * time.Second,
			Jitter:          500 * time.Millisecond,
		},
		circuit: cb,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger.With().Str("component", "weather").Logger(),
	}
}

// Current fetches, validates, and flattens the current conditions.
func (c *Client) Current(ctx context.Context) (Conditions, error) {
	if c.apiKey == "" {
		return Conditions{}, errMissingAPIKey
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", c.lat))
		values.Set("lon", fmt.Sprintf("%f", c.lon))
		values.Set("appid", c.apiKey)
		values.Set("units", "imperial")
		values.Set("exclude", c.exclude)

		u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := c.doWithResilience(ctx, buildRequest)
	if err != nil {
		c.metrics.FetchFailures.WithLabelValues(failureReason(err)).Inc()
		return Conditions{}, err
	}
	defer resp.Body.Close()

	var payload oneCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.metrics.FetchFailures.WithLabelValues("incomplete").Inc()
		return Conditions{}, fmt.Errorf("decode response: %w", err)
	}

	cond, err := payload.conditions()
	if err != nil {
		c.metrics.FetchFailures.WithLabelValues("incomplete").Inc()
		return Conditions{}, err
	}
	return cond, nil
}

// doWithResilience executes the HTTP request with retries, exponential
// backoff with jitter, and the circuit breaker. Transport errors and 5xx
// responses are retried; 429 and other non-2xx statuses fail immediately.
func (c *Client) doWithResilience(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	attempt := 1

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		c.metrics.FetchAttempts.Inc()

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.httpClient.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode == http.StatusOK {
				return resp, nil
			}

			_ = resp.Body.Close()
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, ErrRateLimited
			case resp.StatusCode >= 500:
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			default:
				return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
			}
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// If the circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		// Rate limiting and client errors are not transient.
		if errors.Is(err, ErrRateLimited) || errors.Is(err, errUnexpectedStatus) {
			return nil, err
		}

		if attempt >= c.backoff.MaxAttempts {
			return nil, fmt.Errorf("request failed after %d attempts: %w", attempt, err)
		}

		delay := c.delay(attempt)
		c.metrics.FetchRetries.Inc()
		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("weather fetch failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.clock.After(delay):
		}

		attempt++
	}
}

// delay computes the exponential backoff before attempt n+1, capped at
// MaxInterval, plus uniform jitter.
func (c *Client) delay(attempt int) time.Duration {
	delay := c.backoff.InitialInterval << (attempt - 1)
	if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
		delay = c.backoff.MaxInterval
	}
	if c.backoff.Jitter > 0 {
		delay += rand.N(c.backoff.Jitter)
	}
	return delay
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, errCircuitOpen):
		return "circuit_open"
	case errors.Is(err, errServerError), errors.Is(err, errUnexpectedStatus):
		return "upstream_status"
	default:
		return "transport"
	}
}
