package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/surfcast/internal/forecast"
	"github.com/i474232898/surfcast/internal/observability"
)

// BackoffConfig controls exponential backoff behaviour. MaxRetries 0 means a
// single attempt.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
	Metrics *observability.Metrics
}

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// statusError carries a non-2xx status out of the circuit breaker.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.status)
}

// retryable reports whether another attempt could succeed.
func (e *statusError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// newBreaker builds the per-upstream circuit breaker. Client errors are the
// caller's fault and do not count towards tripping it.
func newBreaker(source forecast.Source) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        string(source),
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return !se.retryable()
			}
			return err == nil
		},
	})
}

// doRequestWithResilience executes the HTTP request with retries, exponential
// backoff, and a circuit breaker. Every failure is reported as a
// *forecast.UpstreamError for source.
func doRequestWithResilience(
	ctx context.Context,
	source forecast.Source,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, &forecast.UpstreamError{Source: source, Err: errNoHTTPClient}
	}
	if cfg.Backoff.MaxRetries < 0 || (cfg.Backoff.MaxRetries > 0 && cfg.Backoff.InitialInterval <= 0) {
		return nil, &forecast.UpstreamError{Source: source, Err: errInvalidConfig}
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, &forecast.UpstreamError{Source: source, Err: ctx.Err()}
		}

		req, err := buildRequest()
		if err != nil {
			return nil, &forecast.UpstreamError{Source: source, Err: err}
		}
		req = req.WithContext(ctx)

		start := time.Now()
		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil, &statusError{status: resp.StatusCode}
			}
			return resp, nil
		})
		observe(cfg.Metrics, source, start, err)

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, &forecast.UpstreamError{Source: source, Err: fmt.Errorf("unexpected result type from circuit breaker")}
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &forecast.UpstreamError{Source: source, Err: fmt.Errorf("%w: %v", errCircuitOpen, err)}
		}

		upErr := &forecast.UpstreamError{Source: source, Err: err}
		var se *statusError
		if errors.As(err, &se) {
			upErr.Status = se.status
			if !se.retryable() {
				return nil, upErr
			}
		}

		if attempt >= cfg.Backoff.MaxRetries {
			return nil, upErr
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &forecast.UpstreamError{Source: source, Err: ctx.Err()}
		case <-timer.C:
		}

		attempt++
	}
}

func observe(m *observability.Metrics, source forecast.Source, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	m.UpstreamRequests.WithLabelValues(string(source), outcome).Inc()
	if outcome != "rejected" {
		m.UpstreamDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
	}
}
