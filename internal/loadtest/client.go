package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/fairteams/internal/domain/roster"
	"github.com/okian/fairteams/internal/domain/types"
	"github.com/okian/fairteams/pkg/logger"
	"github.com/sony/gobreaker"
)

// ErrUnexpectedStatus matches every *StatusError.
var ErrUnexpectedStatus = errors.New("unexpected status")

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code int
	Body types.ErrorResponse
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s: %s", e.Code, e.Body.Code, e.Body.Message)
}

// Is matches ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool { return target == ErrUnexpectedStatus }

// Client talks to the service API. Server errors and transport failures
// trip a circuit breaker; client errors such as 422 or 429 do not.
type Client struct {
	base string
	http *http.Client
	cb   *gobreaker.CircuitBreaker
}

// NewClient returns a client for baseURL.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fairteams-api",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "circuit breaker state changed",
				logger.String("circuit", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			return err == nil || (errors.As(err, &se) && se.Code < http.StatusInternalServerError)
		},
	})
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
		cb:   cb,
	}
}

// State reports the circuit breaker state.
func (c *Client) State() gobreaker.State { return c.cb.State() }

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	return err
}

// Generate calls POST /teams.
func (c *Client) Generate(ctx context.Context, players []roster.Player) (types.TeamsResponse, error) {
	var out types.TeamsResponse
	_, err := c.do(ctx, http.MethodPost, "/teams", types.GenerateRequest{Players: players}, &out)
	return out, err
}

// Submit calls POST /jobs.
func (c *Client) Submit(ctx context.Context, req types.GenerateRequest) (types.JobResponse, error) {
	var out types.JobResponse
	_, err := c.do(ctx, http.MethodPost, "/jobs", req, &out)
	return out, err
}

// Job calls GET /jobs/{id}.
func (c *Client) Job(ctx context.Context, id string) (types.JobResponse, error) {
	var out types.JobResponse
	_, err := c.do(ctx, http.MethodGet, "/jobs/"+id, nil, &out)
	return out, err
}

// Export calls GET /jobs/{id}/export.
func (c *Client) Export(ctx context.Context, id string) (string, error) {
	b, err := c.do(ctx, http.MethodGet, "/jobs/"+id+"/export", nil, nil)
	return string(b), err
}

// Wait polls a job until it reaches a terminal status.
func (c *Client) Wait(ctx context.Context, id string, every time.Duration) (types.JobResponse, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		job, err := c.Job(ctx, id)
		if err != nil {
			return job, err
		}
		switch job.Status {
		case "done", "failed", "canceled":
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// do sends a request through the breaker and decodes a 2xx JSON answer into
// out. It returns the raw body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) ([]byte, error) {
	res, err := c.cb.Execute(func() (any, error) {
		var body io.Reader = http.NoBody
		if in != nil {
			b, err := json.Marshal(in)
			if err != nil {
				return nil, fmt.Errorf("marshal request: %w", err)
			}
			body = bytes.NewReader(b)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode/100 != 2 {
			se := &StatusError{Code: resp.StatusCode}
			_ = json.Unmarshal(b, &se.Body)
			return nil, se
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	b, _ := res.([]byte)
	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			return b, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return b, nil
}
