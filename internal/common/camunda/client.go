// internal/common/camunda/client.go
package camunda

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"visa-directory/internal/common/config"
	apperrors "visa-directory/internal/common/errors"
)

// Client owns the gateway connection the directory job workers poll through.
type Client struct {
	zeebe   zbc.Client
	options ClientOptions
}

type ClientOptions struct {
	Gateway     string
	Plaintext   bool
	DialTimeout time.Duration
	Retry       RetryPolicy
}

// RetryPolicy allows Attempts retries after the first try, doubling Base up to Max.
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	Attempts: 3,
	Base:     time.Second,
	Max:      10 * time.Second,
}

// OptionsFrom maps the camunda config section onto client options.
func OptionsFrom(cfg config.CamundaConfig) ClientOptions {
	dial := config.GetDuration(cfg.RequestTimeout)
	if dial <= 0 {
		dial = 10 * time.Second
	}
	return ClientOptions{
		Gateway:     cfg.BrokerAddress,
		Plaintext:   true,
		DialTimeout: dial,
		Retry:       DefaultRetryPolicy,
	}
}

// Connect opens the gateway and waits for a topology answer before returning.
func Connect(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = DefaultRetryPolicy
	}

	zc, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         opts.Gateway,
		UsePlaintextConnection: opts.Plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("create zeebe client for %s: %w", opts.Gateway, err)
	}

	c := &Client{zeebe: zc, options: opts}
	if err := c.HealthCheck(ctx); err != nil {
		_ = zc.Close()
		return nil, err
	}
	return c, nil
}

// Zeebe exposes the raw client for worker registration.
func (c *Client) Zeebe() zbc.Client {
	return c.zeebe
}

func (c *Client) Close() error {
	return c.zeebe.Close()
}

// HealthCheck asks the gateway for its topology. It backs the readiness check.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.options.DialTimeout)
	defer cancel()

	return c.Do(ctx, "topology", func(ctx context.Context) error {
		_, err := c.zeebe.NewTopologyCommand().Send(ctx)
		return err
	})
}

// Do runs op until it succeeds, fails permanently or the retry budget is spent. The
// returned error is a StandardError.
func (c *Client) Do(ctx context.Context, operation string, op func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !Transient(err) || attempt >= c.options.Retry.Attempts {
			return classify(err, operation, attempt+1)
		}

		select {
		case <-time.After(c.options.Retry.Delay(attempt)):
		case <-ctx.Done():
			return apperrors.NewTimeoutError("zeebe", fmt.Errorf("%s abandoned after %d attempts: %w", operation, attempt+1, ctx.Err()))
		}
	}
}

// Delay is the wait before retry number attempt+1.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.Base << attempt
	if d <= 0 || d > p.Max {
		return p.Max
	}
	return d
}

// Transient reports whether a gateway error is worth another try.
func Transient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{"connection refused", "connection reset", "broken pipe"} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

func classify(err error, operation string, attempts int) error {
	wrapped := fmt.Errorf("zeebe %s failed after %d attempts: %w", operation, attempts, err)
	code := status.Code(err)
	switch {
	case errors.Is(err, context.DeadlineExceeded), code == codes.DeadlineExceeded:
		return apperrors.NewTimeoutError("zeebe", wrapped)
	case code == codes.NotFound:
		return apperrors.NewResourceNotFoundError("zeebe", wrapped.Error())
	}
	return apperrors.NewExternalServiceError("zeebe", wrapped)
}
