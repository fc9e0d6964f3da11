package implementation

import (
	"context"

	"github.com/jt828/runner/pkg/retry"
	goretry "github.com/sethvargo/go-retry"
)

type goRetry struct {
	cfg         *retry.Config
	retryableFn func(err error) bool
}

func NewRetry(opts ...retry.Option) retry.Retry {
	cfg := retry.ApplyOptions(opts...)
	return &goRetry{cfg: cfg, retryableFn: cfg.RetryableFn}
}

// backoff is built per call: go-retry backoffs are stateful and must not be
// shared between concurrent Execute calls.
func (r *goRetry) backoff() goretry.Backoff {
	b := goretry.NewExponential(r.cfg.Interval)
	if r.cfg.MaxInterval > 0 {
		b = goretry.WithCappedDuration(r.cfg.MaxInterval, b)
	}
	return goretry.WithMaxRetries(r.cfg.MaxRetries, b)
}

func (r *goRetry) Execute(ctx context.Context, fn func() error) error {
	return goretry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		err := fn()
		if err == nil {
			return nil
		}

		if r.retryableFn != nil && !r.retryableFn(err) {
			return err
		}

		return goretry.RetryableError(err)
	})
}
