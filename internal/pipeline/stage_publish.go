package pipeline

import (
	"context"
	"log/slog"
	"time"

	sderrors "git.home.luguber.info/inful/sitedeploy/internal/errors"
)

// stagePublish mirrors the output tree to the remote target. The default
// policy performs exactly one attempt (fail fast, no retry). When a
// deployment opts into retries, only errors classified transient are
// retried, with backoff between attempts.
func (r *Runner) stagePublish(ctx context.Context, rs *RunState) error {
	outputDir := rs.Plan.OutputDir
	if rs.BuildResult != nil {
		outputDir = rs.BuildResult.OutputDir
	}

	policy := rs.Plan.Retry
	var lastErr error
	for attempt := 0; ; attempt++ {
		res, err := rs.Publisher.Publish(ctx, outputDir)
		if err == nil {
			rs.PublishResult = res
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return err
		}
		if !sderrors.IsRetryable(err) || attempt >= policy.MaxRetries {
			break
		}
		delay := policy.Delay(attempt + 1)
		slog.Warn("Publish failed, retrying after backoff",
			"attempt", attempt+1, "max_retries", policy.MaxRetries, "backoff", delay, "error", err)
		r.recorder.IncPublishRetry()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	if policy.MaxRetries > 0 && sderrors.IsRetryable(lastErr) {
		r.recorder.IncPublishRetryExhausted()
	}
	return lastErr
}
