package publish

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitedeploy/internal/config"
	sderrors "git.home.luguber.info/inful/sitedeploy/internal/errors"
)

// RsyncPublisher mirrors the output tree to a user@host:path destination
// using the rsync binary: archive mode (preserves structure, permissions
// and modification times), recursive, quiet, delete-extraneous. rsync
// writes each file to a temporary name and renames on completion, which
// satisfies the no-partial-files-live guarantee.
type RsyncPublisher struct {
	Remote config.RemoteConfig
	// rsyncPath overrides the binary location; empty means PATH lookup.
	rsyncPath string
}

// NewRsyncPublisher constructs a publisher for the given remote destination.
func NewRsyncPublisher(remote config.RemoteConfig) *RsyncPublisher {
	return &RsyncPublisher{Remote: remote}
}

// WithRsyncPath overrides the rsync binary location (fluent helper for tests).
func (p *RsyncPublisher) WithRsyncPath(path string) *RsyncPublisher {
	p.rsyncPath = path
	return p
}

// Publish runs a single rsync invocation. Non-zero exit aborts the run;
// there is no retry here — the retry policy, if enabled, wraps the stage.
func (p *RsyncPublisher) Publish(ctx context.Context, outputDir string) (*Result, error) {
	if stat, err := os.Stat(outputDir); err != nil || !stat.IsDir() {
		return nil, sderrors.NewPublishFailure("output tree not found", fmt.Errorf("stat %s: %w", outputDir, err), false)
	}

	rsyncBin := p.rsyncPath
	if rsyncBin == "" {
		found, err := exec.LookPath("rsync")
		if err != nil {
			return nil, sderrors.NewEnvironmentError("rsync executable not found", err)
		}
		rsyncBin = found
	}

	dest := p.Remote.Destination()
	// Trailing slash on the source: mirror the directory's contents, not
	// the directory itself.
	src := strings.TrimSuffix(outputDir, "/") + "/"

	cmd := exec.CommandContext(ctx, rsyncBin, "-a", "-q", "--delete", src, dest)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	slog.Info("Publishing output tree", "source", src, "destination", dest)
	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		errOut := stderr.String()
		cause := fmt.Errorf("rsync failed: %w", err)
		if errOut != "" {
			cause = fmt.Errorf("%w: %s", cause, errOut)
		}
		return nil, sderrors.NewPublishFailure("transfer to remote target failed", cause, isTransientTransferError(errOut))
	}

	slog.Info("Publish completed", "destination", dest, "duration", duration)
	return &Result{Destination: dest, Duration: duration}, nil
}

// isTransientTransferError classifies rsync diagnostics that indicate a
// transient network condition worth retrying under an opt-in retry policy.
func isTransientTransferError(stderr string) bool {
	l := strings.ToLower(stderr)
	for _, marker := range []string{
		"connection timed out",
		"connection refused",
		"connection reset",
		"timeout in data send",
		"temporary failure in name resolution",
		"broken pipe",
	} {
		if strings.Contains(l, marker) {
			return true
		}
	}
	return false
}
