// Package publish runs the PUBLISH stage: a one-way mirror of the
// generated output tree to a remote destination. Mirror semantics: new and
// changed files are copied, modification times are preserved, and files
// absent from the output tree are deleted at the destination. Publishing
// twice with no intervening build is a no-op on the second run.
package publish

import (
	"context"
	"time"
)

// Result describes a completed publish.
type Result struct {
	Destination string
	Duration    time.Duration
	// Copied and Deleted are populated by publishers that observe
	// per-file transfers (the local mirror). The rsync publisher runs
	// quiet and leaves them at zero.
	Copied  int
	Deleted int
}

// Publisher makes the destination's contents exactly mirror the output
// tree. Implementations must be non-interactive and must guarantee that no
// partially-written file is ever left live at its final path (e.g. via
// atomic rename-on-completion per file).
type Publisher interface {
	Publish(ctx context.Context, outputDir string) (*Result, error)
}
