// Package build runs the BUILD stage: a single synchronous invocation of
// the external generator that regenerates the output tree from the source
// tree. The orchestrator never inspects the output tree's contents; the
// generator's exit status is the sole success signal.
package build

import (
	"context"
	"time"
)

// Result describes a completed build.
type Result struct {
	OutputDir string        // generated site directory, ready for publishing
	Duration  time.Duration // wall-clock build time
}

// Builder abstracts how the static site rendering step is performed. This
// allows swapping out the external generator binary (GeneratorBuilder)
// with alternative strategies (e.g. no-op for tests) without changing
// stage orchestration.
//
// Contract: Build regenerates the output tree from the source tree and
// returns a non-nil Result on success. Any error means the output tree
// must be treated as invalid until the next successful build.
type Builder interface {
	Build(ctx context.Context) (*Result, error)
}
