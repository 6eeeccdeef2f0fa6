// Package image realizes the containerized publish path: a three-stage
// container image that compiles the generator from pinned source, renders
// the bundled source tree, and layers only the rendered output onto a
// minimal web-server base image.
//
// The assembly is modeled as a dependency-ordered pipeline of
// artifact-producing steps rather than shell scripting: each step
// validates its inputs on the Assembly and records the artifact it
// produced, so the stage wiring is independently testable.
package image

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitedeploy/internal/config"
)

// Assembly carries typed artifacts between steps.
type Assembly struct {
	Config     config.ImageConfig
	SourceRoot string // authored site tree bundled into the image
	OutputDir  string // generator output directory name inside the site tree

	// Artifacts, populated in dependency order.
	ContextDir      string // isolated docker build context
	GeneratorSrcDir string // pinned generator source snapshot inside the context
	DockerfilePath  string // rendered three-stage Dockerfile
	ImageTag        string // tag of the built image
}

// Step is a discrete artifact-producing unit of the assembly.
type Step interface {
	Name() string
	Run(ctx context.Context, a *Assembly) error
}

// Assembler executes the assembly steps in dependency order, fail-fast.
type Assembler struct {
	steps []Step
}

// NewAssembler wires the default step sequence: context preparation, pinned
// generator fetch, Dockerfile rendering, docker build.
func NewAssembler(cfg config.ImageConfig, sourceRoot, outputDir string) (*Assembler, *Assembly) {
	a := &Assembly{Config: cfg, SourceRoot: sourceRoot, OutputDir: outputDir}
	return &Assembler{steps: []Step{
		&PrepareContextStep{},
		&FetchGeneratorStep{},
		&WriteDockerfileStep{},
		&DockerBuildStep{},
	}}, a
}

// WithSteps overrides the step sequence (fluent helper for tests).
func (asm *Assembler) WithSteps(steps ...Step) *Assembler {
	if len(steps) > 0 {
		asm.steps = steps
	}
	return asm
}

// Run executes all steps in order, stopping at the first failure. A failed
// step aborts image construction; completed artifacts are left in place
// for inspection.
func (asm *Assembler) Run(ctx context.Context, a *Assembly) error {
	for _, st := range asm.steps {
		select {
		case <-ctx.Done():
			return fmt.Errorf("assembly canceled before step %s: %w", st.Name(), ctx.Err())
		default:
		}
		t0 := time.Now()
		slog.Info("Running assembly step", "step", st.Name())
		if err := st.Run(ctx, a); err != nil {
			return fmt.Errorf("assembly step %s: %w", st.Name(), err)
		}
		slog.Debug("Assembly step completed", "step", st.Name(), "duration", time.Since(t0))
	}
	return nil
}
