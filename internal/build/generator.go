package build

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	sderrors "git.home.luguber.info/inful/sitedeploy/internal/errors"
	"git.home.luguber.info/inful/sitedeploy/internal/toolchain"
)

// GeneratorBuilder invokes the resolved generator executable with no
// arguments beyond the default build command, with the working directory
// set to the source tree root.
type GeneratorBuilder struct {
	Executable toolchain.Executable
	SourceRoot string
	OutputDir  string // relative to SourceRoot unless absolute
}

// NewGeneratorBuilder constructs a builder for the given executable and source tree.
func NewGeneratorBuilder(exe toolchain.Executable, sourceRoot, outputDir string) *GeneratorBuilder {
	return &GeneratorBuilder{Executable: exe, SourceRoot: sourceRoot, OutputDir: outputDir}
}

// Build runs the generator synchronously. Success is signaled by a zero
// exit status; any non-zero exit aborts with a fatal build failure
// carrying the tool's diagnostic output.
func (g *GeneratorBuilder) Build(ctx context.Context) (*Result, error) {
	if stat, err := os.Stat(g.SourceRoot); err != nil || !stat.IsDir() {
		return nil, sderrors.NewBuildFailure("source tree not found", fmt.Errorf("%w: %s", ErrSourceTreeMissing, g.SourceRoot))
	}

	cmd := exec.CommandContext(ctx, g.Executable.Path)
	cmd.Dir = g.SourceRoot
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("Running generator", "executable", g.Executable.Name, "dir", g.SourceRoot)
	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if out := stdout.String(); out != "" {
		slog.Debug("generator stdout", "output", out)
	}
	if errOut := stderr.String(); errOut != "" {
		slog.Warn("generator stderr", "error_output", errOut)
	}

	if err != nil {
		// Include both streams in the error; the generator may report to either.
		output := stderr.String()
		if output == "" {
			output = stdout.String()
		} else if stdout.Len() > 0 {
			output = stdout.String() + "\n" + output
		}
		cause := fmt.Errorf("%w: %w", ErrGeneratorFailed, err)
		if output != "" {
			cause = fmt.Errorf("%w: %s", cause, output)
		}
		return nil, sderrors.NewBuildFailure("generator exited non-zero", cause)
	}

	outputDir := g.OutputDir
	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(g.SourceRoot, outputDir)
	}
	slog.Info("Generator build completed", "output", outputDir, "duration", duration)
	return &Result{OutputDir: outputDir, Duration: duration}, nil
}

// NoopBuilder performs no build; useful in tests or when the output tree
// is already current.
type NoopBuilder struct {
	OutputDir string
}

func (n *NoopBuilder) Build(_ context.Context) (*Result, error) {
	slog.Debug("NoopBuilder skipping build", "output", n.OutputDir)
	return &Result{OutputDir: n.OutputDir}, nil
}
