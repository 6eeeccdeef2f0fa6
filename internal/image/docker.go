package image

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	sderrors "git.home.luguber.info/inful/sitedeploy/internal/errors"
)

// DockerBuildStep invokes the container engine against the prepared
// context. Non-zero exit aborts image construction; there is no retry.
type DockerBuildStep struct {
	// dockerPath overrides the binary location; empty means PATH lookup.
	dockerPath string
}

func (s *DockerBuildStep) Name() string { return "docker-build" }

// WithDockerPath overrides the docker binary location (fluent helper for tests).
func (s *DockerBuildStep) WithDockerPath(path string) *DockerBuildStep {
	s.dockerPath = path
	return s
}

func (s *DockerBuildStep) Run(ctx context.Context, a *Assembly) error {
	if a.DockerfilePath == "" {
		return fmt.Errorf("dockerfile not rendered")
	}

	dockerBin := s.dockerPath
	if dockerBin == "" {
		found, err := exec.LookPath("docker")
		if err != nil {
			return sderrors.NewEnvironmentError("docker executable not found", err)
		}
		dockerBin = found
	}

	tag := a.Config.Tag
	cmd := exec.CommandContext(ctx, dockerBin, "build", "-t", tag, a.ContextDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("Building image", "tag", tag, "context", a.ContextDir)
	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if errOut := stderr.String(); errOut != "" {
		slog.Debug("docker stderr", "error_output", errOut)
	}
	if err != nil {
		cause := fmt.Errorf("docker build failed: %w", err)
		if errOut := stderr.String(); errOut != "" {
			cause = fmt.Errorf("%w: %s", cause, errOut)
		}
		return sderrors.Wrap(cause, sderrors.CategoryImage, sderrors.SeverityFatal, "image assembly failed")
	}

	a.ImageTag = tag
	slog.Info("Image built", "tag", tag, "duration", duration)
	return nil
}
