package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sderrors "git.home.luguber.info/inful/sitedeploy/internal/errors"
	"git.home.luguber.info/inful/sitedeploy/internal/toolchain"
)

// fakeGenerator writes a shell script standing in for the generator
// binary. It creates the output directory (like a real generator would)
// and exits with the given status.
func fakeGenerator(t *testing.T, body string) toolchain.Executable {
	t.Helper()
	path := filepath.Join(t.TempDir(), "generator")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return toolchain.Executable{Name: "generator", Path: path}
}

func TestBuildSuccess(t *testing.T) {
	sourceRoot := t.TempDir()
	exe := fakeGenerator(t, "mkdir -p public && echo '<h1>hi</h1>' > public/index.html")

	b := NewGeneratorBuilder(exe, sourceRoot, "public")
	res, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(sourceRoot, "public"), res.OutputDir)
	assert.FileExists(t, filepath.Join(res.OutputDir, "index.html"))
}

func TestBuildRunsInSourceRoot(t *testing.T) {
	sourceRoot := t.TempDir()
	exe := fakeGenerator(t, "pwd > cwd.txt")

	b := NewGeneratorBuilder(exe, sourceRoot, "public")
	_, err := b.Build(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(sourceRoot, "cwd.txt"))
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(sourceRoot)
	require.NoError(t, err)
	assert.Contains(t, string(data), resolved)
}

func TestBuildFailureCarriesToolOutput(t *testing.T) {
	sourceRoot := t.TempDir()
	exe := fakeGenerator(t, "echo 'template error in layout.html' >&2; exit 1")

	b := NewGeneratorBuilder(exe, sourceRoot, "public")
	_, err := b.Build(context.Background())
	require.Error(t, err)

	var pe *sderrors.PipelineError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, sderrors.CategoryBuild, pe.Category)
	assert.ErrorIs(t, err, ErrGeneratorFailed)
	assert.Contains(t, err.Error(), "template error in layout.html")
}

func TestBuildFailsOnMissingSourceRoot(t *testing.T) {
	exe := fakeGenerator(t, "exit 0")

	b := NewGeneratorBuilder(exe, filepath.Join(t.TempDir(), "missing"), "public")
	_, err := b.Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceTreeMissing)
}

func TestBuildAbsoluteOutputDir(t *testing.T) {
	sourceRoot := t.TempDir()
	outputDir := t.TempDir()
	exe := fakeGenerator(t, "exit 0")

	b := NewGeneratorBuilder(exe, sourceRoot, outputDir)
	res, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, outputDir, res.OutputDir)
}

func TestNoopBuilder(t *testing.T) {
	b := &NoopBuilder{OutputDir: "/tmp/site"}
	res, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/site", res.OutputDir)
}
