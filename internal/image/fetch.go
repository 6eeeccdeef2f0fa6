package image

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// FetchGeneratorStep clones the generator source at the pinned reference
// into the build context. The image's first stage compiles from this
// vendored snapshot, so the build is reproducible for a given ref and
// needs no network access inside the container build.
type FetchGeneratorStep struct{}

func (s *FetchGeneratorStep) Name() string { return "fetch-generator" }

func (s *FetchGeneratorStep) Run(ctx context.Context, a *Assembly) error {
	if a.ContextDir == "" {
		return fmt.Errorf("build context not prepared")
	}

	srcDir := filepath.Join(a.ContextDir, "generator-src")
	if err := os.RemoveAll(srcDir); err != nil {
		return fmt.Errorf("clear generator source directory: %w", err)
	}

	cloneOptions := &git.CloneOptions{
		URL:           a.Config.GeneratorRepo,
		ReferenceName: referenceName(a.Config.GeneratorRef),
		SingleBranch:  true,
		Depth:         1,
	}

	slog.Info("Fetching generator source", "url", a.Config.GeneratorRepo, "ref", a.Config.GeneratorRef)
	repo, err := git.PlainCloneContext(ctx, srcDir, false, cloneOptions)
	if err != nil {
		return fmt.Errorf("clone generator source %s@%s: %w", a.Config.GeneratorRepo, a.Config.GeneratorRef, err)
	}
	if ref, herr := repo.Head(); herr == nil {
		slog.Info("Generator source fetched", "ref", a.Config.GeneratorRef, "commit", ref.Hash().String()[:8])
	}

	// The snapshot is a source archive, not a working repository.
	if err := os.RemoveAll(filepath.Join(srcDir, ".git")); err != nil {
		return fmt.Errorf("strip git metadata: %w", err)
	}

	a.GeneratorSrcDir = srcDir
	return nil
}

// referenceName maps a pinned ref to a full reference name: tags for
// version-shaped refs, branches otherwise.
func referenceName(ref string) plumbing.ReferenceName {
	if strings.HasPrefix(ref, "refs/") {
		return plumbing.ReferenceName(ref)
	}
	if strings.HasPrefix(ref, "v") {
		return plumbing.NewTagReferenceName(ref)
	}
	return plumbing.NewBranchReferenceName(ref)
}
