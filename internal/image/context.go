package image

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PrepareContextStep stages the authored source tree into an isolated
// build context directory. Nothing else enters the context: the image
// build must see only the source tree, the pinned generator source, and
// the Dockerfile.
type PrepareContextStep struct{}

func (s *PrepareContextStep) Name() string { return "prepare-context" }

func (s *PrepareContextStep) Run(_ context.Context, a *Assembly) error {
	if stat, err := os.Stat(a.SourceRoot); err != nil || !stat.IsDir() {
		return fmt.Errorf("source tree not found: %s", a.SourceRoot)
	}

	contextDir := a.Config.ContextDir
	if contextDir == "" {
		dir, err := os.MkdirTemp("", "sitedeploy-context-")
		if err != nil {
			return fmt.Errorf("create context directory: %w", err)
		}
		contextDir = dir
	} else {
		if err := os.RemoveAll(contextDir); err != nil {
			return fmt.Errorf("clear context directory: %w", err)
		}
		if err := os.MkdirAll(contextDir, 0o755); err != nil {
			return fmt.Errorf("create context directory: %w", err)
		}
	}

	siteDir := filepath.Join(contextDir, "site")
	// A stale output tree must not leak into the image; the generator
	// rebuilds it inside stage 2.
	if err := copyTree(a.SourceRoot, siteDir, a.OutputDir); err != nil {
		return fmt.Errorf("stage source tree: %w", err)
	}

	a.ContextDir = contextDir
	return nil
}

// copyTree recursively copies src into dst, skipping the named top-level
// entry (the generator's output directory).
func copyTree(src, dst, skipTopLevel string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if skipTopLevel != "" && entry.Name() == skipTopLevel {
			continue
		}
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := copyTree(srcPath, dstPath, ""); err != nil {
				return err
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = dstFile.Close()
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, srcInfo.Mode())
}
