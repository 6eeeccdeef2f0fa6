package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sderrors "git.home.luguber.info/inful/sitedeploy/internal/errors"
)

// LocalMirrorPublisher mirrors the output tree into a local destination
// directory with the same semantics as the remote transfer: copy new and
// changed files, preserve modification times, recurse, and delete files
// present at the destination but absent from the output tree. Files are
// written to a temporary name and renamed into place so a partially
// written file is never live at its final path.
type LocalMirrorPublisher struct {
	Dest string
}

// NewLocalMirrorPublisher constructs a publisher mirroring into dest.
func NewLocalMirrorPublisher(dest string) *LocalMirrorPublisher {
	return &LocalMirrorPublisher{Dest: dest}
}

// Publish mirrors outputDir into the destination directory.
func (p *LocalMirrorPublisher) Publish(ctx context.Context, outputDir string) (*Result, error) {
	if stat, err := os.Stat(outputDir); err != nil || !stat.IsDir() {
		return nil, sderrors.NewPublishFailure("output tree not found", fmt.Errorf("stat %s: %w", outputDir, err), false)
	}
	if err := os.MkdirAll(p.Dest, 0o755); err != nil {
		return nil, sderrors.NewPublishFailure("create destination directory", err, false)
	}

	start := time.Now()
	res := &Result{Destination: p.Dest}

	if err := p.copyChanged(ctx, outputDir, p.Dest, res); err != nil {
		return nil, err
	}
	if err := p.deleteExtraneous(ctx, outputDir, p.Dest, res); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	slog.Info("Local mirror completed", "destination", p.Dest, "copied", res.Copied, "deleted", res.Deleted, "duration", res.Duration)
	return res, nil
}

// copyChanged walks the source tree and copies entries that are missing or
// differ (by size or modification time) at the destination.
func (p *LocalMirrorPublisher) copyChanged(ctx context.Context, src, dst string, res *Result) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return sderrors.NewPublishFailure("walk output tree", err, false)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		srcInfo, err := d.Info()
		if err != nil {
			return err
		}
		if dstInfo, err := os.Stat(target); err == nil {
			if dstInfo.Size() == srcInfo.Size() && dstInfo.ModTime().Equal(srcInfo.ModTime()) {
				return nil // unchanged
			}
		}
		if err := copyFileAtomic(path, target, srcInfo); err != nil {
			return sderrors.NewPublishFailure("copy file to destination", err, false)
		}
		res.Copied++
		return nil
	})
}

// deleteExtraneous removes destination entries with no counterpart in the
// source tree (mirror semantics, not additive copy).
func (p *LocalMirrorPublisher) deleteExtraneous(ctx context.Context, src, dst string, res *Result) error {
	var doomed []string
	err := filepath.WalkDir(dst, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return sderrors.NewPublishFailure("walk destination tree", err, false)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(dst, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if _, err := os.Stat(filepath.Join(src, rel)); os.IsNotExist(err) {
			doomed = append(doomed, path)
			if d.IsDir() {
				return filepath.SkipDir
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, path := range doomed {
		if err := os.RemoveAll(path); err != nil {
			return sderrors.NewPublishFailure("delete extraneous file", err, false)
		}
		res.Deleted++
	}
	return nil
}

// copyFileAtomic copies src to dst via a temporary file plus rename,
// preserving mode and modification time.
func copyFileAtomic(src, dst string, srcInfo os.FileInfo) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = srcFile.Close()
	}()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".mirror-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, srcFile); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, srcInfo.Mode()); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chtimes(tmpName, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, dst)
}
