package commands

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/sitedeploy/internal/image"
)

// cleanupContext removes the assembly's build context directory.
func cleanupContext(a *image.Assembly) {
	if a.ContextDir == "" {
		return
	}
	if err := os.RemoveAll(a.ContextDir); err != nil {
		slog.Warn("Failed to remove build context", "path", a.ContextDir, "error", err)
	}
}
