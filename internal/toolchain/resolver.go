// Package toolchain locates the external generator executable on the
// current system. Resolution tries an ordered list of candidate names and
// stops at the first usable hit; exhausting the list is a fatal
// environment error, reported before any build side effect.
package toolchain

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	sderrors "git.home.luguber.info/inful/sitedeploy/internal/errors"
)

// Executable is a resolved generator binary. Resolved once per run; never
// persisted.
type Executable struct {
	Name string // candidate name that matched
	Path string // absolute path returned by the PATH lookup
}

// Resolver performs PATH-based executable resolution. The lookup function
// is injectable for tests.
type Resolver struct {
	lookPath func(name string) (string, error)
}

// NewResolver creates a resolver using the system PATH lookup.
func NewResolver() *Resolver {
	return &Resolver{lookPath: exec.LookPath}
}

// WithLookPath injects a custom lookup function (fluent helper for tests).
func (r *Resolver) WithLookPath(fn func(string) (string, error)) *Resolver {
	if fn != nil {
		r.lookPath = fn
	}
	return r
}

// Resolve tries each candidate name in order and returns the first usable
// executable. If no candidate resolves, it returns a fatal environment
// error: the pipeline must abort before BUILD is attempted.
func (r *Resolver) Resolve(candidates []string) (Executable, error) {
	if len(candidates) == 0 {
		return Executable{}, sderrors.NewEnvironmentError("no generator candidates configured", nil)
	}
	for _, name := range candidates {
		path, err := r.lookPath(name)
		if err != nil {
			slog.Debug("Generator candidate not found", "candidate", name, "error", err)
			continue
		}
		slog.Debug("Generator resolved", "candidate", name, "path", path)
		return Executable{Name: name, Path: path}, nil
	}
	return Executable{}, sderrors.NewEnvironmentError(
		fmt.Sprintf("no usable generator executable found (tried %s)", strings.Join(candidates, ", ")), nil)
}
