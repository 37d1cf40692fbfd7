// Package vcs clones repositories and records commits, either through the git
// binary or in-process with go-git.
package vcs

import (
	"context"
	"fmt"
	"time"

	"github.com/sameehj/dataworks/pkg/exec"
)

const (
	BackendCLI    = "cli"
	BackendNative = "native"
)

// Client is the version-control surface the git task needs.
type Client interface {
	// Clone copies url into dir, which must not exist yet.
	Clone(ctx context.Context, url, dir string) error
	// Commit stages files (relative to dir) and commits them, returning the
	// new commit hash. Commits are recorded even when nothing changed.
	Commit(ctx context.Context, dir string, files []string, message string) (string, error)
}

// Author identifies who automated commits are attributed to.
type Author struct {
	Name  string
	Email string
}

type Options struct {
	Backend string
	Author  Author
	// Depth limits clone history; 0 clones everything.
	Depth   int
	Timeout time.Duration
}

// New builds the client for opts.Backend.
func New(opts Options, executor *exec.SafeExecutor) (Client, error) {
	if opts.Author.Name == "" {
		opts.Author.Name = "DataWorks"
	}
	if opts.Author.Email == "" {
		opts.Author.Email = "dataworks@example.com"
	}
	switch opts.Backend {
	case "", BackendCLI:
		if executor == nil {
			executor = &exec.SafeExecutor{Timeout: opts.Timeout}
		}
		return NewCLI(executor, opts.Author, opts.Depth), nil
	case BackendNative:
		return NewNative(opts.Author, opts.Depth), nil
	default:
		return nil, fmt.Errorf("unknown vcs backend %q", opts.Backend)
	}
}
