package handlers

import (
	"context"
	"errors"
	"log/slog"
	"path"

	"github.com/sameehj/dataworks/pkg/config"
	"github.com/sameehj/dataworks/pkg/exec"
	"github.com/sameehj/dataworks/pkg/sandbox"
	"github.com/sameehj/dataworks/pkg/task"
	"github.com/sameehj/dataworks/pkg/vcs"
)

// GitCommit clones the configured repository once, then records a marker
// file commit on every run. Two concurrent runs against a missing clone race
// on the clone; callers serialize.
type GitCommit struct {
	client vcs.Client
	cfg    config.GitTask
	logger *slog.Logger
}

func NewGitCommit(client vcs.Client, cfg config.GitTask) *GitCommit {
	return &GitCommit{client: client, cfg: cfg}
}

func (g *GitCommit) SetLogger(logger *slog.Logger) {
	g.logger = logger
}

func (g *GitCommit) ID() task.HandlerID { return task.GitCommit }

func (g *GitCommit) Description() string {
	return "Clone " + g.cfg.RepoURL + " into " + g.cfg.Dir + " and commit " + g.cfg.MarkerFile
}

func (g *GitCommit) Execute(ctx context.Context, box *sandbox.IO) (task.Result, error) {
	dir, err := box.Path(g.cfg.Dir)
	if err != nil {
		return task.Result{}, task.FromSandbox(err, task.KindExternalTool, "Git operation failed")
	}

	if !box.Exists(g.cfg.Dir) {
		if err := box.Ensure(); err != nil {
			return task.Result{}, task.FromSandbox(err, task.KindInternal, "Git operation failed")
		}
		if err := g.client.Clone(ctx, g.cfg.RepoURL, dir); err != nil {
			return task.Result{}, gitError("Failed to clone repository", err)
		}
		g.logInfo("git_cloned", "url", g.cfg.RepoURL, "dir", g.cfg.Dir)
	}

	marker := path.Join(g.cfg.Dir, g.cfg.MarkerFile)
	if err := box.Write(marker, g.cfg.MarkerContent); err != nil {
		return task.Result{}, task.FromSandbox(err, task.KindInternal, "Failed to write marker file")
	}

	hash, err := g.client.Commit(ctx, dir, []string{g.cfg.MarkerFile}, g.cfg.Message)
	if err != nil {
		return task.Result{}, gitError("Failed to commit changes", err)
	}
	g.logInfo("git_committed", "dir", g.cfg.Dir, "commit", hash)
	return task.Succeeded("Git repo cloned and committed"), nil
}

func gitError(msg string, err error) *task.Error {
	if errors.Is(err, exec.ErrToolUnavailable) {
		return task.ExternalTool("Git is not available", err)
	}
	return task.ExternalTool(msg, err)
}

func (g *GitCommit) logInfo(msg string, args ...any) {
	if g.logger != nil {
		g.logger.Info(msg, args...)
	}
}
