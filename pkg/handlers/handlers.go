// Package handlers implements the task types the dispatcher can run.
package handlers

import (
	"fmt"
	"log/slog"

	"github.com/sameehj/dataworks/pkg/config"
	"github.com/sameehj/dataworks/pkg/exec"
	"github.com/sameehj/dataworks/pkg/fetch"
	"github.com/sameehj/dataworks/pkg/imaging"
	"github.com/sameehj/dataworks/pkg/markup"
	"github.com/sameehj/dataworks/pkg/query"
	"github.com/sameehj/dataworks/pkg/task"
	"github.com/sameehj/dataworks/pkg/vcs"
)

// Deps are the collaborators handlers talk to. Nil fields are built from the
// config.
type Deps struct {
	Getter   fetch.Getter
	VCS      vcs.Client
	Query    query.Engine
	Codec    imaging.Codec
	Renderer markup.Renderer
	Logger   *slog.Logger
}

// Set is the full handler set together with the markdown converter the
// watcher reuses.
type Set struct {
	Handlers []task.Handler
	Markdown *ConvertMarkdown
}

// Registry returns a task registry holding every handler.
func (s *Set) Registry() *task.Registry {
	return task.NewRegistry(s.Handlers...)
}

func New(cfg *config.Config, deps Deps) (*Set, error) {
	if deps.Getter == nil {
		deps.Getter = fetch.NewClient(fetch.Options{
			Timeout:      cfg.HTTPTimeout(),
			MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
			UserAgent:    cfg.HTTP.UserAgent,
		})
	}
	if deps.VCS == nil {
		executor := &exec.SafeExecutor{
			Timeout:   cfg.ExecTimeout(),
			MaxOutput: cfg.Exec.MaxOutput,
			Allowlist: []string{"git"},
		}
		client, err := vcs.New(vcs.Options{
			Backend: cfg.Tasks.Git.Backend,
			Author:  vcs.Author{Name: cfg.Tasks.Git.AuthorName, Email: cfg.Tasks.Git.AuthorEmail},
			Depth:   cfg.Tasks.Git.Depth,
			Timeout: cfg.ExecTimeout(),
		}, executor)
		if err != nil {
			return nil, fmt.Errorf("build vcs client: %w", err)
		}
		deps.VCS = client
	}
	if deps.Query == nil {
		deps.Query = query.NewSQLite()
	}
	if deps.Codec == nil {
		deps.Codec = imaging.NewPNG(cfg.Tasks.Image.MaxDimension)
	}
	if deps.Renderer == nil {
		deps.Renderer = markup.NewMarkdown(cfg.Tasks.Markdown.GFM)
	}

	md, err := NewConvertMarkdown(deps.Renderer, cfg.Tasks.Markdown.Patterns)
	if err != nil {
		return nil, err
	}
	git := NewGitCommit(deps.VCS, cfg.Tasks.Git)
	git.SetLogger(deps.Logger)

	return &Set{
		Handlers: []task.Handler{
			NewFetchAPI(deps.Getter, cfg.Tasks.Fetch),
			git,
			NewSQLQuery(deps.Query, cfg.Tasks.SQL),
			NewScrapeSite(deps.Getter, cfg.Tasks.Scrape),
			NewCompressImage(deps.Codec, cfg.Tasks.Image),
			NewTranscribeAudio(cfg.Tasks.Transcribe),
			md,
			NewFilterCSV(cfg.Tasks.CSV),
		},
		Markdown: md,
	}, nil
}
