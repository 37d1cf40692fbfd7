package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/sameehj/dataworks/pkg/markup"
	"github.com/sameehj/dataworks/pkg/sandbox"
	"github.com/sameehj/dataworks/pkg/task"
)

// ConvertMarkdown renders every regular file directly in the sandbox root
// whose name matches one of the patterns into a sibling .html file.
type ConvertMarkdown struct {
	renderer markup.Renderer
	patterns []string
	globs    []glob.Glob
}

func NewConvertMarkdown(renderer markup.Renderer, patterns []string) (*ConvertMarkdown, error) {
	c := &ConvertMarkdown{renderer: renderer, patterns: append([]string(nil), patterns...)}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile markdown pattern %q: %w", p, err)
		}
		c.globs = append(c.globs, g)
	}
	return c, nil
}

func (c *ConvertMarkdown) ID() task.HandlerID { return task.ConvertMarkdown }

func (c *ConvertMarkdown) Description() string {
	return "Render " + strings.Join(c.patterns, ", ") + " files to HTML"
}

// Matches reports whether a file name is a conversion source.
func (c *ConvertMarkdown) Matches(name string) bool {
	if htmlName(name) == name {
		return false
	}
	for _, g := range c.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (c *ConvertMarkdown) Execute(_ context.Context, box *sandbox.IO) (task.Result, error) {
	entries, err := box.List(".")
	if err != nil {
		return task.Result{}, task.FromSandbox(err, task.KindInternal, "Failed to list markdown files")
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !c.Matches(entry.Name()) {
			continue
		}
		if err := c.Convert(box, entry.Name()); err != nil {
			return task.Result{}, err
		}
	}
	return task.Succeeded("Markdown files converted to HTML"), nil
}

// Convert renders a single sandbox file next to itself.
func (c *ConvertMarkdown) Convert(box *sandbox.IO, name string) error {
	src, err := box.ReadBytes(name)
	if err != nil {
		return task.FromSandbox(err, task.KindNotFound, "Markdown file not found")
	}
	html, err := c.renderer.Render(src)
	if err != nil {
		return task.Codec("Failed to convert markdown", err)
	}
	if err := box.WriteBytes(htmlName(name), html); err != nil {
		return task.FromSandbox(err, task.KindInternal, "Failed to save HTML")
	}
	return nil
}

func htmlName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".html"
}
