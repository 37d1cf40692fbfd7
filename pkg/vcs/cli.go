package vcs

import (
	"context"
	"strconv"
	"strings"

	"github.com/sameehj/dataworks/pkg/exec"
)

const gitBinary = "git"

// CLI drives the git binary.
type CLI struct {
	executor *exec.SafeExecutor
	author   Author
	depth    int
}

func NewCLI(executor *exec.SafeExecutor, author Author, depth int) *CLI {
	return &CLI{executor: executor, author: author, depth: depth}
}

func (c *CLI) Clone(ctx context.Context, url, dir string) error {
	args := []string{"clone", "--quiet"}
	if c.depth > 0 {
		args = append(args, "--depth", strconv.Itoa(c.depth))
	}
	args = append(args, "--", url, dir)
	_, err := c.executor.Run(ctx, "", gitBinary, args...)
	return err
}

func (c *CLI) Commit(ctx context.Context, dir string, files []string, message string) (string, error) {
	add := append([]string{"-C", dir, "add", "--"}, files...)
	if _, err := c.executor.Run(ctx, "", gitBinary, add...); err != nil {
		return "", err
	}

	commit := []string{
		"-C", dir,
		"-c", "user.name=" + c.author.Name,
		"-c", "user.email=" + c.author.Email,
		"-c", "commit.gpgsign=false",
		"commit", "--quiet", "--allow-empty", "-m", message,
	}
	if _, err := c.executor.Run(ctx, "", gitBinary, commit...); err != nil {
		return "", err
	}

	res, err := c.executor.Run(ctx, "", gitBinary, "-C", dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}
