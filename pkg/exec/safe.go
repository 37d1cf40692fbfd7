package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrToolUnavailable is returned when the requested binary is not on PATH.
var ErrToolUnavailable = errors.New("tool not available")

// OutputTruncatedError reports that stdout or stderr exceeded MaxOutput.
type OutputTruncatedError struct {
	Limit int
}

func (e OutputTruncatedError) Error() string {
	return fmt.Sprintf("output truncated at %d bytes", e.Limit)
}

type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// SafeExecutor runs a single binary with bounded time and output. Commands
// are never routed through a shell.
type SafeExecutor struct {
	Timeout   time.Duration
	MaxOutput int
	// Allowlist, when non-empty, restricts which binaries may run.
	Allowlist []string
	Env       []string
}

// Available reports whether name can be found on PATH.
func (e *SafeExecutor) Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes name with args in dir. A non-zero exit status is reported in
// Result.Code together with an error.
func (e *SafeExecutor) Run(ctx context.Context, dir, name string, args ...string) (*Result, error) {
	if name == "" {
		return nil, errors.New("command is required")
	}
	if !e.isAllowed(name) {
		return nil, fmt.Errorf("command not allowed: %s", name)
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrToolUnavailable)
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	command := exec.CommandContext(ctx, path, args...)
	command.Dir = dir
	if len(e.Env) > 0 {
		command.Env = append(command.Environ(), e.Env...)
	}

	stdoutBuf := &limitedBuffer{limit: e.MaxOutput}
	stderrBuf := &limitedBuffer{limit: e.MaxOutput}
	command.Stdout = stdoutBuf
	command.Stderr = stderrBuf

	err = command.Run()
	res := &Result{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%s %s: %w", name, subcommand(args), ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.Code = exitErr.ExitCode()
			return res, fmt.Errorf("%s %s: exit status %d: %s", name, subcommand(args), res.Code, strings.TrimSpace(res.Stderr))
		}
		return nil, err
	}

	if stdoutBuf.truncated || stderrBuf.truncated {
		return res, OutputTruncatedError{Limit: e.MaxOutput}
	}
	return res, nil
}

func (e *SafeExecutor) isAllowed(cmd string) bool {
	if len(e.Allowlist) == 0 {
		return true
	}
	base := filepath.Base(cmd)
	for _, allowed := range e.Allowlist {
		if strings.EqualFold(allowed, cmd) || strings.EqualFold(allowed, base) {
			return true
		}
	}
	return false
}

// subcommand returns the first non-flag argument, skipping the value of a
// short option such as "-C dir". It falls back to the first argument.
func subcommand(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			return arg
		}
		if len(arg) == 2 && arg != "--" {
			i++
		}
	}
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if l.limit <= 0 {
		return l.buf.Write(p)
	}
	remaining := l.limit - l.buf.Len()
	if remaining <= 0 {
		l.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		l.truncated = true
		_, _ = l.buf.Write(p[:remaining])
		return len(p), nil
	}
	return l.buf.Write(p)
}

func (l *limitedBuffer) String() string {
	return l.buf.String()
}

var _ io.Writer = (*limitedBuffer)(nil)
