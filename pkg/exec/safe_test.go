package exec

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX utilities")
	}
}

func TestSafeExecutorAllowlist(t *testing.T) {
	exec := &SafeExecutor{Allowlist: []string{"git"}}
	_, err := exec.Run(context.Background(), "", "rm", "-rf", "/tmp/nothing")
	if err == nil {
		t.Fatalf("expected allowlist error")
	}
	if !strings.Contains(err.Error(), "not allowed") {
		t.Fatalf("expected not allowed error, got %v", err)
	}
}

func TestSafeExecutorMissingTool(t *testing.T) {
	exec := &SafeExecutor{}
	_, err := exec.Run(context.Background(), "", "definitely-not-a-real-binary-4711")
	if !errors.Is(err, ErrToolUnavailable) {
		t.Fatalf("expected ErrToolUnavailable, got %v", err)
	}
	if exec.Available("definitely-not-a-real-binary-4711") {
		t.Fatalf("expected tool to be unavailable")
	}
}

func TestSafeExecutorTimeout(t *testing.T) {
	requireUnix(t)
	exec := &SafeExecutor{Timeout: 50 * time.Millisecond}
	start := time.Now()
	_, err := exec.Run(context.Background(), "", "sleep", "1")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout did not trigger quickly")
	}
}

func TestSafeExecutorOutputTruncation(t *testing.T) {
	requireUnix(t)
	exec := &SafeExecutor{MaxOutput: 10}
	res, err := exec.Run(context.Background(), "", "printf", "123456789012345")
	if err == nil {
		t.Fatalf("expected truncation error")
	}
	var truncated OutputTruncatedError
	if !errors.As(err, &truncated) {
		t.Fatalf("expected OutputTruncatedError, got %T", err)
	}
	if len(res.Stdout) != 10 {
		t.Fatalf("expected truncated stdout length 10, got %d", len(res.Stdout))
	}
}

func TestSafeExecutorExitCode(t *testing.T) {
	requireUnix(t)
	exec := &SafeExecutor{Timeout: 2 * time.Second}
	res, err := exec.Run(context.Background(), "", "sh", "-c", "echo oops >&2; exit 3")
	if err == nil {
		t.Fatalf("expected exit error")
	}
	if res == nil || res.Code != 3 {
		t.Fatalf("expected exit code 3, got %+v", res)
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestSafeExecutorErrorNamesSubcommand(t *testing.T) {
	requireUnix(t)
	exec := &SafeExecutor{Timeout: 2 * time.Second}
	_, err := exec.Run(context.Background(), "", "sh", "-c", "exit 1", "dummy")
	if err == nil {
		t.Fatalf("expected exit error")
	}
	if !strings.HasPrefix(err.Error(), "sh dummy: exit status 1") {
		t.Fatalf("expected subcommand in error, got %v", err)
	}
}

func TestSubcommand(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"-C", "/repo", "-c", "user.name=x", "commit", "-m", "msg"}, "commit"},
		{[]string{"clone", "--quiet", "--", "url", "dir"}, "clone"},
		{[]string{"--quiet", "status"}, "status"},
		{[]string{"-c", "exit 3"}, "-c"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := subcommand(tc.args); got != tc.want {
			t.Fatalf("subcommand(%q) = %q, want %q", tc.args, got, tc.want)
		}
	}
}

func TestSafeExecutorSuccess(t *testing.T) {
	requireUnix(t)
	exec := &SafeExecutor{Timeout: 2 * time.Second}
	dir := t.TempDir()
	res, err := exec.Run(context.Background(), dir, "pwd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(strings.TrimSpace(res.Stdout)) != filepath.Base(dir) {
		t.Fatalf("expected command to run in %s, got %q", dir, res.Stdout)
	}
}
