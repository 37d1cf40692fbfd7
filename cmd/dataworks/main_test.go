package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DATAWORKS_CONFIG", "")
	cfgFile, rootPath = "", ""

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommandWritesIntoRoot(t *testing.T) {
	root := t.TempDir()
	out, err := execute(t, "--root", root, "run", "Transcribe", "the", "audio")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, `"message": "Audio transcribed"`) {
		t.Fatalf("unexpected output %q", out)
	}
	data, err := os.ReadFile(filepath.Join(root, "transcription.txt"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if string(data) != "[Transcribed speech content]" {
		t.Fatalf("unexpected transcript %q", data)
	}
}

func TestRunCommandNotRecognized(t *testing.T) {
	out, err := execute(t, "--root", t.TempDir(), "run", "bake", "bread")
	if err == nil {
		t.Fatalf("expected error for unrecognized task")
	}
	if !strings.Contains(out, "Task not recognized or not implemented") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestReadCommand(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "note.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "--root", root, "read", "note.txt")
	if err != nil || out != "hello" {
		t.Fatalf("read: %q %v", out, err)
	}

	_, err = execute(t, "--root", root, "read", "../outside.txt")
	if err == nil || err.Error() != "Access denied" {
		t.Fatalf("expected access denied, got %v", err)
	}
}

func TestTasksCommand(t *testing.T) {
	out, err := execute(t, "--root", t.TempDir(), "tasks")
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 8 || !strings.HasPrefix(lines[0], "fetch_api") {
		t.Fatalf("unexpected task list %q", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil || !strings.HasPrefix(out, "dataworks ") {
		t.Fatalf("version: %q %v", out, err)
	}
}
