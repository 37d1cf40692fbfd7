package sandbox

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIO(t *testing.T) (*IO, string) {
	t.Helper()
	guard, base := newTestGuard(t)
	return NewIO(guard), base
}

func TestIOWriteCreatesParents(t *testing.T) {
	box, _ := newTestIO(t)

	require.NoError(t, box.Write("reports/2024/q1/summary.txt", "hello"))

	got, err := box.Read("reports/2024/q1/summary.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestIOWriteOverwrites(t *testing.T) {
	box, _ := newTestIO(t)

	require.NoError(t, box.Write("out.txt", "a much longer first version"))
	require.NoError(t, box.Write("out.txt", "short"))

	got, err := box.Read("out.txt")
	require.NoError(t, err)
	assert.Equal(t, "short", got)

	entries, err := box.List(".")
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "out.txt", entries[0].Name())
}

func TestIOWriteCreatesMissingRoot(t *testing.T) {
	base := t.TempDir()
	guard, err := NewGuard(filepath.Join(base, "fresh", "data"))
	require.NoError(t, err)
	box := NewIO(guard)

	require.NoError(t, box.Write("file.txt", "x"))
	_, err = os.Stat(filepath.Join(base, "fresh", "data", "file.txt"))
	require.NoError(t, err)
}

func TestIODeniesOutsideAccess(t *testing.T) {
	box, base := newTestIO(t)
	outside := filepath.Join(base, "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("top secret"), 0o644))

	_, err := box.Read("../outside.txt")
	assert.ErrorIs(t, err, ErrAccessDenied)

	err = box.Write("../outside.txt", "overwritten")
	assert.ErrorIs(t, err, ErrAccessDenied)

	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "top secret", string(data))

	err = box.Write("../../escape/new.txt", "x")
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = os.Stat(filepath.Join(filepath.Dir(base), "escape"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "no directories may be created outside")
}

func TestIODeniesWriteThroughSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	box, base := newTestIO(t)
	target := filepath.Join(base, "target.txt")
	require.NoError(t, os.Symlink(target, filepath.Join(box.Guard().Root(), "trap.txt")))

	err := box.Write("trap.txt", "payload")
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = os.Stat(target)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestIOReadMissing(t *testing.T) {
	box, _ := newTestIO(t)

	_, err := box.Read("nope.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.MkdirAll(filepath.Join(box.Guard().Root(), "dir"), 0o755))
	_, err = box.Read("dir")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIOExistsAndPath(t *testing.T) {
	box, _ := newTestIO(t)
	require.NoError(t, box.Write("db/file.db", "x"))

	assert.True(t, box.Exists("db/file.db"))
	assert.False(t, box.Exists("db/other.db"))
	assert.True(t, box.Exists("../data"), "the root itself is inside the sandbox")
	require.NoError(t, os.MkdirAll(filepath.Join(filepath.Dir(box.Guard().Root()), "data_evil"), 0o755))
	assert.False(t, box.Exists("../data_evil"))
	assert.False(t, box.Exists("../outside"))

	p, err := box.Path("db/file.db")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p))

	_, err = box.Path("../escape.db")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestIOListMissingDir(t *testing.T) {
	box, _ := newTestIO(t)
	entries, err := box.List("missing")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
