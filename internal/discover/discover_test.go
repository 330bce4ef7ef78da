package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestExpandDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "widget.hpp", "class Widget {};")
	writeFile(t, dir, "detail/impl.h", "struct Impl {};")
	writeFile(t, dir, "widget.cpp", "int main() {}")
	writeFile(t, dir, ".hidden.hpp", "class Secret {};")
	writeFile(t, dir, "build/generated.hpp", "class Gen {};")
	writeFile(t, dir, ".git/HEAD.h", "")

	got, err := Expand([]string{dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "detail", "impl.h"),
		filepath.Join(dir, "widget.hpp"),
	}, got)
}

func TestExpandGlob(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "simple_classes_1_2.hpp", "")
	writeFile(t, dir, "simple_classes_3.hpp", "")
	writeFile(t, dir, "other.hpp", "")

	got, err := Expand([]string{
		filepath.Join(dir, "simple_classes_*.hpp"),
		filepath.Join(dir, "simple_classes_3.hpp"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "simple_classes_1_2.hpp"),
		filepath.Join(dir, "simple_classes_3.hpp"),
	}, got, "duplicates are removed")
}

func TestExpandDoubleStar(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "include/a.hpp", "")
	writeFile(t, dir, "include/deep/nested/b.hpp", "")
	writeFile(t, dir, "include/deep/c.h", "")
	writeFile(t, dir, "include/deep/notes.txt", "")
	writeFile(t, dir, "src/d.hpp", "")

	got, err := Expand([]string{filepath.Join(dir, "include", "**", "*.hpp")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "include", "a.hpp"),
		filepath.Join(dir, "include", "deep", "nested", "b.hpp"),
	}, got)
}

func TestExpandExcludes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "api/public.hpp", "")
	writeFile(t, dir, "api/internal/private.hpp", "")
	writeFile(t, dir, "api/legacy_old.hpp", "")

	got, err := Expand([]string{dir}, []string{"internal/", "*_old.hpp"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "api", "public.hpp")}, got)
}

func TestExpandHonoursGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "vendor/\n")
	writeFile(t, dir, "main.hpp", "")
	writeFile(t, dir, "vendor/lib.hpp", "")

	got, err := Headers(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "main.hpp")}, got)
}

func TestExpandSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.hpp", "")

	err := os.Symlink(filepath.Join(dir, "real.hpp"), filepath.Join(dir, "link.hpp"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	got, err := Headers(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "real.hpp")}, got)
}

func TestExpandNoInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Expand([]string{filepath.Join(dir, "*.hpp")}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoInputs))

	_, err = Expand(nil, nil)
	assert.True(t, errors.Is(err, ErrNoInputs))
}

func TestExpandBadPattern(t *testing.T) {
	t.Parallel()

	_, err := Expand([]string{"[unclosed"}, nil)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoInputs))
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
