package discovery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDiscoverDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.ldif"), "dn: cn=b\n")
	writeFile(t, filepath.Join(dir, "a.ldif"), "dn: cn=a\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "not ldif\n")

	files, err := Discover(Options{DirectoryPath: dir}, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, files, 2)
	// Lexical order, non-matching extension excluded.
	assert.Equal(t, filepath.Join(dir, "a.ldif"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.ldif"), files[1])
}

func TestDiscoverExplicitFileFirst(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "explicit.data")
	writeFile(t, explicit, "dn: cn=x\n")
	writeFile(t, filepath.Join(dir, "a.ldif"), "dn: cn=a\n")

	files, err := Discover(Options{FilePath: explicit, DirectoryPath: dir}, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, explicit, files[0])
}

func TestDiscoverRecursivePattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "top.ldif"), "dn: cn=t\n")
	writeFile(t, filepath.Join(dir, "nested", "deep.ldif"), "dn: cn=d\n")

	files, err := Discover(Options{DirectoryPath: dir, FilePattern: "**/*.ldif"}, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.True(t, strings.HasSuffix(files[0], filepath.Join("nested", "deep.ldif")))
	assert.True(t, strings.HasSuffix(files[1], "top.ldif"))
}

func TestDiscoverExplicitFileNotDuplicated(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "a.ldif")
	writeFile(t, explicit, "dn: cn=a\n")
	writeFile(t, filepath.Join(dir, "b.ldif"), "dn: cn=b\n")

	files, err := Discover(Options{FilePath: explicit, DirectoryPath: dir}, zerolog.Nop())
	require.NoError(t, err)

	// a.ldif matches the glob too but is listed once, in the explicit slot.
	require.Len(t, files, 2)
	assert.Equal(t, explicit, files[0])
	assert.Equal(t, filepath.Join(dir, "b.ldif"), files[1])
}

func TestDiscoverSizeCap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "small.ldif"), "dn: cn=s\n")
	writeFile(t, filepath.Join(dir, "huge.ldif"), strings.Repeat("x", 256))

	files, err := Discover(Options{DirectoryPath: dir, MaxFileSize: 128}, zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "small.ldif"), files[0])
}

func TestDiscoverSizeCapAppliesToExplicitFile(t *testing.T) {
	dir := t.TempDir()
	huge := filepath.Join(dir, "huge.ldif")
	writeFile(t, huge, strings.Repeat("x", 256))

	files, err := Discover(Options{FilePath: huge, MaxFileSize: 128}, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Discover(Options{FilePath: filepath.Join(dir, "missing.ldif")}, zerolog.Nop())
	assert.Error(t, err)

	_, err = Discover(Options{DirectoryPath: filepath.Join(dir, "missing")}, zerolog.Nop())
	assert.Error(t, err)

	// A directory given as file_path is rejected.
	_, err = Discover(Options{FilePath: dir}, zerolog.Nop())
	assert.Error(t, err)

	// A file given as directory_path is rejected.
	file := filepath.Join(dir, "plain.ldif")
	writeFile(t, file, "dn: cn=x\n")
	_, err = Discover(Options{DirectoryPath: file}, zerolog.Nop())
	assert.Error(t, err)
}

func TestDiscoverEmptyDirectory(t *testing.T) {
	files, err := Discover(Options{DirectoryPath: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, files)
}
