package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicReplacesOnSuccess(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out", "order.xlsx")

	err := WriteFileAtomic(dst, func(w io.Writer) error {
		_, err := io.WriteString(w, "payload")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	assertNoTempFiles(t, filepath.Dir(dst))
}

func TestWriteFileAtomicLeavesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "order.xlsx")
	boom := errors.New("boom")

	err := WriteFileAtomic(dst, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, FileExists(dst))
	assertNoTempFiles(t, dir)
}

func TestCopyFileAtomic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "template.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("zip bytes"), 0o644))

	dst := filepath.Join(dir, "copy.xlsx")
	require.NoError(t, CopyFileAtomic(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "zip bytes", string(data))
}

func TestGenerateOutputFileName(t *testing.T) {
	name := GenerateOutputFileName("{supplier}_order_{date}", map[string]string{"supplier": "acme/east"}, "")
	assert.True(t, strings.HasPrefix(name, "acme_east_order_"))
	assert.Equal(t, ".xlsx", filepath.Ext(name))

	assert.Equal(t, "fixed.xlsm", GenerateOutputFileName("fixed.xlsm", nil, ".xlsm"))
	assert.Equal(t, "fixed.XLSX", GenerateOutputFileName("fixed.XLSX", nil, ".xlsx"))
}

func TestArchiveInputFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "warehouse.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	fm := NewFileManager(filepath.Join(dir, "out"), filepath.Join(dir, "archive"))
	fm.UseTimestampSubdirs = true
	fm.now = func() time.Time { return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) }
	require.NoError(t, fm.EnsureDirectories())

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "archive", "2024", "01", "15", "warehouse.xlsx"), archived)
	assert.False(t, FileExists(src))
	assert.True(t, FileExists(archived))
}

func TestArchiveDisabled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "warehouse.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	fm := NewFileManager(dir, filepath.Join(dir, "archive"))
	fm.ArchiveOnSuccess = false

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, src, archived)
	assert.True(t, FileExists(src))
}

func TestCleanOldArchives(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.xlsx")
	fresh := filepath.Join(dir, "fresh.xlsx")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	fm := NewFileManager("", dir)
	removed, err := fm.CleanOldArchives(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, FileExists(old))
	assert.True(t, FileExists(fresh))
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteReport([]string{"line one", "line two"}, dir, "order.xlsx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "order_report.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "line one\nline two\n")

	path, err = WriteReport(nil, dir, "order.xlsx")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), e.Name())
	}
}
