// =============================================================================
// Order Reconciler - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the reconciler:
//   - Directory management
//   - Atomic file creation (temp file + rename)
//   - Input archival (moving processed source files)
//   - Output and report naming
//
// ATOMIC WRITES:
//   Every file the reconciler produces is first written to a temporary file
//   in the destination directory, synced, and then renamed over the final
//   name. A failed run never leaves a half-written workbook behind.
//
// ARCHIVAL STRATEGY:
//   - Source files are moved to input_archive after a successful run
//   - Templates are never moved
//   - Failed runs leave every input in place
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the reconciler.
type FileManager struct {
	// OutputDir is the directory where generated orders are placed.
	OutputDir string

	// InputArchiveDir is the directory for archived source workbooks.
	InputArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: input_archive/2024/01/15/warehouse.xlsx
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether ArchiveInputFile moves anything.
	ArchiveOnSuccess bool

	// now is replaced in tests.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		OutputDir:        outputDir,
		InputArchiveDir:  inputArchiveDir,
		ArchiveOnSuccess: true,
		now:              time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
// Empty entries are ignored.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.InputArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a source file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess || fm.InputArchiveDir == "" {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device moves fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file.
func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := fm.clock()
		return filepath.Join(
			fm.InputArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
			fileName,
		)
	}

	return filepath.Join(fm.InputArchiveDir, fileName)
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// CleanOldArchives removes archived files older than maxAge and returns how
// many were removed. A zero maxAge keeps everything.
func (fm *FileManager) CleanOldArchives(maxAge time.Duration) (int, error) {
	if maxAge <= 0 || fm.InputArchiveDir == "" {
		return 0, nil
	}
	cutoff := fm.clock().Add(-maxAge)
	removed := 0

	err := filepath.Walk(fm.InputArchiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}
	return removed, nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName generates an output workbook name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {supplier}  - Supplier name, when given in params
//               {original}  - Template name without extension, when given
//   - params: A map of placeholder values.
//   - ext: The extension to enforce (".xlsx" when empty).
//
// EXAMPLE:
//   format: "{supplier}_order_{timestamp}"
//   params: {"supplier": "acme"}
//   output: "acme_order_20240115_143022.xlsx"
func GenerateOutputFileName(format string, params map[string]string, ext string) string {
	now := time.Now()
	if ext == "" {
		ext = ".xlsx"
	}

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = sanitizeFileName(value)
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.EqualFold(filepath.Ext(result), ext) {
		result += ext
	}
	return result
}

// sanitizeFileName drops path separators from placeholder values.
func sanitizeFileName(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(strings.TrimSpace(s))
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic creates dst by streaming write into a temporary file in the
// same directory and renaming it into place once write succeeds. On any
// error the temporary file is removed and dst is left untouched.
func WriteFileAtomic(dst string, write func(w io.Writer) error) (err error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// CopyFileAtomic copies src to dst through WriteFileAtomic.
func CopyFileAtomic(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	return WriteFileAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, source)
		return err
	})
}

// =============================================================================
// RUN REPORTS
// =============================================================================

// WriteReport writes a troubleshooting report next to the generated order.
//
// RETURNS:
//   - The path to the report file.
//   - An error if writing fails.
func WriteReport(lines []string, outputDir, baseName string) (string, error) {
	if len(lines) == 0 {
		return "", nil
	}
	name := strings.TrimSuffix(baseName, filepath.Ext(baseName)) + "_report.txt"
	reportPath := filepath.Join(outputDir, name)

	err := WriteFileAtomic(reportPath, func(w io.Writer) error {
		buf := bufio.NewWriter(w)
		fmt.Fprintf(buf, "Order Reconciler - Run Report\nGenerated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
		buf.WriteString("================================================================================\n\n")
		for _, line := range lines {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
		return buf.Flush()
	})
	if err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return reportPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
