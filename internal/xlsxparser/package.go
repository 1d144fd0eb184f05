package xlsxparser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/xlsx-order-reconciler/internal/types"
)

// =============================================================================
// OOXML PACKAGE INSPECTION
// =============================================================================
//
// An .xlsx file is a zip archive. The sheet order shown to the user comes from
// xl/workbook.xml; each <sheet> points through a relationship id into
// xl/_rels/workbook.xml.rels, whose Target names the worksheet part.

const (
	workbookPart     = "xl/workbook.xml"
	workbookRelsPart = "xl/_rels/workbook.xml.rels"
)

// SupportedExtensions lists the file extensions accepted as input.
var SupportedExtensions = []string{".xlsx", ".xlsm"}

// SheetPart links a sheet name to its worksheet XML part inside the archive.
type SheetPart struct {
	Name string
	Path string
}

// CheckPackage verifies that path names a readable OOXML spreadsheet package.
// It returns an ErrUnsupportedFormat error for a wrong extension, a file that
// is not a zip archive or an archive without a workbook part, and ErrIO when
// the file cannot be read at all.
func CheckPackage(filePath string) error {
	if !hasSupportedExtension(filePath) {
		return types.UnsupportedFormat("check package", filePath,
			fmt.Errorf("extension %q is not one of %s", filepath.Ext(filePath), strings.Join(SupportedExtensions, ", ")))
	}

	zr, err := zip.OpenReader(filePath)
	if err != nil {
		if isNotZip(err) {
			return types.UnsupportedFormat("check package", filePath, err)
		}
		return types.IOError("check package", filePath, err)
	}
	defer zr.Close()

	if findPart(&zr.Reader, workbookPart) == nil {
		return types.UnsupportedFormat("check package", filePath, fmt.Errorf("%s not found", workbookPart))
	}
	return nil
}

// SheetParts lists the sheets of an opened package in workbook order.
func SheetParts(zr *zip.Reader) ([]SheetPart, error) {
	workbook, err := ReadPart(zr, workbookPart)
	if err != nil {
		return nil, err
	}
	relsData, err := ReadPart(zr, workbookRelsPart)
	if err != nil {
		return nil, err
	}

	sheets, err := parseWorkbookSheets(workbook)
	if err != nil {
		return nil, err
	}
	targets, err := parseRelationships(relsData)
	if err != nil {
		return nil, err
	}

	parts := make([]SheetPart, 0, len(sheets))
	for _, s := range sheets {
		target, ok := targets[s.relID]
		if !ok {
			return nil, fmt.Errorf("sheet %q: relationship %q not found", s.name, s.relID)
		}
		parts = append(parts, SheetPart{Name: s.name, Path: resolveTarget(target)})
	}
	return parts, nil
}

// ReadPart returns the uncompressed content of a named part.
func ReadPart(zr *zip.Reader, name string) ([]byte, error) {
	f := findPart(zr, name)
	if f == nil {
		return nil, fmt.Errorf("part %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %q: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read part %q: %w", name, err)
	}
	return data, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type workbookSheet struct {
	name  string
	relID string
}

func parseWorkbookSheets(data []byte) ([]workbookSheet, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var sheets []workbookSheet

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse workbook: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "sheet" {
			continue
		}

		var s workbookSheet
		for _, attr := range start.Attr {
			switch {
			case attr.Name.Local == "name":
				s.name = attr.Value
			case attr.Name.Local == "id" && attr.Name.Space != "":
				s.relID = attr.Value
			}
		}
		if s.name != "" && s.relID != "" {
			sheets = append(sheets, s)
		}
	}

	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in workbook")
	}
	return sheets, nil
}

func parseRelationships(data []byte) (map[string]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	targets := make(map[string]string)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse workbook relationships: %w", err)
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "Relationship" {
			continue
		}

		var id, target string
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "Id":
				id = attr.Value
			case "Target":
				target = attr.Value
			}
		}
		if id != "" && target != "" {
			targets[id] = target
		}
	}
	return targets, nil
}

// resolveTarget turns a relationship target into an archive path. Targets are
// relative to xl/ unless they start with a slash.
func resolveTarget(target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Clean(path.Join("xl", target))
}

func findPart(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func hasSupportedExtension(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

func isNotZip(err error) bool {
	return errors.Is(err, zip.ErrFormat) || errors.Is(err, zip.ErrAlgorithm) || errors.Is(err, zip.ErrChecksum)
}
