package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docworks/ocrbridge/internal/ocr"
)

// SaveResults persists one source file's pages under
// <outputRoot>/<baseName>/: markdown to <page>.md and the structured
// document to <page>.json. Each artifact is written independently; a
// page with only one representation produces only that file. Creating an
// already existing directory is not an error.
func SaveResults(baseName string, pages map[string]ocr.PageData, outputRoot string) error {
	dir := filepath.Join(outputRoot, baseName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create result directory %s: %w", dir, err)
	}

	for pageName, page := range pages {
		if page.Markdown != nil {
			mdPath := filepath.Join(dir, pageName+".md")
			if err := os.WriteFile(mdPath, []byte(*page.Markdown), 0o640); err != nil {
				return fmt.Errorf("failed to write %s: %w", mdPath, err)
			}
		}
		if page.JSON != nil {
			jsonPath := filepath.Join(dir, pageName+".json")
			data, err := encodeResult(page.JSON)
			if err != nil {
				return fmt.Errorf("failed to encode result for page %s: %w", pageName, err)
			}
			if err := os.WriteFile(jsonPath, data, 0o640); err != nil {
				return fmt.Errorf("failed to write %s: %w", jsonPath, err)
			}
		}
	}
	return nil
}

// encodeResult serialises a structured document with two-space
// indentation, preserving non-ASCII text and HTML characters verbatim.
func encodeResult(result *ocr.ResultJSON) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
