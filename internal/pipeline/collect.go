package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docworks/ocrbridge/internal/ocr"
)

// structuredSuffix is appended by the pipeline to the structured-data
// artifact's stem: a page named "a_0" is saved as "a_0_res.json" next to
// its markdown companion "a_0.md".
const structuredSuffix = "_res"

// Collect builds the page-name keyed result mapping from the artifacts
// the pipeline wrote into outputDir. Either artifact may independently be
// missing for a page; a page with only one representation is still
// reported, with the other field null. Unreadable or unparseable
// artifacts are an error.
func Collect(outputDir string) (map[string]ocr.PageData, error) {
	jsonPaths, err := filepath.Glob(filepath.Join(outputDir, "*"+structuredSuffix+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan output directory: %w", err)
	}
	sort.Strings(jsonPaths)

	pages := make(map[string]ocr.PageData)

	for _, jsonPath := range jsonPaths {
		stem := strings.TrimSuffix(filepath.Base(jsonPath), ".json")
		pageName := strings.TrimSuffix(stem, structuredSuffix)

		page, err := readPage(outputDir, pageName, jsonPath)
		if err != nil {
			return nil, err
		}
		pages[pageName] = page
	}

	// Markdown-only pages have no structured document to key off, so scan
	// for companions that the first pass missed.
	mdPaths, err := filepath.Glob(filepath.Join(outputDir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan output directory: %w", err)
	}
	sort.Strings(mdPaths)

	for _, mdPath := range mdPaths {
		pageName := strings.TrimSuffix(filepath.Base(mdPath), ".md")
		if _, seen := pages[pageName]; seen {
			continue
		}
		page, err := readPage(outputDir, pageName, "")
		if err != nil {
			return nil, err
		}
		pages[pageName] = page
	}

	return pages, nil
}

// readPage loads the structured document (when jsonPath is non-empty) and
// the markdown companion for pageName.
func readPage(outputDir, pageName, jsonPath string) (ocr.PageData, error) {
	var page ocr.PageData

	if jsonPath != "" {
		data, err := os.ReadFile(jsonPath)
		if err != nil {
			return page, fmt.Errorf("failed to read result document %s: %w", jsonPath, err)
		}
		var result ocr.ResultJSON
		if err := json.Unmarshal(data, &result); err != nil {
			return page, fmt.Errorf("failed to parse result document %s: %w", jsonPath, err)
		}
		page.JSON = &result
	}

	mdPath := filepath.Join(outputDir, pageName+".md")
	data, err := os.ReadFile(mdPath)
	switch {
	case err == nil:
		markdown := string(data)
		page.Markdown = &markdown
	case os.IsNotExist(err):
		// A page may legitimately lack the markdown representation.
	default:
		return page, fmt.Errorf("failed to read markdown document %s: %w", mdPath, err)
	}

	return page, nil
}
