package client

import "github.com/docworks/ocrbridge/internal/ocr"

// Regroup reconstructs the per-source-file grouping from a flat batch
// response, inverting the server's page-name convention: everything
// before the last separator is the base name, names without a separator
// stand alone. See ocr.SplitPageName for the inherited ambiguity around
// base names that themselves end in "_<digits>".
func Regroup(pages map[string]ocr.PageData) map[string]map[string]ocr.PageData {
	grouped := make(map[string]map[string]ocr.PageData)
	for pageName, page := range pages {
		base, _, _ := ocr.SplitPageName(pageName)
		if grouped[base] == nil {
			grouped[base] = make(map[string]ocr.PageData)
		}
		grouped[base][pageName] = page
	}
	return grouped
}
