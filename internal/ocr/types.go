// Package ocr defines the wire types shared by the ocrbridge server and
// client: per-page recognition results, the single and batch response
// envelopes, and the page-name convention that ties batch pages back to
// their source files.
package ocr

import "strings"

// PageData holds the recognition output for a single page. Both
// representations are independently optional: a page may legitimately
// have only a structured result or only rendered markdown.
type PageData struct {
	JSON     *ResultJSON `json:"json"`
	Markdown *string     `json:"markdown"`
}

// ModelSettings mirrors the pipeline's per-run model configuration as it
// appears in each structured result document.
type ModelSettings struct {
	UseDocPreprocessor        bool     `json:"use_doc_preprocessor"`
	UseLayoutDetection        bool     `json:"use_layout_detection"`
	UseChartRecognition       bool     `json:"use_chart_recognition"`
	UseSealRecognition        bool     `json:"use_seal_recognition"`
	UseOCRForImageBlock       bool     `json:"use_ocr_for_image_block"`
	FormatBlockContent        bool     `json:"format_block_content"`
	MergeLayoutBlocks         bool     `json:"merge_layout_blocks"`
	MarkdownIgnoreLabels      []string `json:"markdown_ignore_labels"`
	ReturnLayoutPolygonPoints bool     `json:"return_layout_polygon_points"`
}

// ParsingBlock is a single recognised layout block within a page.
type ParsingBlock struct {
	BlockLabel         string      `json:"block_label"`
	BlockContent       string      `json:"block_content"`
	BlockBBox          []int       `json:"block_bbox"`
	BlockID            int         `json:"block_id"`
	BlockOrder         *int        `json:"block_order,omitempty"`
	GroupID            *int        `json:"group_id,omitempty"`
	GlobalBlockID      *int        `json:"global_block_id,omitempty"`
	GlobalGroupID      *int        `json:"global_group_id,omitempty"`
	BlockPolygonPoints [][]float64 `json:"block_polygon_points,omitempty"`
}

// ResultJSON is the full structured recognition result for one page.
type ResultJSON struct {
	InputPath      string         `json:"input_path"`
	PageIndex      *int           `json:"page_index,omitempty"`
	PageCount      *int           `json:"page_count,omitempty"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	ModelSettings  ModelSettings  `json:"model_settings"`
	ParsingResList []ParsingBlock `json:"parsing_res_list"`
}

// Response is the payload returned by the single-file endpoint.
// PageCount always equals len(Pages).
type Response struct {
	Filename  string              `json:"filename"`
	PageCount int                 `json:"page_count"`
	Pages     map[string]PageData `json:"pages"`
}

// BatchResponse is the payload returned by the batch endpoint. Page names
// are unique across the whole batch; the per-source grouping is recovered
// from the page-name convention (see SplitPageName).
type BatchResponse struct {
	Filenames []string            `json:"filenames"`
	PageCount int                 `json:"page_count"`
	Pages     map[string]PageData `json:"pages"`
}

// PageNameSeparator joins a source file's base name and the zero-based
// page ordinal in multi-page results, e.g. "report_0".
const PageNameSeparator = "_"

// SplitPageName splits a page name into the source file's base name and
// the page index, using the last separator occurrence. Single-page names
// carry no separator, in which case the whole name is the base and ok is
// false. The index suffix is not validated as numeric; a source file
// whose base name itself ends in "_<digits>" is indistinguishable from a
// page of a shorter base name, and that ambiguity is inherited from the
// naming convention rather than resolved here.
func SplitPageName(pageName string) (base, index string, ok bool) {
	i := strings.LastIndex(pageName, PageNameSeparator)
	if i < 0 {
		return pageName, "", false
	}
	return pageName[:i], pageName[i+len(PageNameSeparator):], true
}
