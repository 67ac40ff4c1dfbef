package ocr

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

// Validation errors surfaced to callers as client errors (HTTP 400).
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrNoFiles         = errors.New("no files provided")
)

// allowedExtensions is the set of file types the pipeline accepts,
// keyed by lower-case extension without the leading dot.
var allowedExtensions = map[string]bool{
	"pdf":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"bmp":  true,
	"tiff": true,
	"webp": true,
}

// mimeTypes maps supported extensions to the content type used for
// multipart submission. Unknown extensions fall back to octet-stream.
var mimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

// Extension returns the lower-case extension of name without the leading
// dot, or "" when name has no extension.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// AllowedExtension reports whether name carries one of the supported
// file extensions, matched case-insensitively.
func AllowedExtension(name string) bool {
	return allowedExtensions[Extension(name)]
}

// MIMEType returns the content type for name based on its extension.
func MIMEType(name string) string {
	if mt, ok := mimeTypes[Extension(name)]; ok {
		return mt
	}
	return "application/octet-stream"
}

// AllowedExtensionList returns the supported extensions sorted, for use
// in error messages.
func AllowedExtensionList() []string {
	exts := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
