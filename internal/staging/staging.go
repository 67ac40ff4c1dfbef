// Package staging manages the per-request temporary file layout: an
// isolated input directory for uploaded files and an output directory for
// pipeline-generated artifacts, torn down unconditionally when the
// request ends.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Area is a request-exclusive staging tree. Directories are never reused
// across acquisitions, so concurrent requests cannot observe each other's
// files.
type Area struct {
	Root      string
	InputDir  string
	OutputDir string
}

// Acquire creates a fresh staging area under baseDir. An empty baseDir
// falls back to the system temp directory. The caller must Release the
// area on every exit path.
func Acquire(baseDir string) (*Area, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create staging base directory: %w", err)
	}

	root := filepath.Join(baseDir, "ocr-"+uuid.NewString())
	area := &Area{
		Root:      root,
		InputDir:  filepath.Join(root, "input"),
		OutputDir: filepath.Join(root, "output"),
	}

	for _, dir := range []string{area.InputDir, area.OutputDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			_ = os.RemoveAll(root)
			return nil, fmt.Errorf("failed to create staging directory %s: %w", dir, err)
		}
	}

	return area, nil
}

// StageUpload writes an uploaded file into the input directory under its
// base name, stripping any path components a client may have smuggled
// into the declared filename. It returns the staged path.
func (a *Area) StageUpload(name string, r io.Reader) (string, error) {
	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == ".." || base == string(filepath.Separator) {
		base = "upload"
	}

	dst := filepath.Join(a.InputDir, base)
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write staged file %s: %w", dst, err)
	}

	return dst, nil
}

// Release removes the whole staging tree. Cleanup failures are logged but
// never escalated so they cannot mask the request's primary outcome.
// Release is safe on a nil area and may be called more than once.
func (a *Area) Release(logger *logrus.Logger) {
	if a == nil || a.Root == "" {
		return
	}
	if err := os.RemoveAll(a.Root); err != nil && logger != nil {
		logger.WithError(err).WithField("dir", a.Root).Warn("Failed to remove staging area")
	}
}
