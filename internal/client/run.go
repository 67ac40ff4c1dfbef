package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/docworks/ocrbridge/internal/ocr"
)

// lockFileName is the advisory lock taken on the output root for the
// duration of a run, so two concurrent client runs don't interleave
// writes into the same result tree.
const lockFileName = ".ocrbridge.lock"

// Run submits every supported file found in inputDir and saves the
// results under outputRoot. When useBatch is set and more than one file
// is queued, all files go out in a single batch call; otherwise files are
// submitted sequentially, one call each. A failed file or batch is logged
// and skipped, never retried.
func Run(ctx context.Context, c *Client, inputDir, outputRoot string, useBatch bool) error {
	files, err := scanInputDir(inputDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		c.logger.WithField("dir", inputDir).Warn("No supported files found")
		return nil
	}

	c.logger.WithField("files", len(files)).Info("Found files to process")

	if err := os.MkdirAll(outputRoot, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(outputRoot, lockFileName))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock output directory: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			c.logger.WithError(err).Warn("Failed to release output directory lock")
		}
	}()

	if useBatch && len(files) > 1 {
		return runBatch(ctx, c, files, outputRoot)
	}

	for _, path := range files {
		runSingle(ctx, c, path, outputRoot)
	}
	return nil
}

// runSingle submits one file and saves its pages. Errors are logged and
// swallowed so the remaining files still get their turn.
func runSingle(ctx context.Context, c *Client, path, outputRoot string) {
	c.logger.WithField("file", filepath.Base(path)).Info("Processing file")

	resp, err := c.ProcessFile(ctx, path)
	if err != nil {
		c.logger.WithError(err).WithField("file", filepath.Base(path)).Error("Skipping file")
		return
	}

	c.logger.WithFields(logrus.Fields{
		"file":  filepath.Base(path),
		"pages": resp.PageCount,
	}).Info("Completed file")

	logPageMarkdown(c.logger, resp.Pages)

	baseName := baseNameOf(path)
	if err := SaveResults(baseName, resp.Pages, outputRoot); err != nil {
		c.logger.WithError(err).WithField("file", filepath.Base(path)).Error("Failed to save results")
	}
}

// runBatch submits all files in one call, regroups the flat page mapping
// by source file and saves each group. Groups are independent, so saving
// fans out across goroutines.
func runBatch(ctx context.Context, c *Client, files []string, outputRoot string) error {
	c.logger.WithField("files", len(files)).Info("Processing batch")

	resp, err := c.ProcessBatch(ctx, files)
	if err != nil {
		c.logger.WithError(err).Error("Skipping batch")
		return nil
	}

	c.logger.WithField("pages", resp.PageCount).Info("Completed batch")
	logPageMarkdown(c.logger, resp.Pages)

	grouped := Regroup(resp.Pages)

	eg, _ := errgroup.WithContext(ctx)
	for baseName, pages := range grouped {
		baseName, pages := baseName, pages
		eg.Go(func() error {
			return SaveResults(baseName, pages, outputRoot)
		})
	}
	return eg.Wait()
}

// scanInputDir lists the supported files directly under dir, sorted by
// name.
func scanInputDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !ocr.AllowedExtension(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// baseNameOf strips the directory and extension from path.
func baseNameOf(path string) string {
	name := filepath.Base(path)
	return name[:len(name)-len(filepath.Ext(name))]
}

// logPageMarkdown traces each page's rendered markdown at debug level.
func logPageMarkdown(logger *logrus.Logger, pages map[string]ocr.PageData) {
	if !logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	for pageName, page := range pages {
		if page.Markdown != nil {
			logger.WithField("page", pageName).Debugf("Markdown:\n%s", *page.Markdown)
		}
	}
}
