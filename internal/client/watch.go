package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/docworks/ocrbridge/internal/ocr"
)

// settleDelay is how long a newly appeared file is given to finish being
// written before it is submitted.
const settleDelay = 500 * time.Millisecond

// Watch monitors inputDir and submits supported files as they appear,
// saving results under outputRoot. Files already present are processed
// first. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, c *Client, inputDir, outputRoot string) error {
	if err := os.MkdirAll(outputRoot, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close watcher")
		}
	}()

	if err := watcher.Add(inputDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", inputDir, err)
	}

	// Catch up on files dropped before the watch started.
	if err := Run(ctx, c, inputDir, outputRoot, false); err != nil {
		return err
	}

	c.logger.WithField("dir", inputDir).Info("Watching for new files")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !ocr.AllowedExtension(event.Name) {
				continue
			}
			time.Sleep(settleDelay)
			if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
				continue
			}
			c.logger.WithField("file", filepath.Base(event.Name)).Info("New file detected")
			runSingle(ctx, c, event.Name, outputRoot)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.WithError(err).Error("Watcher error")
		}
	}
}
