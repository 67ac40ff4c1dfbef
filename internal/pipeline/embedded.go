package pipeline

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

//go:embed python/*.py
var embeddedScripts embed.FS

const wrapperScriptName = "paddleocr_runner.py"

var (
	extractedScriptPath string
	extractOnce         sync.Once
	extractErr          error
)

// EmbeddedScriptPath extracts the embedded Python wrapper to a temporary
// directory and returns its path. Extraction happens once per process.
func EmbeddedScriptPath() (string, error) {
	extractOnce.Do(func() {
		extractedScriptPath, extractErr = extractEmbeddedScripts()
	})
	return extractedScriptPath, extractErr
}

func extractEmbeddedScripts() (string, error) {
	tempDir, err := os.MkdirTemp("", "ocrbridge-python-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}

	entries, err := embeddedScripts.ReadDir("python")
	if err != nil {
		return "", fmt.Errorf("failed to read embedded python directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".py" {
			continue
		}
		content, err := embeddedScripts.ReadFile(filepath.Join("python", entry.Name()))
		if err != nil {
			return "", fmt.Errorf("failed to read embedded file %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(tempDir, entry.Name()), content, 0o700); err != nil {
			return "", fmt.Errorf("failed to extract %s: %w", entry.Name(), err)
		}
	}

	mainScript := filepath.Join(tempDir, wrapperScriptName)
	if _, err := os.Stat(mainScript); err != nil {
		return "", fmt.Errorf("wrapper script missing after extraction: %w", err)
	}
	return mainScript, nil
}

// CleanupEmbeddedScripts removes the extracted wrapper directory. Called
// during shutdown; the OS reclaims temp files regardless.
func CleanupEmbeddedScripts() error {
	if extractedScriptPath == "" {
		return nil
	}
	return os.RemoveAll(filepath.Dir(extractedScriptPath))
}
