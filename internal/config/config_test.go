package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
	assert.Equal(t, "http://localhost:8118/v1", cfg.VLMServerURL)
	assert.Equal(t, "PaddleOCR-VL-1.5-0.9B", cfg.VLMModelName)
	assert.Equal(t, "http://localhost:8080/ocr", cfg.APIURL)
	assert.Equal(t, 300*time.Second, cfg.ClientTimeout)
	assert.True(t, cfg.UseBatch)
	assert.False(t, cfg.ValidatePDF)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("OCRBRIDGE_HOST", "127.0.0.1")
	t.Setenv("OCRBRIDGE_PORT", "9090")
	t.Setenv("OCRBRIDGE_VALIDATE_PDF", "true")
	t.Setenv("OCRBRIDGE_CLIENT_TIMEOUT", "60")
	t.Setenv("OCRBRIDGE_USE_BATCH", "false")
	t.Setenv("OCRBRIDGE_VLM_MODEL", "PaddleOCR-VL-custom")

	cfg := LoadConfig()

	assert.Equal(t, "127.0.0.1:9090", cfg.ListenAddr())
	assert.True(t, cfg.ValidatePDF)
	assert.Equal(t, 60*time.Second, cfg.ClientTimeout)
	assert.False(t, cfg.UseBatch)
	assert.Equal(t, "PaddleOCR-VL-custom", cfg.VLMModelName)
}

func TestLoadConfigIgnoresInvalidEnvValues(t *testing.T) {
	t.Setenv("OCRBRIDGE_PORT", "not-a-port")
	t.Setenv("OCRBRIDGE_VALIDATE_PDF", "maybe")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.ValidatePDF)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocrbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
host: 10.0.0.5
port: 8888
validate_pdf: true
input_dir: /srv/inbox
`), 0o640))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Host)
	assert.Equal(t, 8888, cfg.Port)
	assert.True(t, cfg.ValidatePDF)
	assert.Equal(t, "/srv/inbox", cfg.InputDir)
	// Untouched keys keep their defaults.
	assert.Equal(t, "http://localhost:8080/ocr", cfg.APIURL)
}

func TestEnvWinsOverConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocrbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 8888\n"), 0o640))

	t.Setenv("OCRBRIDGE_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Port)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}
