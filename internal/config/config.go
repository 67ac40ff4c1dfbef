// Package config holds the ocrbridge configuration, resolved from
// defaults, an optional YAML file, and OCRBRIDGE_* environment variables
// in that order (environment wins).
package config

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config covers both the server and the client side of ocrbridge.
type Config struct {
	// HTTP server
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	DocsURL string `yaml:"docs_url"`

	// Staging and upload handling
	StagingDir      string `yaml:"staging_dir"`
	MaxUploadSizeMB int64  `yaml:"max_upload_size_mb"`
	ValidatePDF     bool   `yaml:"validate_pdf"`

	// Pipeline subprocess
	PythonPath   string `yaml:"python_path"`
	ScriptPath   string `yaml:"script_path"`
	VLMServerURL string `yaml:"vlm_server_url"`
	VLMModelName string `yaml:"vlm_model_name"`

	// Client
	APIURL        string        `yaml:"api_url"`
	ClientTimeout time.Duration `yaml:"client_timeout"`
	InputDir      string        `yaml:"input_dir"`
	OutputDir     string        `yaml:"output_dir"`
	UseBatch      bool          `yaml:"use_batch"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            8080,
		DocsURL:         "https://github.com/docworks/ocrbridge#readme",
		StagingDir:      "", // system temp dir
		MaxUploadSizeMB: 100,
		ValidatePDF:     false,
		PythonPath:      detectPythonPath(),
		ScriptPath:      "", // embedded wrapper script
		VLMServerURL:    "http://localhost:8118/v1",
		VLMModelName:    "PaddleOCR-VL-1.5-0.9B",
		APIURL:          "http://localhost:8080/ocr",
		ClientTimeout:   300 * time.Second,
		InputDir:        "./input",
		OutputDir:       "./output",
		UseBatch:        true,
	}
}

// Load resolves the effective configuration. A non-empty path names a
// YAML config file applied over the defaults; environment variables are
// applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadConfig resolves configuration from defaults and environment only.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyEnv() {
	if host := os.Getenv("OCRBRIDGE_HOST"); host != "" {
		c.Host = host
	}
	if port := os.Getenv("OCRBRIDGE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			c.Port = p
		}
	}
	if docsURL := os.Getenv("OCRBRIDGE_DOCS_URL"); docsURL != "" {
		c.DocsURL = docsURL
	}
	if dir := os.Getenv("OCRBRIDGE_STAGING_DIR"); dir != "" {
		c.StagingDir = dir
	}
	if size := os.Getenv("OCRBRIDGE_MAX_UPLOAD_SIZE_MB"); size != "" {
		if s, err := strconv.ParseInt(size, 10, 64); err == nil && s > 0 {
			c.MaxUploadSizeMB = s
		}
	}
	if validate := os.Getenv("OCRBRIDGE_VALIDATE_PDF"); validate != "" {
		if v, err := strconv.ParseBool(validate); err == nil {
			c.ValidatePDF = v
		}
	}
	if pythonPath := os.Getenv("OCRBRIDGE_PYTHON_PATH"); pythonPath != "" {
		c.PythonPath = pythonPath
	}
	if scriptPath := os.Getenv("OCRBRIDGE_SCRIPT_PATH"); scriptPath != "" {
		c.ScriptPath = scriptPath
	}
	if serverURL := os.Getenv("OCRBRIDGE_VLM_SERVER_URL"); serverURL != "" {
		c.VLMServerURL = serverURL
	}
	if model := os.Getenv("OCRBRIDGE_VLM_MODEL"); model != "" {
		c.VLMModelName = model
	}
	if apiURL := os.Getenv("OCRBRIDGE_API_URL"); apiURL != "" {
		c.APIURL = apiURL
	}
	if timeout := os.Getenv("OCRBRIDGE_CLIENT_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil && t > 0 {
			c.ClientTimeout = time.Duration(t) * time.Second
		}
	}
	if dir := os.Getenv("OCRBRIDGE_INPUT_DIR"); dir != "" {
		c.InputDir = dir
	}
	if dir := os.Getenv("OCRBRIDGE_OUTPUT_DIR"); dir != "" {
		c.OutputDir = dir
	}
	if batch := os.Getenv("OCRBRIDGE_USE_BATCH"); batch != "" {
		if b, err := strconv.ParseBool(batch); err == nil {
			c.UseBatch = b
		}
	}
}

// ListenAddr returns the host:port pair the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// detectPythonPath finds a Python interpreter on PATH, preferring
// python3.
func detectPythonPath() string {
	for _, candidate := range []string{"python3", "python"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path
		}
	}
	return "python3"
}
