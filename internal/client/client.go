// Package client submits files to the ocrbridge server and reassembles
// the recognition results on disk, one directory per source file.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docworks/ocrbridge/internal/ocr"
)

// Client talks to the single-file and batch OCR endpoints. Requests are
// issued sequentially within one run; the only timeout is the per-call
// HTTP deadline.
type Client struct {
	apiURL     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// New constructs a Client for the single-file endpoint URL (the batch
// endpoint is derived from it).
func New(apiURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// batchURL derives the batch endpoint from the single-file endpoint.
func (c *Client) batchURL() string {
	return strings.TrimRight(c.apiURL, "/") + "/batch"
}

// ProcessFile submits one file and returns the parsed response.
func (c *Client) ProcessFile(ctx context.Context, path string) (*ocr.Response, error) {
	body, contentType, err := multipartBody("file", []string{path})
	if err != nil {
		return nil, err
	}

	var resp ocr.Response
	if err := c.post(ctx, c.apiURL, contentType, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProcessBatch submits all files in one call and returns the parsed
// batch response.
func (c *Client) ProcessBatch(ctx context.Context, paths []string) (*ocr.BatchResponse, error) {
	body, contentType, err := multipartBody("files", paths)
	if err != nil {
		return nil, err
	}

	var resp ocr.BatchResponse
	if err := c.post(ctx, c.batchURL(), contentType, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post issues the request and decodes a 200 response into out. Non-200
// responses are logged with status and body and returned as errors; the
// caller skips that file or batch, there is no retry.
func (c *Client) post(ctx context.Context, url, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.WithFields(logrus.Fields{
			"url":    url,
			"status": resp.StatusCode,
			"body":   strings.TrimSpace(string(respBody)),
		}).Error("Request failed")
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// multipartBody builds a multipart form with the given files under the
// given field name, with per-file content types derived from the
// extension.
func multipartBody(fieldName string, paths []string) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`,
			fieldName, filepath.Base(path)))
		header.Set("Content-Type", ocr.MIMEType(path))

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form part: %w", err)
		}
		if _, err := part.Write(content); err != nil {
			return nil, "", fmt.Errorf("failed to write form part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalise form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
