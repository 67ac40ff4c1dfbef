package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docworks/ocrbridge/internal/ocr"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func markdownPages(names ...string) map[string]ocr.PageData {
	pages := make(map[string]ocr.PageData, len(names))
	for _, name := range names {
		md := "content of " + name
		pages[name] = ocr.PageData{Markdown: &md}
	}
	return pages
}

func TestProcessFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "report.pdf", "%PDF fake")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ocr", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err, "single submission uses the 'file' field")
		defer func() { _ = file.Close() }()

		assert.Equal(t, "report.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))

		_ = json.NewEncoder(w).Encode(ocr.Response{
			Filename:  header.Filename,
			PageCount: 1,
			Pages:     markdownPages("report"),
		})
	}))
	defer ts.Close()

	c := New(ts.URL+"/ocr", 10*time.Second, testLogger())
	resp, err := c.ProcessFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", resp.Filename)
	assert.Equal(t, 1, resp.PageCount)
	assert.Contains(t, resp.Pages, "report")
}

func TestProcessBatch(t *testing.T) {
	dir := t.TempDir()
	a := writeTempFile(t, dir, "a.pdf", "%PDF a")
	b := writeTempFile(t, dir, "b.png", "png b")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ocr/batch", r.URL.Path, "batch URL is derived from the single-call URL")

		require.NoError(t, r.ParseMultipartForm(32<<20))
		headers := r.MultipartForm.File["files"]
		require.Len(t, headers, 2, "batch submission repeats the 'files' field")
		assert.Equal(t, "a.pdf", headers[0].Filename)
		assert.Equal(t, "b.png", headers[1].Filename)
		assert.Equal(t, "image/png", headers[1].Header.Get("Content-Type"))

		_ = json.NewEncoder(w).Encode(ocr.BatchResponse{
			Filenames: []string{"a.pdf", "b.png"},
			PageCount: 3,
			Pages:     markdownPages("a_0", "a_1", "b_0"),
		})
	}))
	defer ts.Close()

	c := New(ts.URL+"/ocr", 10*time.Second, testLogger())
	resp, err := c.ProcessBatch(context.Background(), []string{a, b})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.pdf", "b.png"}, resp.Filenames)
	assert.Equal(t, 3, resp.PageCount)
	assert.Len(t, resp.Pages, 3)
}

func TestProcessFileServerError(t *testing.T) {
	dir := t.TempDir()
	path := writeTempFile(t, dir, "report.pdf", "%PDF fake")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "pipeline invocation failed"}`))
	}))
	defer ts.Close()

	c := New(ts.URL+"/ocr", 10*time.Second, testLogger())
	_, err := c.ProcessFile(context.Background(), path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "pipeline invocation failed")
}

func TestProcessFileMissingLocalFile(t *testing.T) {
	c := New("http://localhost:0/ocr", time.Second, testLogger())
	_, err := c.ProcessFile(context.Background(), "/does/not/exist.pdf")
	assert.Error(t, err)
}
