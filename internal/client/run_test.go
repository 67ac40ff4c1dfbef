package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docworks/ocrbridge/internal/ocr"
)

func TestRunBatchSavesGroupedResults(t *testing.T) {
	inputDir := t.TempDir()
	outputRoot := t.TempDir()
	writeTempFile(t, inputDir, "a.pdf", "%PDF a")
	writeTempFile(t, inputDir, "b.png", "png b")
	writeTempFile(t, inputDir, "ignored.txt", "not supported")

	var batchCalls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ocr/batch", r.URL.Path, ">1 file with batch enabled goes out as one batch call")
		batchCalls.Add(1)

		require.NoError(t, r.ParseMultipartForm(32<<20))
		require.Len(t, r.MultipartForm.File["files"], 2, "unsupported files are filtered before submission")

		_ = json.NewEncoder(w).Encode(ocr.BatchResponse{
			Filenames: []string{"a.pdf", "b.png"},
			PageCount: 3,
			Pages:     markdownPages("a_0", "a_1", "b_0"),
		})
	}))
	defer ts.Close()

	c := New(ts.URL+"/ocr", 10*time.Second, testLogger())
	require.NoError(t, Run(context.Background(), c, inputDir, outputRoot, true))

	assert.Equal(t, int32(1), batchCalls.Load())

	// Regrouped per source file: a/ has two pages, b/ has one.
	for _, rel := range []string{"a/a_0.md", "a/a_1.md", "b/b_0.md"} {
		_, err := os.Stat(filepath.Join(outputRoot, rel))
		assert.NoError(t, err, "expected %s to be written", rel)
	}
}

func TestRunSequentialWhenBatchDisabled(t *testing.T) {
	inputDir := t.TempDir()
	outputRoot := t.TempDir()
	writeTempFile(t, inputDir, "a.pdf", "%PDF a")
	writeTempFile(t, inputDir, "b.png", "png b")

	var singleCalls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ocr", r.URL.Path)
		singleCalls.Add(1)

		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		base := header.Filename[:len(header.Filename)-len(filepath.Ext(header.Filename))]

		_ = json.NewEncoder(w).Encode(ocr.Response{
			Filename:  header.Filename,
			PageCount: 1,
			Pages:     markdownPages(base),
		})
	}))
	defer ts.Close()

	c := New(ts.URL+"/ocr", 10*time.Second, testLogger())
	require.NoError(t, Run(context.Background(), c, inputDir, outputRoot, false))

	assert.Equal(t, int32(2), singleCalls.Load(), "one call per file without batching")

	for _, rel := range []string{"a/a.md", "b/b.md"} {
		_, err := os.Stat(filepath.Join(outputRoot, rel))
		assert.NoError(t, err, "expected %s to be written", rel)
	}
}

func TestRunSkipsFailedFiles(t *testing.T) {
	inputDir := t.TempDir()
	outputRoot := t.TempDir()
	writeTempFile(t, inputDir, "bad.pdf", "%PDF bad")
	writeTempFile(t, inputDir, "good.pdf", "%PDF good")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		require.NoError(t, err)

		if header.Filename == "bad.pdf" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": "boom"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(ocr.Response{
			Filename:  header.Filename,
			PageCount: 1,
			Pages:     markdownPages("good"),
		})
	}))
	defer ts.Close()

	c := New(ts.URL+"/ocr", 10*time.Second, testLogger())
	require.NoError(t, Run(context.Background(), c, inputDir, outputRoot, false),
		"a failed file is skipped, not fatal")

	_, err := os.Stat(filepath.Join(outputRoot, "good/good.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outputRoot, "bad"))
	assert.True(t, os.IsNotExist(err), "no results for the failed file")
}

func TestRunEmptyInputDir(t *testing.T) {
	c := New("http://localhost:0/ocr", time.Second, testLogger())
	assert.NoError(t, Run(context.Background(), c, t.TempDir(), t.TempDir(), true))
}

func TestScanInputDirSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "b.png", "b")
	writeTempFile(t, dir, "a.pdf", "a")
	writeTempFile(t, dir, "SCAN.JPG", "upper case extension")
	writeTempFile(t, dir, "skip.docx", "unsupported")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o750))

	files, err := scanInputDir(dir)
	require.NoError(t, err)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	assert.Equal(t, []string{"SCAN.JPG", "a.pdf", "b.png"}, names)
}
