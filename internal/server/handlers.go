package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/docworks/ocrbridge/internal/ocr"
	"github.com/docworks/ocrbridge/internal/pipeline"
	"github.com/docworks/ocrbridge/internal/staging"
)

// errorResponse is the body returned for all non-200 outcomes.
type errorResponse struct {
	Error string `json:"error"`
}

// handleOCR processes a single uploaded file (multipart field "file").
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	if !s.runner.Ready() {
		s.writeError(w, http.StatusServiceUnavailable, "OCR pipeline not initialised")
		return
	}

	if err := r.ParseMultipartForm(s.cfg.MaxUploadSizeMB << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart request: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing multipart field 'file'")
		return
	}
	defer func() { _ = file.Close() }()

	// Extension validation happens before any staging.
	if !ocr.AllowedExtension(header.Filename) {
		s.writeError(w, http.StatusBadRequest, unsupportedTypeMessage(header.Filename))
		return
	}

	area, err := staging.Acquire(s.cfg.StagingDir)
	if err != nil {
		s.logger.WithError(err).Error("Failed to acquire staging area")
		s.writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	defer area.Release(s.logger)

	stagedPath, err := s.stage(area, header.Filename, file)
	if err != nil {
		s.respondStagingError(w, err)
		return
	}

	s.logger.WithField("file", header.Filename).Info("Processing file")

	pages, err := s.process(r.Context(), area, []string{stagedPath})
	if err != nil {
		s.respondPipelineError(w, header.Filename, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"file":  header.Filename,
		"pages": len(pages),
	}).Info("Completed processing")

	s.writeJSON(w, http.StatusOK, ocr.Response{
		Filename:  header.Filename,
		PageCount: len(pages),
		Pages:     pages,
	})
}

// handleBatch processes multiple uploaded files (multipart field "files")
// in one pipeline invocation. Validation is fail-fast: if any file has an
// unsupported extension the whole batch is rejected before anything is
// staged.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if !s.runner.Ready() {
		s.writeError(w, http.StatusServiceUnavailable, "OCR pipeline not initialised")
		return
	}

	if err := r.ParseMultipartForm(s.cfg.MaxUploadSizeMB << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart request: %v", err))
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) == 0 {
		s.writeError(w, http.StatusBadRequest, ocr.ErrNoFiles.Error())
		return
	}

	for _, header := range headers {
		if !ocr.AllowedExtension(header.Filename) {
			s.writeError(w, http.StatusBadRequest, unsupportedTypeMessage(header.Filename))
			return
		}
	}

	area, err := staging.Acquire(s.cfg.StagingDir)
	if err != nil {
		s.logger.WithError(err).Error("Failed to acquire staging area")
		s.writeError(w, http.StatusInternalServerError, "failed to stage uploads")
		return
	}
	defer area.Release(s.logger)

	stagedPaths := make([]string, 0, len(headers))
	filenames := make([]string, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			s.logger.WithError(err).WithField("file", header.Filename).Error("Failed to open upload")
			s.writeError(w, http.StatusInternalServerError, "failed to read upload")
			return
		}
		stagedPath, err := s.stage(area, header.Filename, file)
		_ = file.Close()
		if err != nil {
			s.respondStagingError(w, err)
			return
		}
		stagedPaths = append(stagedPaths, stagedPath)
		filenames = append(filenames, header.Filename)
	}

	s.logger.WithField("files", len(stagedPaths)).Info("Processing batch")

	pages, err := s.process(r.Context(), area, stagedPaths)
	if err != nil {
		s.respondPipelineError(w, fmt.Sprintf("batch of %d files", len(stagedPaths)), err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"files": len(stagedPaths),
		"pages": len(pages),
	}).Info("Completed batch processing")

	s.writeJSON(w, http.StatusOK, ocr.BatchResponse{
		Filenames: filenames,
		PageCount: len(pages),
		Pages:     pages,
	})
}

// stage writes one upload into the staging area, optionally verifying PDF
// integrity before the file is handed to the pipeline.
func (s *Server) stage(area *staging.Area, name string, file multipart.File) (string, error) {
	stagedPath, err := area.StageUpload(name, file)
	if err != nil {
		return "", err
	}
	if s.cfg.ValidatePDF && ocr.Extension(name) == "pdf" {
		if err := probePDF(stagedPath, s.logger); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ocr.ErrUnsupportedType, name, err)
		}
	}
	return stagedPath, nil
}

// process runs the pipeline over the staged inputs and aggregates the
// artifacts it produced. Pipeline invocations deliberately use a fresh
// context: once started, a run is not cancelled by client disconnects.
func (s *Server) process(_ context.Context, area *staging.Area, inputPaths []string) (map[string]ocr.PageData, error) {
	if err := s.runner.Run(context.Background(), inputPaths, area.OutputDir); err != nil {
		return nil, err
	}
	return pipeline.Collect(area.OutputDir)
}

func (s *Server) respondStagingError(w http.ResponseWriter, err error) {
	if errors.Is(err, ocr.ErrUnsupportedType) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.WithError(err).Error("Failed to stage upload")
	s.writeError(w, http.StatusInternalServerError, "failed to stage upload")
}

func (s *Server) respondPipelineError(w http.ResponseWriter, subject string, err error) {
	if errors.Is(err, pipeline.ErrNotReady) {
		s.writeError(w, http.StatusServiceUnavailable, "OCR pipeline not initialised")
		return
	}
	s.logger.WithError(err).WithField("subject", subject).Error("Processing failed")
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

func unsupportedTypeMessage(filename string) string {
	return fmt.Sprintf("%s %q: allowed extensions are %s",
		ocr.ErrUnsupportedType.Error(), filename, strings.Join(ocr.AllowedExtensionList(), ", "))
}
