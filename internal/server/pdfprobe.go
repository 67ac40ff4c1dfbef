package server

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/sirupsen/logrus"
)

// probePDF verifies a staged PDF is structurally sound before it reaches
// the pipeline, so corrupt uploads fail as client errors instead of
// surfacing as opaque pipeline faults.
func probePDF(path string, logger *logrus.Logger) error {
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("not a readable PDF: %w", err)
	}
	if pageCount < 1 {
		return fmt.Errorf("PDF has no pages")
	}
	logger.WithFields(logrus.Fields{
		"file":  path,
		"pages": pageCount,
	}).Debug("PDF probe passed")
	return nil
}
