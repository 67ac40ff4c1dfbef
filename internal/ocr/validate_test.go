package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedExtension(t *testing.T) {
	allowed := []string{
		"report.pdf", "scan.png", "photo.jpg", "photo.jpeg",
		"image.bmp", "fax.tiff", "modern.webp",
		// Case must not matter.
		"REPORT.PDF", "Scan.Png", "photo.JPEG",
	}
	for _, name := range allowed {
		assert.True(t, AllowedExtension(name), "expected %q to be allowed", name)
	}

	rejected := []string{
		"notes.txt", "letter.docx", "archive.zip", "noextension",
		"report.pdf.exe", "trailingdot.",
	}
	for _, name := range rejected {
		assert.False(t, AllowedExtension(name), "expected %q to be rejected", name)
	}
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "application/pdf", MIMEType("report.pdf"))
	assert.Equal(t, "image/jpeg", MIMEType("a.jpg"))
	assert.Equal(t, "image/jpeg", MIMEType("a.JPEG"))
	assert.Equal(t, "image/webp", MIMEType("a.webp"))
	assert.Equal(t, "application/octet-stream", MIMEType("unknown.bin"))
}

func TestAllowedExtensionList(t *testing.T) {
	list := AllowedExtensionList()
	assert.Equal(t, []string{"bmp", "jpeg", "jpg", "pdf", "png", "tiff", "webp"}, list)
}
