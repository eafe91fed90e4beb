// Package pdf extracts text from PDF documents.
package pdf

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fwojciec/manx"
	"github.com/ledongthuc/pdf"
)

var _ manx.TextReader = (*Reader)(nil)

// Reader implements manx.TextReader for PDF files. Files are validated with
// manx.ValidatePDF before parsing.
type Reader struct{}

// NewReader creates a new Reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadText returns the plain text of every page of the PDF at path.
func (r *Reader) ReadText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	head := make([]byte, 1024)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read PDF header: %w", err)
	}
	if err := manx.ValidatePDF(head[:n]); err != nil {
		return "", err
	}

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to get file info: %w", err)
	}
	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return "", manx.Errorf(manx.EINVALID, "failed to parse PDF %s: %v", path, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", manx.Errorf(manx.EINVALID, "failed to extract PDF text from %s: %v", path, err)
	}
	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", manx.Errorf(manx.EINVALID, "no text found in PDF %s", path)
	}
	return text, nil
}
