package validation

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// CountPDFPages counts the pages of an in-memory PDF
func CountPDFPages(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, &Error{Message: "empty PDF"}
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, &Error{Message: "failed to parse PDF", Cause: err}
	}
	return reader.NumPage(), nil
}

// CountPDFPagesFile counts the pages of a PDF on disk
func CountPDFPagesFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, &FileReadError{Message: fmt.Sprintf("failed to read %s", path), Cause: err}
	}
	return CountPDFPages(data)
}
