package fetch

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
)

// extractPDFText reads plain text from a PDF document's bytes (spec §4.3
// PDF handling). Grounded on the github.com/ledongthuc/pdf dependency
// seen in the pack's other_examples/manifests (Caia-Tech-caia-library),
// the only PDF library present anywhere in the retrieved corpus.
func extractPDFText(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", err
	}
	return buf.String(), nil
}
