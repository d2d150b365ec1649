package extractor

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadPDFText concatenates the text layer of every page and reports the page count.
// An empty string with a nil error means the PDF has no text layer.
func ReadPDFText(path string) (text string, pages int, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create PDF reader: %w", err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), numPages, nil
}
