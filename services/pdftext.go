// ABOUTME: PDF to plain text extraction for downloaded documents
// ABOUTME: Never returns an error; failures become an inline placeholder string

package services

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

const truncatedMarker = "\n...[truncated]"

// ExtractPDFText returns the text of a PDF, cut to maxChars runes when
// maxChars > 0.
func ExtractPDFText(data []byte, maxChars int) (text string) {
	defer func() {
		// the parser panics on some malformed xref tables
		if r := recover(); r != nil {
			text = fmt.Sprintf("[PDF extraction error: %v]", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Sprintf("[PDF extraction error: %v]", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return fmt.Sprintf("[PDF extraction error: %v]", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return fmt.Sprintf("[PDF extraction error: %v]", err)
	}

	return limitText(strings.TrimSpace(strings.ReplaceAll(string(raw), "\x00", " ")), maxChars)
}

func limitText(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + truncatedMarker
}
