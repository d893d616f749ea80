package services

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrNoPDFText = errors.New("no text content found in PDF")

type PDFParserService interface {
	// Extract reads every page of the PDF at filePath. Unreadable pages are
	// skipped; a document with no text at all is an error.
	Extract(filePath string) (*PDFContent, error)
}

type PDFContent struct {
	Text      string
	PageCount int
	FilePath  string
}

type pdfParserService struct{}

func NewPDFParserService() PDFParserService {
	return &pdfParserService{}
}

func (p *pdfParserService) Extract(filePath string) (*PDFContent, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var pages []string
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = CleanText(text); text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, ErrNoPDFText
	}

	return &PDFContent{
		Text:      strings.Join(pages, "\n\n"),
		PageCount: total,
		FilePath:  filePath,
	}, nil
}

// CleanText trims every line and drops empty ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
