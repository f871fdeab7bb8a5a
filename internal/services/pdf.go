package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/gomemo-fmtpla/backend/internal/domain"
)

type PDFService struct{}

func NewPDFService() *PDFService {
	return &PDFService{}
}

// Render turns a note into a printable PDF: header, summary, then any
// generated flashcards as question/answer pairs.
func (s *PDFService) Render(note domain.Note, meta domain.NoteMetadata) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(note.Title, true)
	pdf.SetAuthor("GoMemo", false)
	pdf.AddPage()

	title := note.Title
	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("Note %d", note.ID)
	}
	if meta.Emoji != "" {
		title = fmt.Sprintf("%s %s", meta.Emoji, title)
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 10, title, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	if meta.ContentCategory != "" {
		pdf.Cell(0, 6, meta.ContentCategory)
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Created %s", note.CreatedAt.Local().Format("Jan 2, 2006 15:04")))
	pdf.Ln(12)

	s.writeSection(pdf, "Summary", stripMarkdown(note.Summary))

	if len(note.Flashcards) > 0 {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Cell(0, 8, "Flashcards")
		pdf.Ln(10)
		for i, card := range note.Flashcards {
			pdf.SetFont("Helvetica", "B", 12)
			pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, card.Question), "", "L", false)
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(0, 6, card.Answer, "", "L", false)
			pdf.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *PDFService) writeSection(pdf *gofpdf.Fpdf, title, content string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, title)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			pdf.Ln(3)
			continue
		}
		pdf.MultiCell(0, 6, line, "", "L", false)
	}
}

// stripMarkdown drops the heading and emphasis markers the summary carries so
// the PDF reads as plain prose.
func stripMarkdown(md string) string {
	var out []string
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimLeft(line, "# ")
		trimmed = strings.ReplaceAll(trimmed, "**", "")
		trimmed = strings.ReplaceAll(trimmed, "- ", "")
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
