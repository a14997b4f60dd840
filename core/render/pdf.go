// Package render — chapter PDF renderer.
// Converts chapter HTML fragments into a paginated PDF: each content unit
// is normalized to Markdown and laid out with gofpdf under the unit's
// chapter title. Handles headings (variable font sizes), paragraphs, code
// blocks, and lists; pagination is automatic when content exceeds a page.
// Images are intentionally not rendered.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"bookslicer/core"
	"bookslicer/core/normalize"
)

// PDFRenderer renders EPUB content units as a PDF document.
type PDFRenderer struct {
	// PageFormat is a gofpdf page size ("A4", "Letter", ...).
	PageFormat string

	normalizer *normalize.MarkdownNormalizer
}

// NewPDFRenderer creates a PDFRenderer. An empty format defaults to A4.
func NewPDFRenderer(pageFormat string) *PDFRenderer {
	if pageFormat == "" {
		pageFormat = "A4"
	}
	return &PDFRenderer{PageFormat: pageFormat, normalizer: normalize.New()}
}

// RenderUnits converts the ordered content units of one export task into
// a single PDF, each unit starting on a fresh page.
func (r *PDFRenderer) RenderUnits(units []core.ContentUnit) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", r.PageFormat, "")
	pdf.SetAutoPageBreak(true, 15)

	for _, unit := range units {
		markdown, err := r.normalizer.Normalize(unit.HTML)
		if err != nil {
			return nil, fmt.Errorf("unit %s: %w", unit.ID, err)
		}

		pdf.AddPage()
		if unit.Title != "" {
			pdf.SetFont("Helvetica", "B", 18)
			pdf.MultiCell(0, 8, unit.Title, "", "L", false)
			pdf.Ln(4)
		}
		writeMarkdown(pdf, markdown)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Extension returns the output file extension.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// writeMarkdown lays out Markdown line by line.
func writeMarkdown(pdf *gofpdf.Fpdf, markdown string) {
	lines := strings.Split(markdown, "\n")
	inCodeBlock := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		// Toggle code block state.
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			pdf.Ln(2)
			continue
		}

		if inCodeBlock {
			pdf.SetFont("Courier", "", 9)
			pdf.SetFillColor(245, 245, 245)
			pdf.MultiCell(0, 4.5, line, "", "L", true)
			continue
		}

		// Skip empty lines (add spacing instead).
		if strings.TrimSpace(line) == "" {
			pdf.Ln(3)
			continue
		}

		// Headings.
		if strings.HasPrefix(line, "#") {
			level := 0
			for _, ch := range line {
				if ch == '#' {
					level++
				} else {
					break
				}
			}
			text := strings.TrimSpace(strings.TrimLeft(line, "# "))
			writeHeading(pdf, text, level)
			continue
		}

		// List items.
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
			pdf.SetFont("Helvetica", "", 10)
			text := "• " + strings.TrimSpace(trimmed[2:])
			pdf.MultiCell(0, 5, cleanInlineMarkdown(text), "", "L", false)
			continue
		}

		// Numbered list items.
		if matched, _ := regexp.MatchString(`^\d+\.\s`, trimmed); matched {
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, cleanInlineMarkdown(trimmed), "", "L", false)
			continue
		}

		// Regular paragraph text.
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, cleanInlineMarkdown(line), "", "L", false)
	}
}

// writeHeading sets the font size based on heading level and writes text.
func writeHeading(pdf *gofpdf.Fpdf, text string, level int) {
	sizes := map[int]float64{1: 18, 2: 15, 3: 13, 4: 12, 5: 11, 6: 10}
	size, ok := sizes[level]
	if !ok {
		size = 10
	}
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", size)
	pdf.MultiCell(0, size*0.6, cleanInlineMarkdown(text), "", "L", false)
	pdf.Ln(2)
}

// cleanInlineMarkdown strips inline Markdown formatting for PDF rendering.
func cleanInlineMarkdown(text string) string {
	// Remove bold markers.
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "__", "")
	// Remove italic markers (but not inside words like don't).
	re := regexp.MustCompile(`(?:^|\s)\*([^*]+)\*(?:\s|$)`)
	text = re.ReplaceAllString(text, " $1 ")
	// Remove inline code markers.
	text = regexp.MustCompile("`([^`]+)`").ReplaceAllString(text, "$1")
	// Remove link syntax, keep text.
	text = regexp.MustCompile(`\[([^\]]*)\]\([^)]+\)`).ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
