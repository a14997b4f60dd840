package outline

import (
	"log/slog"

	"bookslicer/core"
)

// BuildPDFTree converts a PDF document's outline into a chapter tree.
// An entry whose destination could not be resolved falls back to page 1
// rather than failing the whole parse; the condition is logged and
// extraction continues. A document with zero outline entries fails with
// core.ErrNoNavigationData.
func BuildPDFTree(doc core.PDFDocument, log *slog.Logger) (*core.ChapterTree, error) {
	entries := doc.Outline()
	if len(entries) == 0 {
		return nil, core.ErrNoNavigationData
	}

	tree := &core.ChapterTree{
		Format:     core.FormatPDF,
		Title:      doc.Title(),
		TotalPages: doc.PageCount(),
	}
	for i, e := range entries {
		tree.Roots = append(tree.Roots, pdfNode(e, childID("", i), 0, log))
	}
	return tree, nil
}

func pdfNode(e core.PDFOutlineEntry, id string, level int, log *slog.Logger) *core.ChapterNode {
	page := e.Page
	if page < 1 {
		log.Warn("unresolvable outline destination, defaulting to page 1",
			"id", id, "title", e.Title)
		page = 1
	}

	n := &core.ChapterNode{
		ID:        id,
		Title:     displayTitle(e.Title),
		Level:     level,
		StartPage: page,
	}
	for i, child := range e.Children {
		n.Children = append(n.Children, pdfNode(child, childID(id, i), level+1, log))
	}
	return n
}
