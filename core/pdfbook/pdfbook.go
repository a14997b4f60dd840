// Package pdfbook opens PDF files and exposes the handle the outline
// parser needs: page count, document title, and the raw outline tree with
// destinations resolved to 1-based page numbers.
//
// Destination resolution walks the outline dictionary (First/Next chains)
// and matches each destination's page object against a fingerprint index
// built from the page tree. Entries whose destination cannot be matched
// report page 0; the lenient fallback policy lives in the outline parser,
// not here.
package pdfbook

import (
	"fmt"
	"os"

	pdflib "github.com/ledongthuc/pdf"

	"bookslicer/core"
)

// Document is an opened PDF implementing core.PDFDocument.
type Document struct {
	f *os.File
	r *pdflib.Reader

	// pageIndex maps a page dictionary fingerprint to its 1-based number.
	pageIndex map[string]int
}

// Open opens the PDF at path. The caller must Close the document.
func Open(path string) (*Document, error) {
	f, r, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	d := &Document{f: f, r: r, pageIndex: make(map[string]int)}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		d.pageIndex[page.V.String()] = i
	}
	return d, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.f.Close()
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return d.r.NumPage()
}

// Title returns the document title from the Info dictionary, if any.
func (d *Document) Title() string {
	info := d.r.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	return info.Key("Title").Text()
}

// Outline returns the top-level outline entries, recursively populated.
// Returns nil when the document carries no outline dictionary.
func (d *Document) Outline() []core.PDFOutlineEntry {
	outlines := d.r.Trailer().Key("Root").Key("Outlines")
	if outlines.IsNull() {
		return nil
	}
	return d.walkOutline(outlines.Key("First"))
}

// walkOutline follows a First/Next sibling chain.
func (d *Document) walkOutline(v pdflib.Value) []core.PDFOutlineEntry {
	var out []core.PDFOutlineEntry
	for !v.IsNull() {
		entry := core.PDFOutlineEntry{
			Title: v.Key("Title").Text(),
			Page:  d.resolveDest(v),
		}
		entry.Children = d.walkOutline(v.Key("First"))
		out = append(out, entry)
		v = v.Key("Next")
	}
	return out
}

// resolveDest resolves an outline item's destination to a 1-based page
// number, trying the direct Dest entry first and then a GoTo action.
// Returns 0 when the destination cannot be matched to a page.
func (d *Document) resolveDest(item pdflib.Value) int {
	if page := d.destPage(item.Key("Dest")); page > 0 {
		return page
	}
	action := item.Key("A")
	if action.IsNull() || action.Key("S").Name() != "GoTo" {
		return 0
	}
	return d.destPage(action.Key("D"))
}

// destPage maps an explicit destination array to a page number. The first
// array element is the target page object; named destinations are not
// resolved and fall through to 0.
func (d *Document) destPage(dest pdflib.Value) int {
	if dest.Kind() != pdflib.Array || dest.Len() == 0 {
		return 0
	}
	target := dest.Index(0)
	if target.IsNull() {
		return 0
	}
	return d.pageIndex[target.String()]
}
