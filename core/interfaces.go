// Package core defines the shared types and stage interfaces for bookslicer.
// Each stage of the pipeline (outline parsing, range resolution, content
// loading, export planning, rendering) operates on these types through a
// clean, testable interface.
package core

// Format identifies the source e-book format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatEPUB Format = "epub"
)

// ChapterNode is one entry in the extracted chapter tree.
// PDF trees use StartPage/EndPage, EPUB trees use Href/Anchor/Content;
// the remaining fields are format-agnostic.
type ChapterNode struct {
	// ID encodes the tree position ("0", "0-1", "0-1-2", ...). It is the
	// stable identity used for selection, merge flags, and parent lookup.
	ID    string `json:"id"`
	Title string `json:"title"`
	// Level is the depth from the root; root siblings are level 0.
	Level    int            `json:"level"`
	Children []*ChapterNode `json:"children,omitempty"`

	// PDF variant: 1-based inclusive page numbers.
	StartPage int `json:"start_page,omitempty"`
	EndPage   int `json:"end_page,omitempty"`

	// EPUB variant.
	Href    string `json:"href,omitempty"`
	Anchor  string `json:"anchor,omitempty"`
	Content string `json:"-"`
}

// IsLeaf reports whether the node has no sub-chapters.
func (n *ChapterNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Clone returns a deep copy of the node and its subtree.
func (n *ChapterNode) Clone() *ChapterNode {
	c := *n
	c.Children = nil
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return &c
}

// Walk visits the node and its subtree in pre-order.
func (n *ChapterNode) Walk(fn func(*ChapterNode)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Leaves returns the node's descendant leaves in tree order.
// A childless node is its own only leaf.
func (n *ChapterNode) Leaves() []*ChapterNode {
	if n.IsLeaf() {
		return []*ChapterNode{n}
	}
	var out []*ChapterNode
	for _, c := range n.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// ChapterTree is the full extracted chapter forest for one document.
type ChapterTree struct {
	Format Format         `json:"format"`
	Title  string         `json:"title,omitempty"`
	Roots  []*ChapterNode `json:"roots"`
	// TotalPages is only meaningful for FormatPDF.
	TotalPages int `json:"total_pages,omitempty"`
}

// Clone returns a deep copy of the tree.
func (t *ChapterTree) Clone() *ChapterTree {
	c := &ChapterTree{Format: t.Format, Title: t.Title, TotalPages: t.TotalPages}
	for _, r := range t.Roots {
		c.Roots = append(c.Roots, r.Clone())
	}
	return c
}

// Walk visits every node of the tree in pre-order.
func (t *ChapterTree) Walk(fn func(*ChapterNode)) {
	for _, r := range t.Roots {
		r.Walk(fn)
	}
}

// Leaves returns all leaves of the tree in tree order.
func (t *ChapterTree) Leaves() []*ChapterNode {
	var out []*ChapterNode
	for _, r := range t.Roots {
		out = append(out, r.Leaves()...)
	}
	return out
}

// Node returns the node with the given id, or nil.
func (t *ChapterTree) Node(id string) *ChapterNode {
	var found *ChapterNode
	t.Walk(func(n *ChapterNode) {
		if n.ID == id {
			found = n
		}
	})
	return found
}

// ContentUnit is one leaf-level content descriptor inside an export task.
// PDF units carry a page range, EPUB units carry an HTML fragment.
type ContentUnit struct {
	ID        string
	Title     string
	StartPage int
	EndPage   int
	HTML      string
}

// PageRange is a 1-based inclusive page span.
type PageRange struct {
	Start int
	End   int
}

// ExportTask is one planned output artifact: a name, the titles of the
// chapter's ancestors (root first), and the ordered content it covers.
// Tasks are created fresh per export and consumed immediately.
type ExportTask struct {
	Name         string
	ParentTitles []string
	Units        []ContentUnit
}

// Progress is a typed progress event delivered during content loading.
type Progress struct {
	Current int
	Total   int
	Label   string
}

// ProgressFunc receives throttled progress events. May be nil.
type ProgressFunc func(Progress)

// PDFOutlineEntry is one raw outline (bookmark) entry from a PDF document.
// Page is the resolved 1-based destination page, or 0 when the destination
// could not be resolved.
type PDFOutlineEntry struct {
	Title    string
	Page     int
	Children []PDFOutlineEntry
}

// PDFDocument is the handle the outline parser needs from an opened PDF.
type PDFDocument interface {
	PageCount() int
	Outline() []PDFOutlineEntry
	Title() string
}

// EPUBContainer is the handle the outline parser and content loader need
// from an opened EPUB archive.
type EPUBContainer interface {
	Title() string
	// NavDoc returns the EPUB3 navigation document and its archive path,
	// if the manifest declares one.
	NavDoc() (data []byte, path string, ok bool)
	// NCX returns the EPUB2 navigation control file, if present.
	NCX() (data []byte, ok bool)
	// ReadResource reads a content resource by OPF-relative href.
	ReadResource(href string) ([]byte, error)
}
