package resolve

import (
	"bytes"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"testing"

	"bookslicer/core"
)

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sampleTree builds the outline [A(p1, [A1(p1), A2(p10)]), B(p20)] over a
// 30-page document.
func sampleTree() *core.ChapterTree {
	return &core.ChapterTree{
		Format:     core.FormatPDF,
		TotalPages: 30,
		Roots: []*core.ChapterNode{
			{ID: "0", Title: "A", StartPage: 1, Children: []*core.ChapterNode{
				{ID: "0-0", Title: "A1", Level: 1, StartPage: 1},
				{ID: "0-1", Title: "A2", Level: 1, StartPage: 10},
			}},
			{ID: "1", Title: "B", StartPage: 20},
		},
	}
}

func TestPages_Scenario(t *testing.T) {
	resolved := Pages(sampleTree(), discardLog())

	want := map[string][2]int{
		"0-0": {1, 9},
		"0-1": {10, 19},
		"0":   {1, 19},
		"1":   {20, 30},
	}
	resolved.Walk(func(n *core.ChapterNode) {
		w, ok := want[n.ID]
		if !ok {
			t.Errorf("unexpected node %q", n.ID)
			return
		}
		if n.StartPage != w[0] || n.EndPage != w[1] {
			t.Errorf("node %s = [%d,%d], want [%d,%d]", n.ID, n.StartPage, n.EndPage, w[0], w[1])
		}
	})
}

func TestPages_DoesNotMutateInput(t *testing.T) {
	tree := sampleTree()
	Pages(tree, discardLog())

	tree.Walk(func(n *core.ChapterNode) {
		if n.EndPage != 0 {
			t.Errorf("input node %s mutated: EndPage = %d", n.ID, n.EndPage)
		}
	})
}

func TestPages_Idempotent(t *testing.T) {
	once := Pages(sampleTree(), discardLog())
	twice := Pages(once, discardLog())

	if !reflect.DeepEqual(once, twice) {
		t.Error("re-resolving an already-resolved tree changed boundaries")
	}
}

func TestPages_LeavesCoverDocumentContiguously(t *testing.T) {
	// Outline order deliberately disagrees with page order for the last
	// two siblings; only the final sort by start page corrects leaf ends.
	tree := &core.ChapterTree{
		Format:     core.FormatPDF,
		TotalPages: 50,
		Roots: []*core.ChapterNode{
			{ID: "0", Title: "Intro", StartPage: 1},
			{ID: "1", Title: "Body", StartPage: 4, Children: []*core.ChapterNode{
				{ID: "1-0", Title: "One", Level: 1, StartPage: 6},
				{ID: "1-1", Title: "Two", Level: 1, StartPage: 22},
			}},
			{ID: "2", Title: "Appendix", StartPage: 44},
			{ID: "3", Title: "Notes", StartPage: 40},
		},
	}

	resolved := Pages(tree, discardLog())
	leaves := resolved.Leaves()
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].StartPage < leaves[j].StartPage })

	next := 1
	for _, leaf := range leaves {
		if leaf.StartPage != next {
			t.Errorf("leaf %s starts at %d, want %d (gap or overlap)", leaf.ID, leaf.StartPage, next)
		}
		if leaf.EndPage < leaf.StartPage {
			t.Errorf("leaf %s has inverted range [%d,%d]", leaf.ID, leaf.StartPage, leaf.EndPage)
		}
		next = leaf.EndPage + 1
	}
	if next != resolved.TotalPages+1 {
		t.Errorf("leaves cover up to page %d, want %d", next-1, resolved.TotalPages)
	}
}

func TestPages_ParentEndEqualsLastDescendantLeaf(t *testing.T) {
	tree := &core.ChapterTree{
		Format:     core.FormatPDF,
		TotalPages: 100,
		Roots: []*core.ChapterNode{
			{ID: "0", StartPage: 1, Children: []*core.ChapterNode{
				{ID: "0-0", Level: 1, StartPage: 2},
				{ID: "0-1", Level: 1, StartPage: 10, Children: []*core.ChapterNode{
					{ID: "0-1-0", Level: 2, StartPage: 11},
					{ID: "0-1-1", Level: 2, StartPage: 30},
				}},
			}},
			{ID: "1", StartPage: 60},
		},
	}

	resolved := Pages(tree, discardLog())
	resolved.Walk(func(n *core.ChapterNode) {
		if n.IsLeaf() {
			return
		}
		last := n
		for !last.IsLeaf() {
			last = last.Children[len(last.Children)-1]
		}
		if n.EndPage != last.EndPage {
			t.Errorf("parent %s end = %d, want last descendant leaf end %d", n.ID, n.EndPage, last.EndPage)
		}
	})
}

func TestPages_DuplicateStartPagesAreWarned(t *testing.T) {
	tree := &core.ChapterTree{
		Format:     core.FormatPDF,
		TotalPages: 10,
		Roots: []*core.ChapterNode{
			{ID: "0", Title: "First", StartPage: 5},
			{ID: "1", Title: "Second", StartPage: 5},
		},
	}

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	resolved := Pages(tree, log)

	first := resolved.Node("0")
	if first.EndPage >= first.StartPage {
		t.Errorf("expected node 0 to get an empty range, got [%d,%d]", first.StartPage, first.EndPage)
	}
	out := buf.String()
	if !strings.Contains(out, "empty page range") || !strings.Contains(out, `id=0`) {
		t.Errorf("expected a warning naming node 0, got log output %q", out)
	}
}

func TestPages_EPUBPassesThrough(t *testing.T) {
	tree := &core.ChapterTree{
		Format: core.FormatEPUB,
		Roots: []*core.ChapterNode{
			{ID: "0", Title: "Ch", Href: "ch.xhtml"},
		},
	}

	resolved := Pages(tree, discardLog())
	if !reflect.DeepEqual(tree, resolved) {
		t.Error("EPUB tree should pass through unchanged")
	}
	if tree.Roots[0] == resolved.Roots[0] {
		t.Error("resolved tree should be a copy, not share nodes with the input")
	}
}
