package load

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"bookslicer/core"
)

type countingReader struct {
	mu    sync.Mutex
	files map[string]string
	reads map[string]int
}

func newCountingReader(files map[string]string) *countingReader {
	return &countingReader{files: files, reads: make(map[string]int)}
}

func (r *countingReader) ReadResource(href string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads[href]++
	data, ok := r.files[href]
	if !ok {
		return nil, fmt.Errorf("missing resource %s", href)
	}
	return []byte(data), nil
}

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const sharedResource = `<html><body>
<h2 id="s1">Section One</h2><p>alpha</p>
<h2 id="s2">Section Two</h2><p>gamma</p>
</body></html>`

func TestLoad_SharedResourceReadOnce(t *testing.T) {
	tree := &core.ChapterTree{
		Format: core.FormatEPUB,
		Roots: []*core.ChapterNode{
			{ID: "0", Title: "S1", Href: "ch.xhtml", Anchor: "s1"},
			{ID: "1", Title: "S2", Href: "ch.xhtml", Anchor: "s2"},
		},
	}
	reader := newCountingReader(map[string]string{"ch.xhtml": sharedResource})

	loader := New(reader, discardLog())
	if err := loader.Load(tree, nil); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := reader.reads["ch.xhtml"]; got != 1 {
		t.Errorf("shared resource read %d times, want 1", got)
	}

	s1, s2 := tree.Roots[0].Content, tree.Roots[1].Content
	if !strings.Contains(s1, "alpha") || strings.Contains(s1, "gamma") {
		t.Errorf("unexpected s1 fragment:\n%s", s1)
	}
	if !strings.Contains(s2, "gamma") || strings.Contains(s2, "alpha") {
		t.Errorf("unexpected s2 fragment:\n%s", s2)
	}
}

func TestLoad_ParentWithOwnAnchorGetsIndependentContent(t *testing.T) {
	doc := `<html><body>
<p id="pre">About this part</p>
<h2 id="c1">Chapter 1</h2><p>one</p>
</body></html>`

	tree := &core.ChapterTree{
		Format: core.FormatEPUB,
		Roots: []*core.ChapterNode{
			{ID: "0", Title: "Part", Href: "part.xhtml", Anchor: "pre", Children: []*core.ChapterNode{
				{ID: "0-0", Title: "Ch1", Level: 1, Href: "part.xhtml", Anchor: "c1"},
			}},
		},
	}
	reader := newCountingReader(map[string]string{"part.xhtml": doc})

	if err := New(reader, discardLog()).Load(tree, nil); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	parent := tree.Roots[0]
	if !strings.Contains(parent.Content, "About this part") {
		t.Errorf("parent independent content missing:\n%s", parent.Content)
	}
	if strings.Contains(parent.Content, "one") {
		t.Errorf("parent content should stop before its first child:\n%s", parent.Content)
	}
	if !strings.Contains(parent.Children[0].Content, "one") {
		t.Errorf("leaf content missing:\n%s", parent.Children[0].Content)
	}
}

func TestLoad_ParentAtSameLocationAsFirstChildGetsNoContent(t *testing.T) {
	tree := &core.ChapterTree{
		Format: core.FormatEPUB,
		Roots: []*core.ChapterNode{
			{ID: "0", Title: "Part", Href: "ch.xhtml", Anchor: "s1", Children: []*core.ChapterNode{
				{ID: "0-0", Title: "Ch1", Level: 1, Href: "ch.xhtml", Anchor: "s1"},
			}},
		},
	}
	reader := newCountingReader(map[string]string{"ch.xhtml": sharedResource})

	if err := New(reader, discardLog()).Load(tree, nil); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tree.Roots[0].Content != "" {
		t.Errorf("parent at its first child's location should have no content, got:\n%s", tree.Roots[0].Content)
	}
}

func TestLoad_MissingResourceAborts(t *testing.T) {
	tree := &core.ChapterTree{
		Format: core.FormatEPUB,
		Roots:  []*core.ChapterNode{{ID: "0", Title: "X", Href: "gone.xhtml"}},
	}
	reader := newCountingReader(nil)

	if err := New(reader, discardLog()).Load(tree, nil); err == nil {
		t.Fatal("expected error for missing resource")
	}
}

func TestLoad_ProgressEndsWithFinalCallback(t *testing.T) {
	files := make(map[string]string, 25)
	var roots []*core.ChapterNode
	for i := 0; i < 25; i++ {
		href := fmt.Sprintf("ch%d.xhtml", i)
		files[href] = fmt.Sprintf("<html><body><p>chapter %d</p></body></html>", i)
		roots = append(roots, &core.ChapterNode{ID: fmt.Sprintf("%d", i), Title: href, Href: href})
	}
	tree := &core.ChapterTree{Format: core.FormatEPUB, Roots: roots}

	var events []core.Progress
	loader := New(newCountingReader(files), discardLog())
	loader.BatchSize = 10
	if err := loader.Load(tree, func(p core.Progress) { events = append(events, p) }); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(events) == 0 {
		t.Fatal("expected progress events")
	}
	// Three batches of resource loads produce three mandatory callbacks.
	batchEnds := 0
	for _, e := range events {
		if e.Label == "loading resources" {
			batchEnds++
		}
	}
	if batchEnds != 3 {
		t.Errorf("got %d batch-final callbacks, want 3", batchEnds)
	}

	last := events[len(events)-1]
	if last.Current != last.Total {
		t.Errorf("final callback = %d/%d, want completion", last.Current, last.Total)
	}
}

func TestLoad_NonEPUBTreeIsNoop(t *testing.T) {
	tree := &core.ChapterTree{
		Format: core.FormatPDF,
		Roots:  []*core.ChapterNode{{ID: "0", StartPage: 1}},
	}
	reader := newCountingReader(nil)

	if err := New(reader, discardLog()).Load(tree, nil); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(reader.reads) != 0 {
		t.Errorf("PDF tree triggered %d resource reads", len(reader.reads))
	}
}
