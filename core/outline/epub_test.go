package outline

import (
	"errors"
	"testing"

	"bookslicer/core"
)

type fakeContainer struct {
	title     string
	nav       []byte
	navPath   string
	ncx       []byte
	resources map[string][]byte
}

func (f *fakeContainer) Title() string { return f.title }

func (f *fakeContainer) NavDoc() ([]byte, string, bool) {
	if f.nav == nil {
		return nil, "", false
	}
	return f.nav, f.navPath, true
}

func (f *fakeContainer) NCX() ([]byte, bool) {
	if f.ncx == nil {
		return nil, false
	}
	return f.ncx, true
}

func (f *fakeContainer) ReadResource(href string) ([]byte, error) {
	return f.resources[href], nil
}

const navDoc = `<html xmlns:epub="http://www.idpf.org/2007/ops"><body>
<nav epub:type="landmarks"><ol><li><a href="cover.xhtml">Cover</a></li></ol></nav>
<nav epub:type="toc">
  <ol>
    <li><a href="part1.xhtml">Part One</a>
      <ol>
        <li><a href="part1.xhtml#s1">Section 1</a></li>
        <li><a href="part1.xhtml#s2">Section 2</a></li>
      </ol>
    </li>
    <li><a href="part2.xhtml">Part Two</a></li>
  </ol>
</nav>
</body></html>`

const ncxDoc = `<?xml version="1.0"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/">
  <navMap>
    <navPoint id="n1"><navLabel><text>Chapter 1</text></navLabel>
      <content src="ch1.xhtml"/>
      <navPoint id="n1a"><navLabel><text>1.1</text></navLabel>
        <content src="ch1.xhtml#a"/>
      </navPoint>
    </navPoint>
    <navPoint id="n2"><navLabel><text>Chapter 2</text></navLabel>
      <content src="ch2.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

func TestBuildEPUBTree_NavDoc(t *testing.T) {
	c := &fakeContainer{title: "Novel", nav: []byte(navDoc), navPath: "nav.xhtml"}

	tree, err := BuildEPUBTree(c, discardLog())
	if err != nil {
		t.Fatalf("BuildEPUBTree failed: %v", err)
	}

	if tree.Format != core.FormatEPUB {
		t.Errorf("format = %q, want %q", tree.Format, core.FormatEPUB)
	}
	if tree.Title != "Novel" {
		t.Errorf("title = %q, want Novel", tree.Title)
	}
	if len(tree.Roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(tree.Roots))
	}

	part1 := tree.Roots[0]
	if part1.ID != "0" || part1.Title != "Part One" || part1.Href != "part1.xhtml" || part1.Anchor != "" {
		t.Errorf("unexpected part1 node: %+v", part1)
	}
	if len(part1.Children) != 2 {
		t.Fatalf("part1 has %d children, want 2", len(part1.Children))
	}

	s2 := part1.Children[1]
	if s2.ID != "0-1" || s2.Href != "part1.xhtml" || s2.Anchor != "s2" || s2.Level != 1 {
		t.Errorf("unexpected s2 node: %+v", s2)
	}
}

func TestBuildEPUBTree_FallsBackToNCX(t *testing.T) {
	tests := []struct {
		name string
		nav  []byte
	}{
		{name: "no nav doc", nav: nil},
		{name: "structurally empty nav doc", nav: []byte(`<html><body><nav epub:type="toc"><ol></ol></nav></body></html>`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeContainer{nav: tt.nav, navPath: "nav.xhtml", ncx: []byte(ncxDoc)}

			tree, err := BuildEPUBTree(c, discardLog())
			if err != nil {
				t.Fatalf("BuildEPUBTree failed: %v", err)
			}
			if len(tree.Roots) != 2 {
				t.Fatalf("got %d roots, want 2", len(tree.Roots))
			}
			sub := tree.Roots[0].Children
			if len(sub) != 1 || sub[0].ID != "0-0" || sub[0].Anchor != "a" {
				t.Errorf("unexpected ncx child nodes: %+v", sub)
			}
		})
	}
}

func TestBuildEPUBTree_NoNavigationData(t *testing.T) {
	c := &fakeContainer{}

	_, err := BuildEPUBTree(c, discardLog())
	if !errors.Is(err, core.ErrNoNavigationData) {
		t.Fatalf("error = %v, want ErrNoNavigationData", err)
	}
}

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		target string
		href   string
		anchor string
	}{
		{"ch1.xhtml", "ch1.xhtml", ""},
		{"ch1.xhtml#s1", "ch1.xhtml", "s1"},
		{"ch1.xhtml#s1#odd", "ch1.xhtml", "s1#odd"},
		{"#local", "", "local"},
	}

	for _, tt := range tests {
		href, anchor := splitTarget(tt.target)
		if href != tt.href || anchor != tt.anchor {
			t.Errorf("splitTarget(%q) = (%q, %q), want (%q, %q)",
				tt.target, href, anchor, tt.href, tt.anchor)
		}
	}
}
