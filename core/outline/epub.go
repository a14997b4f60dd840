package outline

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"bookslicer/core"
)

// NCX XML structures for the EPUB2 navigation control file.
type ncx struct {
	NavMap navMap `xml:"navMap"`
}

type navMap struct {
	NavPoints []navPoint `xml:"navPoint"`
}

type navPoint struct {
	Label    navLabel   `xml:"navLabel"`
	Content  navContent `xml:"content"`
	Children []navPoint `xml:"navPoint"`
}

type navLabel struct {
	Text string `xml:"text"`
}

type navContent struct {
	Src string `xml:"src,attr"`
}

// BuildEPUBTree converts an EPUB's navigation data into a chapter tree.
// The EPUB3 nav document is preferred; when it is absent or structurally
// empty the EPUB2 NCX navigation map is used instead. When neither source
// yields any entries the extraction fails with core.ErrNoNavigationData.
func BuildEPUBTree(c core.EPUBContainer, log *slog.Logger) (*core.ChapterTree, error) {
	var roots []*core.ChapterNode

	if data, navPath, ok := c.NavDoc(); ok {
		parsed, err := parseNavDoc(data)
		if err != nil {
			return nil, fmt.Errorf("parsing nav document %s: %w", navPath, err)
		}
		roots = parsed
	}

	if len(roots) == 0 {
		if data, ok := c.NCX(); ok {
			log.Debug("nav document missing or empty, falling back to ncx")
			parsed, err := parseNCX(data)
			if err != nil {
				return nil, fmt.Errorf("parsing ncx: %w", err)
			}
			roots = parsed
		}
	}

	if len(roots) == 0 {
		return nil, core.ErrNoNavigationData
	}

	return &core.ChapterTree{
		Format: core.FormatEPUB,
		Title:  c.Title(),
		Roots:  roots,
	}, nil
}

// parseNavDoc parses an EPUB3 navigation document. The toc nav element is
// preferred; documents with a single unlabeled nav fall back to it.
func parseNavDoc(data []byte) ([]*core.ChapterNode, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	navs := doc.Find("nav")
	if navs.Length() == 0 {
		return nil, nil
	}

	toc := navs.First()
	navs.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if typ, _ := s.Attr("epub:type"); typ == "toc" {
			toc = s
			return false
		}
		return true
	})

	list := toc.ChildrenFiltered("ol").First()
	return parseNavList(list, "", 0), nil
}

// parseNavList recursively parses an ol/li nav structure, assigning each
// entry an id of the form parentId-childIndex in sibling order.
func parseNavList(list *goquery.Selection, parentID string, level int) []*core.ChapterNode {
	var nodes []*core.ChapterNode

	list.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		id := childID(parentID, i)
		link := li.ChildrenFiltered("a").First()
		title := link.Text()
		if link.Length() == 0 {
			// Some nav docs label grouping entries with a span.
			title = li.ChildrenFiltered("span").First().Text()
		}
		target, _ := link.Attr("href")
		href, anchor := splitTarget(target)

		n := &core.ChapterNode{
			ID:     id,
			Title:  displayTitle(title),
			Level:  level,
			Href:   href,
			Anchor: anchor,
		}
		if sub := li.ChildrenFiltered("ol").First(); sub.Length() > 0 {
			n.Children = parseNavList(sub, id, level+1)
		}
		nodes = append(nodes, n)
	})
	return nodes
}

// parseNCX parses an EPUB2 NCX navMap.
func parseNCX(data []byte) ([]*core.ChapterNode, error) {
	var toc ncx
	if err := xml.Unmarshal(data, &toc); err != nil {
		return nil, err
	}
	return ncxNodes(toc.NavMap.NavPoints, "", 0), nil
}

func ncxNodes(points []navPoint, parentID string, level int) []*core.ChapterNode {
	var nodes []*core.ChapterNode
	for i, np := range points {
		id := childID(parentID, i)
		href, anchor := splitTarget(np.Content.Src)
		n := &core.ChapterNode{
			ID:     id,
			Title:  displayTitle(np.Label.Text),
			Level:  level,
			Href:   href,
			Anchor: anchor,
		}
		n.Children = ncxNodes(np.Children, id, level+1)
		nodes = append(nodes, n)
	}
	return nodes
}
