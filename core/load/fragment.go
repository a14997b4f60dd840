package load

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are elements stripped from every resource before
// slicing. They contribute nothing renderable to a chapter.
var noiseSelectors = []string{"script", "style", "noscript"}

// sectioningTags are containers whose full subtree is the fragment when
// an anchor lands on them.
var sectioningTags = map[string]bool{
	"section": true,
	"div":     true,
	"article": true,
	"aside":   true,
}

// fragment slices the chapter fragment addressed by anchor out of a
// resource document.
//
// An empty anchor selects the whole body. An anchor on a sectioning
// container selects that element's subtree. Any other anchor target
// selects the element plus its following siblings up to (not including)
// the next heading of equal-or-higher rank, reconstructing the implicit
// section boundary from heading semantics. stopID, when non-empty,
// additionally terminates the sibling walk at the element carrying that
// id (the anchor of the next chapter sharing this resource).
//
// The second return value reports whether the anchor was found; when it
// wasn't, the whole body is returned as a recoverable fallback.
func fragment(data []byte, anchor, stopID string) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", false, fmt.Errorf("parsing resource: %w", err)
	}
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		h, err := doc.Html()
		return h, anchor == "", err
	}

	if anchor == "" {
		if stopID == "" {
			h, err := body.Html()
			return h, true, err
		}
		// Whole-resource chapter bounded by the next chapter's anchor.
		h, err := upToID(body, stopID)
		return h, true, err
	}

	target := body.Find(fmt.Sprintf("[id=%q]", anchor)).First()
	if target.Length() == 0 {
		h, err := body.Html()
		return h, false, err
	}

	name := goquery.NodeName(target)
	if sectioningTags[name] {
		h, err := goquery.OuterHtml(target)
		return h, true, err
	}

	// Element start (typically a heading): accumulate siblings until the
	// implicit section ends.
	rank := headingRank(name)
	if rank == 0 {
		// Non-heading anchors take any heading as a boundary.
		rank = 7
	}

	var b strings.Builder
	h, err := goquery.OuterHtml(target)
	if err != nil {
		return "", true, err
	}
	b.WriteString(h)

	for s := target.Next(); s.Length() > 0; s = s.Next() {
		if r := headingRank(goquery.NodeName(s)); r > 0 && r <= rank {
			break
		}
		if stopID != "" && containsID(s, stopID) {
			break
		}
		h, err := goquery.OuterHtml(s)
		if err != nil {
			return "", true, err
		}
		b.WriteString(h)
	}
	return b.String(), true, nil
}

// upToID serializes the element's children up to (not including) the one
// carrying, or containing, the given id.
func upToID(parent *goquery.Selection, id string) (string, error) {
	var b strings.Builder
	var walkErr error
	parent.Children().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if containsID(s, id) {
			return false
		}
		h, err := goquery.OuterHtml(s)
		if err != nil {
			walkErr = err
			return false
		}
		b.WriteString(h)
		return true
	})
	return b.String(), walkErr
}

// headingRank maps h1..h6 to 1..6 (lower number = higher rank) and
// everything else to 0.
func headingRank(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// containsID reports whether the selection or any descendant carries id.
func containsID(s *goquery.Selection, id string) bool {
	if got, ok := s.Attr("id"); ok && got == id {
		return true
	}
	return s.Find(fmt.Sprintf("[id=%q]", id)).Length() > 0
}
