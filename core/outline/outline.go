// Package outline converts format-specific tables of contents into the
// format-agnostic chapter tree. PDF outlines are walked through a
// core.PDFDocument handle; EPUBs prefer the EPUB3 nav document and fall
// back to the EPUB2 NCX navigation map.
package outline

import (
	"fmt"
	"strings"
)

const untitled = "Untitled Chapter"

// childID derives a node id from its parent id and sibling index.
// Root siblings (empty parent) get bare indexes: "0", "1", ...
func childID(parentID string, index int) string {
	if parentID == "" {
		return fmt.Sprintf("%d", index)
	}
	return fmt.Sprintf("%s-%d", parentID, index)
}

// displayTitle trims a source title and substitutes a placeholder for
// blank ones so every node renders something selectable.
func displayTitle(raw string) string {
	t := strings.TrimSpace(raw)
	if t == "" {
		return untitled
	}
	return t
}

// splitTarget splits an EPUB navigation target into resource href and
// optional anchor on the first '#'.
func splitTarget(target string) (href, anchor string) {
	if i := strings.Index(target, "#"); i >= 0 {
		return target[:i], target[i+1:]
	}
	return target, ""
}
