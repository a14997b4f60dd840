// Package resolve computes concrete page boundaries for every node of a
// PDF chapter tree. Leaves are given contiguous, non-overlapping ranges
// covering [1, totalPages]; parents inherit the end page of their last
// descendant leaf while keeping their own declared start page, so a parent
// starting before its first child retains that span as independent content.
package resolve

import (
	"log/slog"
	"sort"

	"bookslicer/core"
)

// Pages returns a new tree annotated with resolved start/end pages.
// The input tree is not mutated. EPUB trees are returned as a plain copy:
// their chapters are self-delimiting by resource and anchor.
//
// Declared outline order is trusted over declared page numbers; the only
// correction applied is the sort of leaves by start page when assigning
// end boundaries. Running Pages on an already-resolved tree yields
// identical boundaries.
//
// Two leaves declaring the same start page leave the earlier one with an
// empty range; it is logged here since the export stage silently drops
// rangeless chapters.
func Pages(tree *core.ChapterTree, log *slog.Logger) *core.ChapterTree {
	out := tree.Clone()
	if out.Format != core.FormatPDF {
		return out
	}

	leaves := out.Leaves()
	if len(leaves) == 0 {
		// Empty trees are rejected upstream by the outline parser.
		return out
	}

	// Outline order and page order usually coincide but are not
	// guaranteed to; end boundaries follow page order.
	sorted := make([]*core.ChapterNode, len(leaves))
	copy(sorted, leaves)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartPage < sorted[j].StartPage
	})

	for i, leaf := range sorted {
		if i == len(sorted)-1 {
			leaf.EndPage = out.TotalPages
		} else {
			leaf.EndPage = sorted[i+1].StartPage - 1
		}
		if leaf.EndPage < leaf.StartPage {
			log.Warn("chapter resolved to an empty page range and will not export",
				"id", leaf.ID, "title", leaf.Title,
				"start", leaf.StartPage, "end", leaf.EndPage)
		}
	}

	for _, root := range out.Roots {
		propagate(root)
	}
	return out
}

// propagate sets every parent's end page to the end page of its last
// descendant leaf, post-order, following last children down to a leaf.
func propagate(n *core.ChapterNode) {
	if n.IsLeaf() {
		return
	}
	for _, c := range n.Children {
		propagate(c)
	}
	n.EndPage = lastLeaf(n).EndPage
}

func lastLeaf(n *core.ChapterNode) *core.ChapterNode {
	for !n.IsLeaf() {
		n = n.Children[len(n.Children)-1]
	}
	return n
}
