// Package plan turns a chapter selection with merge flags into an ordered
// list of export tasks. Planning is deterministic: the same tree,
// selection, flags, and mode always yield the same task list. All working
// state (the processed-id set) is local to one Plan call.
package plan

import (
	"sort"

	"bookslicer/core"
)

// Mode controls what happens when the selection covers the entire tree.
type Mode string

const (
	// ModeSeparate plans one task per selection rule as usual.
	ModeSeparate Mode = "separate"
	// ModeMerge collapses a whole-tree selection into a single task.
	// It has no effect on partial selections.
	ModeMerge Mode = "merge"
)

// wholeBookName names the single task of a whole-tree merge.
const wholeBookName = "All Chapters"

// introSuffix marks the synthetic unit carrying a parent's independent
// content (the span ahead of its first selected descendant).
const introSuffix = "_intro"

// Plan evaluates the selection over the tree in pre-order. Each node is
// resolved into at most one task; merge-flagged parents absorb their
// selected descendants, selected parents with independent content emit an
// intro-only task ahead of their individually-handled children, and
// selected leaves emit single-chapter tasks.
func Plan(tree *core.ChapterTree, selected, merged map[string]bool, mode Mode) []core.ExportTask {
	if tree == nil || len(tree.Roots) == 0 {
		return nil
	}

	if mode == ModeMerge && coversTree(tree, selected) {
		return []core.ExportTask{wholeBookTask(tree)}
	}

	p := &planner{
		format:    tree.Format,
		selected:  selected,
		merged:    merged,
		processed: make(map[string]bool),
	}
	for _, root := range tree.Roots {
		p.visit(root, nil)
	}
	return p.tasks
}

type planner struct {
	format    core.Format
	selected  map[string]bool
	merged    map[string]bool
	processed map[string]bool
	tasks     []core.ExportTask
}

func (p *planner) visit(n *core.ChapterNode, ancestors []string) {
	if !p.processed[n.ID] {
		switch {
		case p.merged[n.ID] && !n.IsLeaf() && len(p.selectedLeaves(n)) > 0:
			p.emitMerged(n, ancestors)
		case p.selected[n.ID] && !n.IsLeaf():
			p.emitParent(n, ancestors)
		case p.selected[n.ID]:
			p.tasks = append(p.tasks, core.ExportTask{
				Name:         n.Title,
				ParentTitles: ancestors,
				Units:        []core.ContentUnit{leafUnit(n)},
			})
			p.processed[n.ID] = true
		}
	}

	childAncestors := append(append([]string{}, ancestors...), n.Title)
	for _, c := range n.Children {
		p.visit(c, childAncestors)
	}
}

// emitMerged handles a merge-flagged parent: one task combining the
// parent's independent content (if any) with all its selected descendant
// leaves, which are thereby consumed.
func (p *planner) emitMerged(n *core.ChapterNode, ancestors []string) {
	leaves := p.selectedLeaves(n)
	if p.format == core.FormatPDF {
		sort.SliceStable(leaves, func(i, j int) bool {
			return leaves[i].StartPage < leaves[j].StartPage
		})
	}

	var units []core.ContentUnit
	if intro, ok := p.introUnit(n, leaves[0]); ok {
		units = append(units, intro)
	}
	for _, leaf := range leaves {
		units = append(units, leafUnit(leaf))
	}

	p.tasks = append(p.tasks, core.ExportTask{
		Name:         n.Title,
		ParentTitles: ancestors,
		Units:        units,
	})

	p.processed[n.ID] = true
	n.Walk(func(d *core.ChapterNode) {
		if p.selected[d.ID] {
			p.processed[d.ID] = true
		}
	})
}

// emitParent handles a selected, non-flagged parent. With selected
// descendants it only contributes its independent content, if any, as an
// intro-only task; its children stay unprocessed and are planned on their
// own. With no selected descendants it stands for its whole span.
func (p *planner) emitParent(n *core.ChapterNode, ancestors []string) {
	leaves := p.selectedLeaves(n)

	if len(leaves) == 0 {
		p.tasks = append(p.tasks, core.ExportTask{
			Name:         n.Title,
			ParentTitles: ancestors,
			Units:        p.wholeSpanUnits(n),
		})
		n.Walk(func(d *core.ChapterNode) { p.processed[d.ID] = true })
		return
	}

	first := leaves[0]
	if p.format == core.FormatPDF {
		for _, leaf := range leaves[1:] {
			if leaf.StartPage < first.StartPage {
				first = leaf
			}
		}
	}

	if intro, ok := p.introUnit(n, first); ok {
		p.tasks = append(p.tasks, core.ExportTask{
			Name:         n.Title,
			ParentTitles: ancestors,
			Units:        []core.ContentUnit{intro},
		})
		p.processed[n.ID] = true
	}
}

// introUnit builds the synthetic leaf for a parent's independent content.
// The PDF policy compares start pages; the EPUB policy checks for
// resolved content. The asymmetry is intentional given the formats'
// different addressing.
func (p *planner) introUnit(n, firstLeaf *core.ChapterNode) (core.ContentUnit, bool) {
	if p.format == core.FormatPDF {
		if n.StartPage >= firstLeaf.StartPage {
			return core.ContentUnit{}, false
		}
		return core.ContentUnit{
			ID:        n.ID + introSuffix,
			Title:     n.Title,
			StartPage: n.StartPage,
			EndPage:   firstLeaf.StartPage - 1,
		}, true
	}
	if n.Content == "" {
		return core.ContentUnit{}, false
	}
	return core.ContentUnit{
		ID:    n.ID + introSuffix,
		Title: n.Title,
		HTML:  n.Content,
	}, true
}

// wholeSpanUnits covers a parent selected without any selected
// descendants: its full page span (PDF) or its own content followed by
// all its descendant leaves (EPUB).
func (p *planner) wholeSpanUnits(n *core.ChapterNode) []core.ContentUnit {
	if p.format == core.FormatPDF {
		return []core.ContentUnit{{
			ID:        n.ID,
			Title:     n.Title,
			StartPage: n.StartPage,
			EndPage:   n.EndPage,
		}}
	}
	var units []core.ContentUnit
	if n.Content != "" {
		units = append(units, core.ContentUnit{ID: n.ID + introSuffix, Title: n.Title, HTML: n.Content})
	}
	for _, leaf := range n.Leaves() {
		units = append(units, leafUnit(leaf))
	}
	return units
}

// selectedLeaves returns n's selected descendant leaves in tree order,
// skipping leaves already consumed by an ancestor's task. A merge-flagged
// parent nested under another merge-flagged parent therefore sees no
// leaves left and emits nothing.
func (p *planner) selectedLeaves(n *core.ChapterNode) []*core.ChapterNode {
	var out []*core.ChapterNode
	for _, c := range n.Children {
		for _, leaf := range c.Leaves() {
			if p.selected[leaf.ID] && !p.processed[leaf.ID] {
				out = append(out, leaf)
			}
		}
	}
	return out
}

// coversTree reports whether the selection is literally every node id.
func coversTree(tree *core.ChapterTree, selected map[string]bool) bool {
	covered := true
	total := 0
	tree.Walk(func(n *core.ChapterNode) {
		total++
		if !selected[n.ID] {
			covered = false
		}
	})
	return covered && total == len(selected)
}

// wholeBookTask flattens the entire tree into one generically named task,
// leaves in page order (PDF) or document order (EPUB).
func wholeBookTask(tree *core.ChapterTree) core.ExportTask {
	leaves := tree.Leaves()
	if tree.Format == core.FormatPDF {
		sorted := make([]*core.ChapterNode, len(leaves))
		copy(sorted, leaves)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].StartPage < sorted[j].StartPage
		})
		leaves = sorted
	}

	task := core.ExportTask{Name: wholeBookName}
	for _, leaf := range leaves {
		task.Units = append(task.Units, leafUnit(leaf))
	}
	return task
}

func leafUnit(n *core.ChapterNode) core.ContentUnit {
	return core.ContentUnit{
		ID:        n.ID,
		Title:     n.Title,
		StartPage: n.StartPage,
		EndPage:   n.EndPage,
		HTML:      n.Content,
	}
}
