// Package load populates chapter content for EPUB trees. Each distinct
// resource is read exactly once regardless of how many chapters address
// sections of it; reads proceed in bounded-size concurrent batches with a
// short pause between batches, and progress is reported through a
// throttled typed callback.
package load

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bookslicer/core"
)

const (
	// DefaultBatchSize bounds how many resources load concurrently.
	DefaultBatchSize = 10

	// batchDelay yields control between batches to keep the caller
	// responsive.
	batchDelay = 10 * time.Millisecond
)

// ResourceReader reads a content resource by href.
type ResourceReader interface {
	ReadResource(href string) ([]byte, error)
}

// Loader fills in chapter content for one EPUB tree. All intermediate
// state (the resource cache) is local to a single Load call.
type Loader struct {
	Resources ResourceReader
	BatchSize int
	Log       *slog.Logger
}

func New(r ResourceReader, log *slog.Logger) *Loader {
	return &Loader{Resources: r, BatchSize: DefaultBatchSize, Log: log}
}

// loadTarget is one node to populate. stopID bounds a parent's fragment
// at the anchor of its first descendant leaf when both share a resource.
type loadTarget struct {
	node   *core.ChapterNode
	stopID string
}

// Load populates Content on every leaf, and on every parent whose anchor
// addresses content ahead of its first descendant leaf (the parent's
// independent content). Trees of other formats pass through untouched.
//
// A missing anchor falls back to the whole resource and is logged; a
// failed resource read aborts the load.
func (l *Loader) Load(tree *core.ChapterTree, onProgress core.ProgressFunc) error {
	if tree.Format != core.FormatEPUB {
		return nil
	}

	targets := collectTargets(tree)
	if len(targets) == 0 {
		return nil
	}

	queue := newResourceQueue()
	for _, t := range targets {
		queue.Add(t.node.Href)
	}

	prog := newThrottle(onProgress)
	cache, err := l.loadResources(queue.All(), prog)
	if err != nil {
		return err
	}

	for i, t := range targets {
		node := t.node
		html, found, err := fragment(cache[node.Href], node.Anchor, t.stopID)
		if err != nil {
			return fmt.Errorf("extracting content for %q: %w", node.Title, err)
		}
		if !found {
			l.Log.Warn("anchor not found, falling back to whole resource",
				"id", node.ID, "href", node.Href, "anchor", node.Anchor)
		}
		node.Content = html
		prog.emit(core.Progress{Current: i + 1, Total: len(targets), Label: node.Title})
	}
	prog.flush(core.Progress{Current: len(targets), Total: len(targets), Label: "content loaded"})
	return nil
}

// loadResources reads the distinct hrefs in sequential batches; items
// within a batch load concurrently. Every batch ends with a mandatory
// progress callback.
func (l *Loader) loadResources(hrefs []string, prog *throttle) (map[string][]byte, error) {
	batch := l.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	cache := make(map[string][]byte, len(hrefs))
	var mu sync.Mutex
	var firstErr error

	for start := 0; start < len(hrefs); start += batch {
		end := min(start+batch, len(hrefs))

		var wg sync.WaitGroup
		for _, href := range hrefs[start:end] {
			wg.Add(1)
			go func(href string) {
				defer wg.Done()
				data, err := l.Resources.ReadResource(href)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("loading %s: %w", href, err)
					}
					return
				}
				cache[href] = data
			}(href)
		}
		wg.Wait()

		if firstErr != nil {
			return nil, firstErr
		}
		prog.flush(core.Progress{Current: end, Total: len(hrefs), Label: "loading resources"})
		if end < len(hrefs) {
			time.Sleep(batchDelay)
		}
	}
	return cache, nil
}

// collectTargets gathers every leaf with an href, plus every parent whose
// own (href, anchor) differs from its first descendant leaf's. A parent
// addressing the exact location of its first leaf has no independent
// content and is skipped.
func collectTargets(tree *core.ChapterTree) []loadTarget {
	var out []loadTarget
	tree.Walk(func(n *core.ChapterNode) {
		if n.Href == "" {
			return
		}
		if n.IsLeaf() {
			out = append(out, loadTarget{node: n})
			return
		}
		first := n.Leaves()[0]
		if first.Href == n.Href && first.Anchor == n.Anchor {
			return
		}
		t := loadTarget{node: n}
		if first.Href == n.Href {
			t.stopID = first.Anchor
		}
		out = append(out, t)
	})
	return out
}
