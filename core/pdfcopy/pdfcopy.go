// Package pdfcopy copies page ranges from a source PDF into new
// documents, backed by pdfcpu. It implements the page-copy side of
// export: one range for a single chapter, a stitched sequence of ranges
// for a merged task.
package pdfcopy

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"bookslicer/core"
)

// CopyPageRange extracts the 1-based inclusive page range [start, end]
// from src into a standalone PDF.
func CopyPageRange(src []byte, start, end int) ([]byte, error) {
	if start < 1 || end < start {
		return nil, fmt.Errorf("invalid page range %d-%d", start, end)
	}

	var buf bytes.Buffer
	pages := []string{fmt.Sprintf("%d-%d", start, end)}
	if err := api.Trim(bytes.NewReader(src), &buf, pages, nil); err != nil {
		return nil, fmt.Errorf("copying pages %d-%d: %w", start, end, err)
	}
	return buf.Bytes(), nil
}

// MergePageRanges extracts each range from src and concatenates them, in
// order, into a single PDF.
func MergePageRanges(src []byte, ranges []core.PageRange) ([]byte, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("no page ranges specified")
	}
	if len(ranges) == 1 {
		return CopyPageRange(src, ranges[0].Start, ranges[0].End)
	}

	parts := make([]io.ReadSeeker, 0, len(ranges))
	for _, r := range ranges {
		part, err := CopyPageRange(src, r.Start, r.End)
		if err != nil {
			return nil, err
		}
		parts = append(parts, bytes.NewReader(part))
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(parts, &buf, false, nil); err != nil {
		return nil, fmt.Errorf("merging %d page ranges: %w", len(ranges), err)
	}
	return buf.Bytes(), nil
}
