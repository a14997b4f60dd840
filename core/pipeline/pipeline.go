// Package pipeline orchestrates extraction and export:
// open → parse navigation → resolve ranges / load content, then
// plan-driven rendering of each export task into a PDF artifact.
//
// A failed extraction returns no partial tree; a failed export leaves the
// extracted tree intact so the caller can retry without re-parsing.
package pipeline

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bookslicer/core"
	"bookslicer/core/epubbook"
	"bookslicer/core/load"
	"bookslicer/core/outline"
	"bookslicer/core/output"
	"bookslicer/core/pdfcopy"
	"bookslicer/core/pdfbook"
	"bookslicer/core/render"
	"bookslicer/core/resolve"
)

// Pipeline runs extraction and export for one document at a time.
type Pipeline struct {
	Log       *slog.Logger
	BatchSize int
}

func New(log *slog.Logger) *Pipeline {
	return &Pipeline{Log: log, BatchSize: load.DefaultBatchSize}
}

// ExtractChapters opens the e-book at path and returns its fully
// annotated chapter tree: page ranges resolved for PDFs, content loaded
// for EPUBs. onProgress may be nil.
func (p *Pipeline) ExtractChapters(path string, onProgress core.ProgressFunc) (*core.ChapterTree, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return p.extractPDF(path)
	case ".epub":
		return p.extractEPUB(path, onProgress)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func (p *Pipeline) extractPDF(path string) (*core.ChapterTree, error) {
	doc, err := pdfbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	tree, err := outline.BuildPDFTree(doc, p.Log)
	if err != nil {
		return nil, err
	}
	return resolve.Pages(tree, p.Log), nil
}

func (p *Pipeline) extractEPUB(path string, onProgress core.ProgressFunc) (*core.ChapterTree, error) {
	c, err := epubbook.Open(path)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	tree, err := outline.BuildEPUBTree(c, p.Log)
	if err != nil {
		return nil, err
	}

	loader := load.New(c, p.Log)
	if p.BatchSize > 0 {
		loader.BatchSize = p.BatchSize
	}
	if err := loader.Load(tree, onProgress); err != nil {
		return nil, err
	}
	return tree, nil
}

// ExportOptions controls where and how artifacts are written.
type ExportOptions struct {
	OutputDir  string
	PageFormat string
	// Zip packages all artifacts into a single archive instead of
	// loose files.
	Zip bool
	// ZipName names the archive; derived from the source file when empty.
	ZipName string
}

// RunExport renders every planned task into a PDF and writes the results,
// returning the written paths. Tasks that end up with no renderable
// content are skipped with a warning rather than aborting the export;
// their ordinal is still consumed so filenames stay deterministic.
func (p *Pipeline) RunExport(srcPath string, tree *core.ChapterTree, tasks []core.ExportTask, opts ExportOptions) ([]string, error) {
	writer, err := output.New(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	var srcBytes []byte
	if tree.Format == core.FormatPDF {
		srcBytes, err = os.ReadFile(srcPath)
		if err != nil {
			return nil, fmt.Errorf("reading source pdf: %w", err)
		}
	}
	renderer := render.NewPDFRenderer(opts.PageFormat)

	var entries []output.ZipEntry
	for i, task := range tasks {
		units := renderableUnits(tree.Format, task.Units)
		if len(units) == 0 {
			p.Log.Warn("skipping task with no renderable content", "name", task.Name)
			continue
		}

		var data []byte
		if tree.Format == core.FormatPDF {
			data, err = copyTaskPages(srcBytes, units)
		} else {
			data, err = renderer.RenderUnits(units)
		}
		if err != nil {
			return nil, fmt.Errorf("exporting %q: %w", task.Name, err)
		}

		entries = append(entries, output.ZipEntry{
			Name: output.BuildFilename(i, task.ParentTitles, task.Name, renderer.Extension()),
			Data: data,
		})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no tasks produced any content")
	}

	if opts.Zip {
		archive, err := output.ZipFiles(entries)
		if err != nil {
			return nil, err
		}
		name := opts.ZipName
		if name == "" {
			base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
			name = base + "_chapters.zip"
		}
		path, err := writer.Write(name, archive)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		path, err := writer.Write(e.Name, e.Data)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// renderableUnits filters out units that carry nothing to render: empty
// HTML for EPUB, degenerate page ranges for PDF.
func renderableUnits(format core.Format, units []core.ContentUnit) []core.ContentUnit {
	var out []core.ContentUnit
	for _, u := range units {
		if format == core.FormatPDF {
			if u.StartPage >= 1 && u.EndPage >= u.StartPage {
				out = append(out, u)
			}
			continue
		}
		if strings.TrimSpace(u.HTML) != "" {
			out = append(out, u)
		}
	}
	return out
}

// copyTaskPages copies one or more page ranges out of the source PDF.
func copyTaskPages(src []byte, units []core.ContentUnit) ([]byte, error) {
	if len(units) == 1 {
		return pdfcopy.CopyPageRange(src, units[0].StartPage, units[0].EndPage)
	}
	ranges := make([]core.PageRange, 0, len(units))
	for _, u := range units {
		ranges = append(ranges, core.PageRange{Start: u.StartPage, End: u.EndPage})
	}
	return pdfcopy.MergePageRanges(src, ranges)
}
