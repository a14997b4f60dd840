// Package cmd — export command.
// This is the main command that orchestrates the pipeline:
// extract → plan → render/copy → write.
//
// It handles flag validation, selection parsing, and the
// --mode separate/merge policy for whole-book exports.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bookslicer/core"
	"bookslicer/core/config"
	"bookslicer/core/pipeline"
	"bookslicer/core/plan"
)

// Flag variables.
var (
	flagSelect     string
	flagMerge      string
	flagMode       string
	flagOutputDir  string
	flagZip        bool
	flagPageFormat string
	flagConfig     string
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export selected chapters as standalone PDFs",
	Long: `Export extracts the chapter tree, plans one export task per selection
rule, and writes each task as a standalone PDF (or a single ZIP of PDFs).

Chapter ids come from the chapters command. An empty --select exports
every chapter; --merge flags combine a chapter's sub-chapters with it
into one output file.

Examples:
  bookslicer export book.pdf --select 0-1,2
  bookslicer export book.pdf --select 0-0,0-1,1 --merge 0
  bookslicer export novel.epub --mode merge --zip
  bookslicer export novel.epub --config export.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&flagSelect, "select", "", "Comma-separated chapter ids to export (default: all)")
	exportCmd.Flags().StringVar(&flagMerge, "merge", "", "Comma-separated chapter ids whose sub-chapters merge into them")
	exportCmd.Flags().StringVar(&flagMode, "mode", "separate", "Whole-book export mode: separate or merge")
	exportCmd.Flags().StringVar(&flagOutputDir, "output_dir", "", "Output directory (default: current directory)")
	exportCmd.Flags().BoolVar(&flagZip, "zip", false, "Package all output PDFs into one ZIP")
	exportCmd.Flags().StringVar(&flagPageFormat, "page_format", "", "Page size for rendered EPUB chapters (A4, Letter)")
	exportCmd.Flags().StringVar(&flagConfig, "config", "", "YAML config file with export defaults")
}

func runExport(cmd *cobra.Command, args []string) error {
	mode := plan.Mode(flagMode)
	if mode != plan.ModeSeparate && mode != plan.ModeMerge {
		return fmt.Errorf("invalid --mode %q (want separate or merge)", flagMode)
	}

	cfg := config.Default()
	if flagConfig != "" {
		var err error
		if cfg, err = config.Load(flagConfig); err != nil {
			return err
		}
	}
	// Flags win over config file values.
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}
	if flagPageFormat != "" {
		cfg.PageFormat = flagPageFormat
	}
	if flagZip {
		cfg.Zip = true
	}

	p := pipeline.New(slog.Default())
	p.BatchSize = cfg.BatchSize

	tree, err := p.ExtractChapters(args[0], progressPrinter())
	if err != nil {
		return err
	}

	selected, err := selectionSet(tree, flagSelect)
	if err != nil {
		return err
	}
	merged, err := idSet(tree, flagMerge)
	if err != nil {
		return err
	}

	tasks := plan.Plan(tree, selected, merged, mode)
	if len(tasks) == 0 {
		return fmt.Errorf("selection produced no export tasks")
	}
	fmt.Fprintf(os.Stdout, "Planned %d export task(s)\n", len(tasks))

	paths, err := p.RunExport(args[0], tree, tasks, pipeline.ExportOptions{
		OutputDir:  cfg.OutputDir,
		PageFormat: cfg.PageFormat,
		Zip:        cfg.Zip,
	})
	if err != nil {
		return err
	}

	for _, path := range paths {
		fmt.Fprintf(os.Stdout, "✓ Written: %s\n", path)
	}
	return nil
}

// selectionSet parses --select; empty means every node in the tree.
func selectionSet(tree *core.ChapterTree, raw string) (map[string]bool, error) {
	if strings.TrimSpace(raw) == "" {
		all := make(map[string]bool)
		tree.Walk(func(n *core.ChapterNode) { all[n.ID] = true })
		return all, nil
	}
	return idSet(tree, raw)
}

// idSet parses a comma-separated id list, validating each id against the
// tree.
func idSet(tree *core.ChapterTree, raw string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if tree.Node(id) == nil {
			return nil, fmt.Errorf("unknown chapter id %q", id)
		}
		out[id] = true
	}
	return out, nil
}
