// Package cmd — chapters command.
// Prints the extracted chapter tree with the node ids used by the
// export command's --select and --merge flags.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bookslicer/core"
	"bookslicer/core/pipeline"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters <file>",
	Short: "Show the chapter tree of a PDF or EPUB",
	Long: `Chapters extracts the table of contents of the given e-book and prints
the chapter tree. Each line shows the node id, title, and page range
(PDF) or resource location (EPUB).

Examples:
  bookslicer chapters book.pdf
  bookslicer chapters novel.epub`,
	Args: cobra.ExactArgs(1),
	RunE: runChapters,
}

func init() {
	rootCmd.AddCommand(chaptersCmd)
}

func runChapters(cmd *cobra.Command, args []string) error {
	p := pipeline.New(slog.Default())

	tree, err := p.ExtractChapters(args[0], progressPrinter())
	if err != nil {
		return err
	}

	if tree.Title != "" {
		fmt.Fprintf(os.Stdout, "%s\n", tree.Title)
	}
	if tree.Format == core.FormatPDF {
		fmt.Fprintf(os.Stdout, "%d pages\n", tree.TotalPages)
	}
	fmt.Fprintln(os.Stdout)

	tree.Walk(func(n *core.ChapterNode) {
		indent := strings.Repeat("  ", n.Level)
		switch tree.Format {
		case core.FormatPDF:
			fmt.Fprintf(os.Stdout, "%s[%s] %s (p.%d-%d)\n", indent, n.ID, n.Title, n.StartPage, n.EndPage)
		default:
			loc := n.Href
			if n.Anchor != "" {
				loc += "#" + n.Anchor
			}
			fmt.Fprintf(os.Stdout, "%s[%s] %s (%s)\n", indent, n.ID, n.Title, loc)
		}
	})
	return nil
}

// progressPrinter reports content-loading progress on stderr.
func progressPrinter() core.ProgressFunc {
	return func(p core.Progress) {
		fmt.Fprintf(os.Stderr, "\r[%d/%d] %s", p.Current, p.Total, p.Label)
		if p.Current == p.Total {
			fmt.Fprintln(os.Stderr)
		}
	}
}
