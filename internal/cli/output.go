package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/tocmerge/internal/merge"
	"github.com/dgallion1/tocmerge/internal/session"
	"github.com/dgallion1/tocmerge/internal/toc"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("25"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("25")).
			Padding(0, 1)
)

// printSummary shows the table of contents that was written and where.
func printSummary(w io.Writer, res *merge.Result, files []session.File, out string) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(toc.Heading))
	for i, e := range res.Entries {
		b.WriteString("\n")
		b.WriteString(toc.Line(i, e))
		if files[i].Converted {
			b.WriteString(dimStyle.Render("  (converted)"))
		}
	}

	bookmarks := 0
	for _, f := range files {
		if f.Pages > 0 {
			bookmarks++
		}
	}

	fmt.Fprintln(w, boxStyle.Render(b.String()))
	fmt.Fprintf(w, "%s %s  %s %d  %s %d  %s %d\n",
		successStyle.Render("✓"), out,
		dimStyle.Render("pages:"), res.PageCount,
		dimStyle.Render("toc pages:"), res.TOCPages,
		dimStyle.Render("bookmarks:"), bookmarks,
	)
}
