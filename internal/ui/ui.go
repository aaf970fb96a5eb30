// Package ui renders CLI output. Colors are used on a terminal and
// dropped automatically for pipes, CI, and NO_COLOR.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/parasearch/parasearch/internal/store"
	"github.com/parasearch/parasearch/internal/watcher"
)

// Printer writes formatted results to a writer.
type Printer struct {
	out    io.Writer
	styles Styles
}

// NewPrinter creates a printer for the given writer, picking colored or
// plain styles based on where the output goes.
func NewPrinter(out io.Writer) *Printer {
	styles := NoColorStyles()
	if IsTTY(out) && !DetectNoColor() {
		styles = DefaultStyles()
	}
	return &Printer{out: out, styles: styles}
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor checks if the NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// SearchResults renders search hits with scores and source paths.
func (p *Printer) SearchResults(query string, results []store.SearchResult, backend store.BackendKind) {
	if len(results) == 0 {
		fmt.Fprintf(p.out, "%s\n", p.styles.Label.Render("no results for: "+query))
		return
	}

	fmt.Fprintf(p.out, "%s\n\n", p.styles.Header.Render(
		fmt.Sprintf("%d results (%s backend)", len(results), backend)))

	for i, r := range results {
		fmt.Fprintf(p.out, "%s %s %s\n",
			p.styles.Score.Render(fmt.Sprintf("%2d. %.3f", i+1, r.Similarity)),
			p.styles.Path.Render(r.FilePath),
			p.styles.Dim.Render(fmt.Sprintf("#%d", r.Index)))
		fmt.Fprintf(p.out, "    %s\n\n", truncate(r.Content, 200))
	}
}

// Stats renders index statistics as label/value lines.
func (p *Printer) Stats(stats store.Stats, model string, watch *watcher.Stats) {
	fmt.Fprintf(p.out, "%s\n", p.styles.Header.Render("index"))
	p.line("chunks", fmt.Sprintf("%d", stats.TotalChunks))
	p.line("documents", fmt.Sprintf("%d", stats.TotalDocuments))
	p.line("avg words/chunk", fmt.Sprintf("%.1f", stats.AvgWordCount))
	p.line("backend", string(stats.Backend))
	p.line("model", model)
	p.line("database size", formatBytes(stats.DatabaseBytes))

	if watch != nil {
		fmt.Fprintf(p.out, "%s\n", p.styles.Header.Render("watch"))
		p.line("directories", fmt.Sprintf("%d", watch.WatchedDirectories))
		p.line("queue", fmt.Sprintf("%d/%d", watch.QueueLength, watch.QueueCapacity))
		p.line("processed", fmt.Sprintf("%d", watch.EventsProcessed))
		if watch.EventsDropped > 0 {
			fmt.Fprintf(p.out, "  %s %s\n",
				p.styles.Label.Render(pad("dropped")),
				p.styles.Warning.Render(fmt.Sprintf("%d", watch.EventsDropped)))
		}
	}
}

// Watched renders the watched directory list.
func (p *Printer) Watched(infos []watcher.WatchInfo) {
	if len(infos) == 0 {
		fmt.Fprintf(p.out, "%s\n", p.styles.Label.Render("no directories watched"))
		return
	}
	for _, info := range infos {
		fmt.Fprintf(p.out, "%s %s\n",
			p.styles.Path.Render(info.Path),
			p.styles.Dim.Render(fmt.Sprintf("(%d files)", info.FileCount)))
	}
}

// Errorf renders an error line to the writer.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintf(p.out, "%s\n", p.styles.Error.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) line(label, value string) {
	fmt.Fprintf(p.out, "  %s %s\n", p.styles.Label.Render(pad(label)), value)
}

func pad(label string) string {
	return fmt.Sprintf("%-16s", label)
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
