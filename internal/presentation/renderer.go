package presentation

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// Renderer turns a presentation into output.
type Renderer interface {
	Render(ctx context.Context, p *Presentation) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, p *Presentation) error

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, p *Presentation) error {
	return f(ctx, p)
}

// SummaryRenderer writes a table of the presentation's documents with their
// line and byte counts.
type SummaryRenderer struct {
	out      io.Writer
	colorize bool
}

// NewSummaryRenderer creates a renderer writing to out. The header is
// colored only when out is a terminal.
func NewSummaryRenderer(out io.Writer) *SummaryRenderer {
	return &SummaryRenderer{out: out, colorize: shouldColorize(out)}
}

// Render implements Renderer.
func (r *SummaryRenderer) Render(ctx context.Context, p *Presentation) error {
	if p.Settings.Quiet {
		return nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault
	if r.colorize {
		tw.Style().Color.Header = text.Colors{text.Bold, text.FgBlue}
		tw.Style().Color.Footer = text.Colors{text.Bold}
	}
	tw.SetTitle(fmt.Sprintf("%s (theme %s)", p.Settings.Destination, p.Settings.Theme))
	tw.AppendHeader(table.Row{"#", "Document", "Lines", "Bytes"})

	var totalLines, totalBytes int64
	for i, doc := range p.Documents {
		if err := ctx.Err(); err != nil {
			return err
		}

		lines, size, err := countDocument(doc)
		if err != nil {
			return err
		}
		totalLines += lines
		totalBytes += size

		tw.AppendRow(table.Row{i + 1, doc.Path, lines, size})
	}

	tw.AppendFooter(table.Row{"", strconv.Itoa(len(p.Documents)) + " documents", totalLines, totalBytes})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	_, err := fmt.Fprintln(r.out, tw.Render())
	return err
}

// countDocument returns the decoded line and byte counts of doc.
func countDocument(doc Document) (int64, int64, error) {
	rc, err := doc.Open()
	if err != nil {
		return 0, 0, err
	}
	defer rc.Close()

	var c lineCounter
	if _, err := io.Copy(&c, rc); err != nil {
		return 0, 0, fmt.Errorf("reading %s: %w", doc.Path, err)
	}

	return c.Lines(), c.bytes, nil
}

type lineCounter struct {
	bytes    int64
	newlines int64
	last     byte
}

func (c *lineCounter) Write(b []byte) (int, error) {
	for _, ch := range b {
		if ch == '\n' {
			c.newlines++
		}
	}
	if len(b) > 0 {
		c.last = b[len(b)-1]
	}
	c.bytes += int64(len(b))
	return len(b), nil
}

// Lines counts a final line without a trailing newline.
func (c *lineCounter) Lines() int64 {
	if c.bytes > 0 && c.last != '\n' {
		return c.newlines + 1
	}
	return c.newlines
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
