package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/blockloom/pkg/domain"
)

// Markdown renders a block tree as CommonMark for previewing. Kinds without a
// markdown form (columns, table of contents) degrade to their children.
func Markdown(blocks []domain.Block) string {
	var sb strings.Builder
	writeBlocks(&sb, blocks, "")
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func writeBlocks(sb *strings.Builder, blocks []domain.Block, indent string) {
	number := 0
	for _, b := range blocks {
		if l, ok := b.Payload.(domain.ListItem); ok && l.Numbered {
			number++
		} else {
			number = 0
		}
		writeBlock(sb, b, indent, number)
	}
}

func writeBlock(sb *strings.Builder, b domain.Block, indent string, number int) {
	line := func(format string, args ...any) {
		sb.WriteString(indent)
		fmt.Fprintf(sb, format, args...)
		sb.WriteString("\n")
	}
	nested := indent + "  "

	switch p := b.Payload.(type) {
	case domain.Paragraph:
		line("%s", inlines(p.RichText))
		sb.WriteString("\n")
		writeBlocks(sb, b.Children, indent)
	case domain.Heading:
		line("%s %s", strings.Repeat("#", p.Level), inlines(p.RichText))
		sb.WriteString("\n")
		writeBlocks(sb, b.Children, indent)
	case domain.ListItem:
		if p.Numbered {
			line("%d. %s", number, inlines(p.RichText))
		} else {
			line("- %s", inlines(p.RichText))
		}
		writeBlocks(sb, b.Children, nested)
	case domain.ToDo:
		mark := " "
		if p.Checked {
			mark = "x"
		}
		line("- [%s] %s", mark, inlines(p.RichText))
		writeBlocks(sb, b.Children, nested)
	case domain.Toggle:
		line("- %s", inlines(p.RichText))
		writeBlocks(sb, b.Children, nested)
	case domain.Quote:
		line("> %s", inlines(p.RichText))
		sb.WriteString("\n")
		writeBlocks(sb, b.Children, indent)
	case domain.Callout:
		if p.Icon != "" {
			line("> %s %s", p.Icon, inlines(p.RichText))
		} else {
			line("> %s", inlines(p.RichText))
		}
		sb.WriteString("\n")
		writeBlocks(sb, b.Children, indent)
	case domain.CodeBlock:
		line("```%s", p.Language)
		for _, l := range strings.Split(domain.PlainText(p.RichText), "\n") {
			line("%s", l)
		}
		line("```")
		if len(p.Caption) > 0 {
			line("*%s*", inlines(p.Caption))
		}
		sb.WriteString("\n")
	case domain.Divider:
		line("---")
		sb.WriteString("\n")
	case domain.Media:
		label := inlines(p.Caption)
		if p.MediaKind == domain.KindImage {
			line("![%s](%s)", label, p.URL)
		} else {
			line("[%s](%s)", orDefault(label, string(p.MediaKind)), p.URL)
		}
		sb.WriteString("\n")
	case domain.Bookmark:
		line("[%s](%s)", orDefault(inlines(p.Caption), p.URL), p.URL)
		sb.WriteString("\n")
	case domain.Embed:
		line("[%s](%s)", orDefault(inlines(p.Caption), p.URL), p.URL)
		sb.WriteString("\n")
	case domain.Equation:
		line("$$%s$$", p.Expression)
		sb.WriteString("\n")
	case domain.Table:
		writeTable(sb, p, b.Children, indent)
	default:
		writeBlocks(sb, b.Children, indent)
	}
}

func writeTable(sb *strings.Builder, t domain.Table, rows []domain.Block, indent string) {
	width := t.Width
	for _, r := range rows {
		if row, ok := r.Payload.(domain.TableRow); ok && len(row.Cells) > width {
			width = len(row.Cells)
		}
	}
	if width == 0 {
		return
	}

	writeRow := func(cells []string) {
		sb.WriteString(indent + "|")
		for i := 0; i < width; i++ {
			c := ""
			if i < len(cells) {
				c = cells[i]
			}
			sb.WriteString(" " + c + " |")
		}
		sb.WriteString("\n")
	}

	// Markdown tables always have a header row; an empty one stands in when
	// the table declares none.
	start := 0
	if t.HasColumnHeader && len(rows) > 0 {
		writeRow(cells(rows[0]))
		start = 1
	} else {
		writeRow(nil)
	}
	sep := make([]string, width)
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)
	for _, r := range rows[start:] {
		writeRow(cells(r))
	}
	sb.WriteString("\n")
}

func cells(b domain.Block) []string {
	row, ok := b.Payload.(domain.TableRow)
	if !ok {
		return nil
	}
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		out[i] = strings.ReplaceAll(inlines(c), "|", "\\|")
	}
	return out
}

func inlines(runs []domain.Inline) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(inline(r))
	}
	return sb.String()
}

func inline(r domain.Inline) string {
	switch r.Type {
	case domain.InlineTypeEquation:
		return "$" + r.Expression + "$"
	case domain.InlineMention:
		return "@" + r.Text
	}

	s := r.Text
	if s == "" {
		return ""
	}
	a := r.Annotations
	if a.Code {
		s = "`" + s + "`"
	}
	if a.Bold {
		s = "**" + s + "**"
	}
	if a.Italic {
		s = "_" + s + "_"
	}
	if a.Strikethrough {
		s = "~~" + s + "~~"
	}
	if r.Href != "" {
		s = "[" + s + "](" + r.Href + ")"
	}
	return s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
