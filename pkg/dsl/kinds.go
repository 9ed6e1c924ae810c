package dsl

import "github.com/aretw0/blockloom/pkg/domain"

func text(s string) []domain.Inline {
	if s == "" {
		return nil
	}
	return []domain.Inline{domain.Text(s)}
}

// Paragraph appends a paragraph of runs.
func (b *Builder) Paragraph(runs ...domain.Inline) *BlockBuilder {
	return b.Block(domain.Paragraph{RichText: runs})
}

// Heading appends a heading of level 1 to 3.
func (b *Builder) Heading(level int, content string) *BlockBuilder {
	return b.Block(domain.Heading{Level: level, RichText: text(content)})
}

// Bullet appends a bulleted list item.
func (b *Builder) Bullet(content string) *BlockBuilder {
	return b.Block(domain.ListItem{RichText: text(content)})
}

// Numbered appends a numbered list item.
func (b *Builder) Numbered(content string) *BlockBuilder {
	return b.Block(domain.ListItem{Numbered: true, RichText: text(content)})
}

// ToDo appends a checkbox item.
func (b *Builder) ToDo(content string, checked bool) *BlockBuilder {
	return b.Block(domain.ToDo{RichText: text(content), Checked: checked})
}

// Toggle appends a collapsible block.
func (b *Builder) Toggle(content string) *BlockBuilder {
	return b.Block(domain.Toggle{RichText: text(content)})
}

// Quote appends a quotation.
func (b *Builder) Quote(content string) *BlockBuilder {
	return b.Block(domain.Quote{RichText: text(content)})
}

// Callout appends a highlighted block with an emoji icon.
func (b *Builder) Callout(icon, content string) *BlockBuilder {
	return b.Block(domain.Callout{Icon: icon, RichText: text(content)})
}

// CodeBlock appends a code listing.
func (b *Builder) CodeBlock(language, source string) *BlockBuilder {
	return b.Block(domain.CodeBlock{Language: language, RichText: text(source)})
}

// Divider appends a horizontal rule.
func (b *Builder) Divider() *BlockBuilder {
	return b.Block(domain.Divider{})
}

// Image appends an external image.
func (b *Builder) Image(url string) *BlockBuilder {
	return b.Block(domain.Media{MediaKind: domain.KindImage, URL: url})
}

// Bookmark appends a link preview.
func (b *Builder) Bookmark(url string) *BlockBuilder {
	return b.Block(domain.Bookmark{URL: url})
}

// Equation appends a block-level TeX expression.
func (b *Builder) Equation(expr string) *BlockBuilder {
	return b.Block(domain.Equation{Expression: expr})
}

// TableOfContents appends a page outline.
func (b *Builder) TableOfContents() *BlockBuilder {
	return b.Block(domain.TableOfContents{})
}

// Table appends a table of plain text cells. Rows are padded to the widest.
func (b *Builder) Table(header bool, rows ...[]string) *BlockBuilder {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}

	children := make([]domain.Block, len(rows))
	for i, r := range rows {
		cells := make([][]domain.Inline, width)
		for j, c := range r {
			cells[j] = text(c)
		}
		children[i] = domain.NewBlock(domain.TableRow{Cells: cells})
	}

	return b.Block(domain.Table{Width: width, HasColumnHeader: header}).Child(children...)
}

// Columns appends a column list with one column per function.
func (b *Builder) Columns(columns ...func(*Builder)) *BlockBuilder {
	cl := b.Block(domain.ColumnList{})
	for _, fn := range columns {
		cl.Children(func(list *Builder) {
			list.Block(domain.Column{}).Children(fn)
		})
	}
	return cl
}
