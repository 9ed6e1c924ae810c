package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/blockloom/pkg/domain"
)

// EncodeRichText converts inline runs to wire rich text. The result is never nil.
func EncodeRichText(runs []domain.Inline) []RichText {
	out := make([]RichText, 0, len(runs))
	for _, r := range runs {
		rt := RichText{Annotations: r.Annotations, PlainText: r.Text}
		switch r.Type {
		case domain.InlineMention:
			rt.Type = "mention"
			rt.Mention = &MentionContent{Type: "page", Page: &PageRef{ID: r.MentionID}}
		case domain.InlineTypeEquation:
			rt.Type = "equation"
			rt.Equation = &EquationContent{Expression: r.Expression}
			rt.PlainText = r.Expression
		default:
			rt.Type = "text"
			rt.Text = &TextContent{Content: r.Text}
			if r.Href != "" {
				rt.Text.Link = &Link{URL: r.Href}
			}
		}
		out = append(out, rt)
	}
	return out
}

// DecodeRichText converts wire rich text to inline runs.
func DecodeRichText(rich []RichText) ([]domain.Inline, error) {
	if len(rich) == 0 {
		return nil, nil
	}
	out := make([]domain.Inline, 0, len(rich))
	for i, rt := range rich {
		var in domain.Inline
		switch rt.Type {
		case "text":
			if rt.Text == nil {
				return nil, &ValidationError{Key: "rich_text[" + strconv.Itoa(i) + "].text", Reason: "missing content"}
			}
			in = domain.Text(rt.Text.Content)
			if rt.Text.Link != nil {
				in.Href = rt.Text.Link.URL
			}
		case "mention":
			in = domain.Inline{Type: domain.InlineMention, Text: rt.PlainText}
			if rt.Mention != nil && rt.Mention.Page != nil {
				in.MentionID = rt.Mention.Page.ID
			}
		case "equation":
			if rt.Equation == nil {
				return nil, &ValidationError{Key: "rich_text[" + strconv.Itoa(i) + "].equation", Reason: "missing expression"}
			}
			in = domain.InlineEquation(rt.Equation.Expression)
		default:
			return nil, &ValidationError{Key: "rich_text[" + strconv.Itoa(i) + "].type", Reason: "unknown rich text type", Value: rt.Type}
		}
		in.Annotations = rt.Annotations
		out = append(out, in)
	}
	return out, nil
}

// EncodeBlocks converts a block forest to wire objects, children included.
func EncodeBlocks(blocks []domain.Block) ([]Block, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		wb, err := EncodeBlock(b)
		if err != nil {
			return nil, err
		}
		out = append(out, wb)
	}
	return out, nil
}

// EncodeBlock converts one block and its embedded children.
func EncodeBlock(b domain.Block) (Block, error) {
	kind := b.Kind()
	if err := kind.Validate(); err != nil {
		return Block{}, err
	}
	wb := Block{Type: string(kind)}
	c := &wb.Content

	switch p := b.Payload.(type) {
	case domain.Paragraph:
		c.RichText, c.Color = EncodeRichText(p.RichText), p.Color
	case domain.Heading:
		c.RichText, c.Color, c.IsToggleable = EncodeRichText(p.RichText), p.Color, p.Toggleable
	case domain.ListItem:
		c.RichText, c.Color = EncodeRichText(p.RichText), p.Color
	case domain.ToDo:
		c.RichText, c.Color, c.Checked = EncodeRichText(p.RichText), p.Color, p.Checked
	case domain.Toggle:
		c.RichText, c.Color = EncodeRichText(p.RichText), p.Color
	case domain.Quote:
		c.RichText, c.Color = EncodeRichText(p.RichText), p.Color
	case domain.Callout:
		c.RichText, c.Color = EncodeRichText(p.RichText), p.Color
		if p.Icon != "" {
			c.Icon = &Icon{Type: "emoji", Emoji: p.Icon}
		}
	case domain.CodeBlock:
		c.RichText, c.Language, c.Caption = EncodeRichText(p.RichText), p.Language, EncodeRichText(p.Caption)
	case domain.Divider, domain.ColumnList, domain.Column:
	case domain.Media:
		c.Type, c.External, c.Caption = "external", &External{URL: p.URL}, EncodeRichText(p.Caption)
	case domain.Bookmark:
		c.URL, c.Caption = p.URL, EncodeRichText(p.Caption)
	case domain.Embed:
		c.URL, c.Caption = p.URL, EncodeRichText(p.Caption)
	case domain.Equation:
		c.Expression = p.Expression
	case domain.Table:
		c.TableWidth, c.HasColumnHeader, c.HasRowHeader = p.Width, p.HasColumnHeader, p.HasRowHeader
	case domain.TableRow:
		c.Cells = make([][]RichText, 0, len(p.Cells))
		for _, cell := range p.Cells {
			c.Cells = append(c.Cells, EncodeRichText(cell))
		}
	case domain.TableOfContents:
		c.Color = p.Color
	default:
		return Block{}, fmt.Errorf("%w: payload %T", domain.ErrUnhandledKind, b.Payload)
	}

	children, err := EncodeBlocks(b.Children)
	if err != nil {
		return Block{}, err
	}
	c.Children = children
	wb.HasChildren = len(children) > 0
	return wb, nil
}

// DecodeBlocks converts wire objects back to domain blocks.
func DecodeBlocks(blocks []Block) ([]domain.Block, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	out := make([]domain.Block, 0, len(blocks))
	for i, wb := range blocks {
		b, err := DecodeBlock(wb)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// DecodeBlock converts one wire object and its embedded children.
func DecodeBlock(wb Block) (domain.Block, error) {
	kind := domain.Kind(wb.Type)
	if err := kind.Validate(); err != nil {
		return domain.Block{}, err
	}
	c := wb.Content
	rich, err := DecodeRichText(c.RichText)
	if err != nil {
		return domain.Block{}, err
	}
	caption, err := DecodeRichText(c.Caption)
	if err != nil {
		return domain.Block{}, err
	}

	var p domain.Payload
	switch kind {
	case domain.KindParagraph:
		p = domain.Paragraph{RichText: rich, Color: c.Color}
	case domain.KindHeading1, domain.KindHeading2, domain.KindHeading3:
		level, _ := strconv.Atoi(strings.TrimPrefix(string(kind), "heading_"))
		p = domain.Heading{Level: level, RichText: rich, Color: c.Color, Toggleable: c.IsToggleable}
	case domain.KindBulletedListItem, domain.KindNumberedListItem:
		p = domain.ListItem{Numbered: kind == domain.KindNumberedListItem, RichText: rich, Color: c.Color}
	case domain.KindToDo:
		p = domain.ToDo{RichText: rich, Checked: c.Checked, Color: c.Color}
	case domain.KindToggle:
		p = domain.Toggle{RichText: rich, Color: c.Color}
	case domain.KindQuote:
		p = domain.Quote{RichText: rich, Color: c.Color}
	case domain.KindCallout:
		callout := domain.Callout{RichText: rich, Color: c.Color}
		if c.Icon != nil {
			callout.Icon = c.Icon.Emoji
		}
		p = callout
	case domain.KindCode:
		p = domain.CodeBlock{RichText: rich, Language: c.Language, Caption: caption}
	case domain.KindDivider:
		p = domain.Divider{}
	case domain.KindImage, domain.KindVideo, domain.KindFile, domain.KindPDF:
		media := domain.Media{MediaKind: kind, Caption: caption}
		if c.External != nil {
			media.URL = c.External.URL
		}
		p = media
	case domain.KindBookmark:
		p = domain.Bookmark{URL: c.URL, Caption: caption}
	case domain.KindEmbed:
		p = domain.Embed{URL: c.URL, Caption: caption}
	case domain.KindEquation:
		p = domain.Equation{Expression: c.Expression}
	case domain.KindTable:
		p = domain.Table{Width: c.TableWidth, HasColumnHeader: c.HasColumnHeader, HasRowHeader: c.HasRowHeader}
	case domain.KindTableRow:
		row := domain.TableRow{Cells: make([][]domain.Inline, 0, len(c.Cells))}
		for _, cell := range c.Cells {
			runs, err := DecodeRichText(cell)
			if err != nil {
				return domain.Block{}, err
			}
			row.Cells = append(row.Cells, runs)
		}
		p = row
	case domain.KindColumnList:
		p = domain.ColumnList{}
	case domain.KindColumn:
		p = domain.Column{}
	case domain.KindTableOfContents:
		p = domain.TableOfContents{Color: c.Color}
	default:
		return domain.Block{}, fmt.Errorf("%w: %s", domain.ErrUnhandledKind, kind)
	}

	children, err := DecodeBlocks(c.Children)
	if err != nil {
		return domain.Block{}, err
	}
	return domain.NewBlock(p, children...), nil
}
