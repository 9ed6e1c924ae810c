// Package compiler turns YAML or JSON tree documents into content blocks.
//
// A document is either a list of elements or a mapping with a "blocks" list.
// An element is a string (a plain text run), an inline run mapping without a
// "type" key, or a block mapping whose "type" names a block kind:
//
//	blocks:
//	  - type: heading_1
//	    text: Release notes
//	  - Loose text becomes a paragraph.
//	  - type: bulleted_list_item
//	    content:
//	      - First paragraph is the item text.
//	      - type: code
//	        language: go
//	        text: 'fmt.Println("hi")'
//	  - type: table
//	    header: true
//	    rows:
//	      - [Name, Logo]
//	      - [Go, {type: image, url: "https://go.dev/logo.png"}]
//
// Blocks placed where only inline runs are allowed (table cells, captions,
// text fields) are replaced by an anchor token such as [1] and appended to the
// end of the document with the same token prefixed to their caption.
package compiler

import (
	"fmt"
	"os"
	"strconv"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/flatten"
	"github.com/aretw0/blockloom/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// element is the decoded shape of a block mapping.
type element struct {
	Type       string `mapstructure:"type"`
	Text       any    `mapstructure:"text"`
	Content    []any  `mapstructure:"content"`
	Children   []any  `mapstructure:"children"`
	Caption    any    `mapstructure:"caption"`
	Color      string `mapstructure:"color"`
	Icon       string `mapstructure:"icon"`
	Language   string `mapstructure:"language"`
	URL        string `mapstructure:"url"`
	Expression string `mapstructure:"expression"`
	Checked    bool   `mapstructure:"checked"`
	Toggleable bool   `mapstructure:"toggleable"`
	Header     bool   `mapstructure:"header"`
	RowHeader  bool   `mapstructure:"row_header"`
	Rows       []any  `mapstructure:"rows"`
	Cells      []any  `mapstructure:"cells"`
	Columns    []any  `mapstructure:"columns"`
}

// run is the decoded shape of an inline run mapping.
type run struct {
	Text      string `mapstructure:"text"`
	Link      string `mapstructure:"link"`
	Mention   string `mapstructure:"mention"`
	Math      string `mapstructure:"math"`
	Bold      bool   `mapstructure:"bold"`
	Italic    bool   `mapstructure:"italic"`
	Strike    bool   `mapstructure:"strike"`
	Underline bool   `mapstructure:"underline"`
	Code      bool   `mapstructure:"code"`
	Color     string `mapstructure:"color"`
}

type document struct {
	Blocks []any `yaml:"blocks"`
}

// compiler accumulates the state of one document compilation.
type compiler struct {
	displaced []domain.Block
	errs      []error
}

// Compile parses a YAML or JSON document into a flexible block sequence.
// Malformed elements are collected and reported together as a *schema.AggregateError.
func Compile(data []byte) ([]domain.FlexibleBlock, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	var items []any
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	case map[string]any:
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}
		items = doc.Blocks
	default:
		return nil, &schema.ValidationError{Key: "document", Reason: "expected a list or a mapping with blocks", Value: v}
	}

	c := &compiler{}
	seq := c.elements("blocks", items)
	for _, b := range c.displaced {
		seq = append(seq, b)
	}
	if len(c.errs) > 0 {
		return nil, &schema.AggregateError{Errors: c.errs}
	}
	return seq, nil
}

// CompileBlocks compiles a document and groups loose inline runs into paragraphs.
func CompileBlocks(data []byte) ([]domain.Block, error) {
	seq, err := Compile(data)
	if err != nil {
		return nil, err
	}
	return flatten.ToBlocks(seq), nil
}

// CompileFile reads and compiles the document at path.
func CompileFile(path string) ([]domain.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return CompileBlocks(data)
}

func (c *compiler) fail(key, reason string, value any) {
	c.errs = append(c.errs, &schema.ValidationError{Key: key, Reason: reason, Value: value})
}

func (c *compiler) elements(key string, items []any) []domain.FlexibleBlock {
	out := make([]domain.FlexibleBlock, 0, len(items))
	for i, item := range items {
		if fb, ok := c.element(key+"["+strconv.Itoa(i)+"]", item); ok {
			out = append(out, fb)
		}
	}
	return out
}

func (c *compiler) element(key string, item any) (domain.FlexibleBlock, bool) {
	switch v := item.(type) {
	case string:
		return domain.Text(v), true
	case int, float64, bool:
		return domain.Text(fmt.Sprint(v)), true
	case map[string]any:
		if _, ok := v["type"]; ok {
			b, ok := c.block(key, v)
			return b, ok
		}
		return c.inline(key, v)
	}
	c.fail(key, "expected text, an inline run or a block", item)
	return nil, false
}

func decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func (c *compiler) inline(key string, m map[string]any) (domain.FlexibleBlock, bool) {
	var r run
	if err := decode(m, &r); err != nil {
		c.fail(key, err.Error(), nil)
		return nil, false
	}

	var in domain.Inline
	switch {
	case r.Mention != "":
		in = domain.Mention(r.Mention, r.Text)
	case r.Math != "":
		in = domain.InlineEquation(r.Math)
	case r.Link != "":
		in = domain.Link(r.Text, r.Link)
	default:
		in = domain.Text(r.Text)
	}
	return in.Styled(domain.Annotations{
		Bold:          r.Bold,
		Italic:        r.Italic,
		Strikethrough: r.Strike,
		Underline:     r.Underline,
		Code:          r.Code,
		Color:         r.Color,
	}), true
}

// richText compiles a text-like field. Blocks found inside are displaced to
// the end of the document behind an anchor.
func (c *compiler) richText(key string, v any) []domain.Inline {
	var items []any
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		items = t
	default:
		items = []any{t}
	}
	var runs []domain.Inline
	runs, c.displaced = flatten.ToInlines(c.elements(key, items), c.displaced)
	return runs
}

func (c *compiler) blocks(key string, items []any) []domain.Block {
	if len(items) == 0 {
		return nil
	}
	return flatten.ToBlocks(c.elements(key, items))
}

func (c *compiler) block(key string, m map[string]any) (domain.Block, bool) {
	var e element
	if err := decode(m, &e); err != nil {
		c.fail(key, err.Error(), nil)
		return domain.Block{}, false
	}
	kind := domain.Kind(e.Type)
	if err := kind.Validate(); err != nil {
		c.fail(key+".type", "unknown block type", e.Type)
		return domain.Block{}, false
	}

	text := c.richText(key+".text", e.Text)
	caption := c.richText(key+".caption", e.Caption)
	children := c.blocks(key+".children", e.Children)

	// "content" mixes the item text with nested blocks: a leading paragraph
	// becomes the text, everything else becomes children.
	if len(e.Content) > 0 {
		head, rest := flatten.RemoveHeadingParagraph(c.blocks(key+".content", e.Content))
		text = append(text, head...)
		children = append(rest, children...)
	}

	var p domain.Payload
	switch kind {
	case domain.KindParagraph:
		p = domain.Paragraph{RichText: text, Color: e.Color}
	case domain.KindHeading1, domain.KindHeading2, domain.KindHeading3:
		level, _ := strconv.Atoi(string(kind[len(kind)-1:]))
		p = domain.Heading{Level: level, RichText: text, Color: e.Color, Toggleable: e.Toggleable}
	case domain.KindBulletedListItem, domain.KindNumberedListItem:
		p = domain.ListItem{Numbered: kind == domain.KindNumberedListItem, RichText: text, Color: e.Color}
	case domain.KindToDo:
		p = domain.ToDo{RichText: text, Checked: e.Checked, Color: e.Color}
	case domain.KindToggle:
		p = domain.Toggle{RichText: text, Color: e.Color}
	case domain.KindQuote:
		p = domain.Quote{RichText: text, Color: e.Color}
	case domain.KindCallout:
		p = domain.Callout{RichText: text, Icon: e.Icon, Color: e.Color}
	case domain.KindCode:
		p = domain.CodeBlock{RichText: text, Language: e.Language, Caption: caption}
	case domain.KindDivider:
		p = domain.Divider{}
	case domain.KindImage, domain.KindVideo, domain.KindFile, domain.KindPDF:
		p = domain.Media{MediaKind: kind, URL: e.URL, Caption: caption}
	case domain.KindBookmark:
		p = domain.Bookmark{URL: e.URL, Caption: caption}
	case domain.KindEmbed:
		p = domain.Embed{URL: e.URL, Caption: caption}
	case domain.KindEquation:
		p = domain.Equation{Expression: e.Expression}
	case domain.KindTable:
		return c.table(key, e), true
	case domain.KindTableRow:
		p = domain.TableRow{Cells: c.cells(key+".cells", e.Cells)}
	case domain.KindColumnList:
		return c.columns(key, e), true
	case domain.KindColumn:
		p = domain.Column{}
	case domain.KindTableOfContents:
		p = domain.TableOfContents{Color: e.Color}
	default:
		c.fail(key+".type", "unhandled block type", e.Type)
		return domain.Block{}, false
	}
	return domain.NewBlock(p, children...), true
}

func (c *compiler) cells(key string, raw []any) [][]domain.Inline {
	cells := make([][]domain.Inline, 0, len(raw))
	for i, cell := range raw {
		cells = append(cells, c.richText(key+"["+strconv.Itoa(i)+"]", cell))
	}
	return cells
}

func (c *compiler) table(key string, e element) domain.Block {
	rows := make([]domain.Block, 0, len(e.Rows))
	width := 0
	for i, r := range e.Rows {
		cols, ok := r.([]any)
		if !ok {
			c.fail(key+".rows["+strconv.Itoa(i)+"]", "expected a list of cells", r)
			continue
		}
		cells := c.cells(key+".rows["+strconv.Itoa(i)+"]", cols)
		width = max(width, len(cells))
		rows = append(rows, domain.NewBlock(domain.TableRow{Cells: cells}))
	}
	for i := range rows {
		row := rows[i].Payload.(domain.TableRow)
		for len(row.Cells) < width {
			row.Cells = append(row.Cells, nil)
		}
		rows[i].Payload = row
	}
	return domain.NewBlock(domain.Table{Width: width, HasColumnHeader: e.Header, HasRowHeader: e.RowHeader}, rows...)
}

func (c *compiler) columns(key string, e element) domain.Block {
	cols := make([]domain.Block, 0, len(e.Columns))
	for i, col := range e.Columns {
		items, ok := col.([]any)
		if !ok {
			c.fail(key+".columns["+strconv.Itoa(i)+"]", "expected a list of elements", col)
			continue
		}
		cols = append(cols, domain.NewBlock(domain.Column{}, c.blocks(key+".columns["+strconv.Itoa(i)+"]", items)...))
	}
	return domain.NewBlock(domain.ColumnList{}, cols...)
}
