package domain

import "fmt"

// Payload is the kind-specific content of a Block. The set of implementations is
// closed: every payload lives in this file and reports its Kind.
type Payload interface {
	Kind() Kind
	payload()
}

// Paragraph is a plain text block.
type Paragraph struct {
	RichText []Inline
	Color    string
}

// Heading is a section title of level 1 to 3.
type Heading struct {
	Level      int
	RichText   []Inline
	Color      string
	Toggleable bool
}

// ListItem is a bulleted or numbered list entry.
type ListItem struct {
	Numbered bool
	RichText []Inline
	Color    string
}

// ToDo is a checkbox item.
type ToDo struct {
	RichText []Inline
	Checked  bool
	Color    string
}

// Toggle is a collapsible block.
type Toggle struct {
	RichText []Inline
	Color    string
}

// Quote is a quotation block.
type Quote struct {
	RichText []Inline
	Color    string
}

// Callout is a highlighted block with an optional emoji icon.
type Callout struct {
	RichText []Inline
	Icon     string
	Color    string
}

// CodeBlock is a fenced code listing.
type CodeBlock struct {
	RichText []Inline
	Language string
	Caption  []Inline
}

// Divider is a horizontal rule.
type Divider struct{}

// Media is an embedded external asset. MediaKind must be one of KindImage,
// KindVideo, KindFile or KindPDF.
type Media struct {
	MediaKind Kind
	URL       string
	Caption   []Inline
}

// Bookmark is a link preview.
type Bookmark struct {
	URL     string
	Caption []Inline
}

// Embed is an embedded web page.
type Embed struct {
	URL     string
	Caption []Inline
}

// Equation is a block-level TeX expression.
type Equation struct {
	Expression string
}

// Table is a grid container; its children must be TableRow blocks.
type Table struct {
	Width           int
	HasColumnHeader bool
	HasRowHeader    bool
}

// TableRow holds one inline sequence per cell.
type TableRow struct {
	Cells [][]Inline
}

// ColumnList is a composite layout container; its children must be Column blocks.
type ColumnList struct{}

// Column is one column of a ColumnList.
type Column struct{}

// TableOfContents renders the page outline.
type TableOfContents struct {
	Color string
}

func (Paragraph) Kind() Kind { return KindParagraph }
func (h Heading) Kind() Kind { return Kind(fmt.Sprintf("heading_%d", h.Level)) }
func (l ListItem) Kind() Kind {
	if l.Numbered {
		return KindNumberedListItem
	}
	return KindBulletedListItem
}
func (ToDo) Kind() Kind            { return KindToDo }
func (Toggle) Kind() Kind          { return KindToggle }
func (Quote) Kind() Kind           { return KindQuote }
func (Callout) Kind() Kind         { return KindCallout }
func (CodeBlock) Kind() Kind       { return KindCode }
func (Divider) Kind() Kind         { return KindDivider }
func (m Media) Kind() Kind         { return m.MediaKind }
func (Bookmark) Kind() Kind        { return KindBookmark }
func (Embed) Kind() Kind           { return KindEmbed }
func (Equation) Kind() Kind        { return KindEquation }
func (Table) Kind() Kind           { return KindTable }
func (TableRow) Kind() Kind        { return KindTableRow }
func (ColumnList) Kind() Kind      { return KindColumnList }
func (Column) Kind() Kind          { return KindColumn }
func (TableOfContents) Kind() Kind { return KindTableOfContents }

func (Paragraph) payload()       {}
func (Heading) payload()         {}
func (ListItem) payload()        {}
func (ToDo) payload()            {}
func (Toggle) payload()          {}
func (Quote) payload()           {}
func (Callout) payload()         {}
func (CodeBlock) payload()       {}
func (Divider) payload()         {}
func (Media) payload()           {}
func (Bookmark) payload()        {}
func (Embed) payload()           {}
func (Equation) payload()        {}
func (Table) payload()           {}
func (TableRow) payload()        {}
func (ColumnList) payload()      {}
func (Column) payload()          {}
func (TableOfContents) payload() {}

// Block is a structural node with an optional ordered list of children.
type Block struct {
	Payload  Payload
	Children []Block
}

func (Block) flexible() {}

// NewBlock creates a block from a payload and its children.
func NewBlock(p Payload, children ...Block) Block {
	return Block{Payload: p, Children: children}
}

// NewParagraph creates a paragraph block from inline runs.
func NewParagraph(runs ...Inline) Block {
	return Block{Payload: Paragraph{RichText: runs}}
}

// Kind returns the kind of the block's payload, or "" when the payload is missing.
func (b Block) Kind() Kind {
	if b.Payload == nil {
		return ""
	}
	return b.Payload.Kind()
}

// HasChildren reports whether the block declares children.
func (b Block) HasChildren() bool {
	return len(b.Children) > 0
}

// WithChildren returns a copy of the block carrying the given children.
func (b Block) WithChildren(children []Block) Block {
	return Block{Payload: b.Payload, Children: children}
}

// Count returns the number of nodes in the subtree rooted at b.
func (b Block) Count() int {
	n := 1
	for _, c := range b.Children {
		n += c.Count()
	}
	return n
}

// Depth returns the number of levels below b (0 for a leaf).
func (b Block) Depth() int {
	d := 0
	for _, c := range b.Children {
		if cd := c.Depth() + 1; cd > d {
			d = cd
		}
	}
	return d
}

// RichText returns the primary inline content of text kinds.
func (b Block) RichText() []Inline {
	switch p := b.Payload.(type) {
	case Paragraph:
		return p.RichText
	case Heading:
		return p.RichText
	case ListItem:
		return p.RichText
	case ToDo:
		return p.RichText
	case Toggle:
		return p.RichText
	case Quote:
		return p.RichText
	case Callout:
		return p.RichText
	case CodeBlock:
		return p.RichText
	}
	return nil
}

// Caption returns the inline content a reader sees as the block's label: the
// caption of captioned kinds, or the rich text of text kinds.
func (b Block) Caption() []Inline {
	switch p := b.Payload.(type) {
	case CodeBlock:
		return p.Caption
	case Media:
		return p.Caption
	case Bookmark:
		return p.Caption
	case Embed:
		return p.Caption
	}
	return b.RichText()
}

// WithCaptionPrefix returns a copy of the block whose caption starts with prefix.
// The boolean is false for kinds without a caption; the block is then unchanged.
func (b Block) WithCaptionPrefix(prefix ...Inline) (Block, bool) {
	join := func(rest []Inline) []Inline {
		out := make([]Inline, 0, len(prefix)+len(rest))
		out = append(out, prefix...)
		return append(out, rest...)
	}

	switch p := b.Payload.(type) {
	case Paragraph:
		p.RichText = join(p.RichText)
		b.Payload = p
	case Heading:
		p.RichText = join(p.RichText)
		b.Payload = p
	case ListItem:
		p.RichText = join(p.RichText)
		b.Payload = p
	case ToDo:
		p.RichText = join(p.RichText)
		b.Payload = p
	case Toggle:
		p.RichText = join(p.RichText)
		b.Payload = p
	case Quote:
		p.RichText = join(p.RichText)
		b.Payload = p
	case Callout:
		p.RichText = join(p.RichText)
		b.Payload = p
	case CodeBlock:
		p.Caption = join(p.Caption)
		b.Payload = p
	case Media:
		p.Caption = join(p.Caption)
		b.Payload = p
	case Bookmark:
		p.Caption = join(p.Caption)
		b.Payload = p
	case Embed:
		p.Caption = join(p.Caption)
		b.Payload = p
	default:
		return b, false
	}
	return b, true
}
