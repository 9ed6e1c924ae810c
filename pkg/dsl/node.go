package dsl

import "github.com/aretw0/blockloom/pkg/domain"

// BlockBuilder provides a fluent API for configuring a block.
type BlockBuilder struct {
	payload  domain.Payload
	children *Builder
	fixed    []domain.Block
}

// Children builds nested content with fn. It may be called more than once.
func (n *BlockBuilder) Children(fn func(*Builder)) *BlockBuilder {
	if n.children == nil {
		n.children = New()
	}
	fn(n.children)
	return n
}

// Child appends finished blocks as children.
func (n *BlockBuilder) Child(blocks ...domain.Block) *BlockBuilder {
	if len(blocks) == 0 {
		return n
	}
	return n.Children(func(b *Builder) {
		for _, blk := range blocks {
			b.items = append(b.items, item{block: &BlockBuilder{payload: blk.Payload, fixed: blk.Children}})
		}
	})
}

// Color sets the color of kinds that carry one; other kinds are unchanged.
func (n *BlockBuilder) Color(color string) *BlockBuilder {
	switch p := n.payload.(type) {
	case domain.Paragraph:
		p.Color = color
		n.payload = p
	case domain.Heading:
		p.Color = color
		n.payload = p
	case domain.ListItem:
		p.Color = color
		n.payload = p
	case domain.ToDo:
		p.Color = color
		n.payload = p
	case domain.Toggle:
		p.Color = color
		n.payload = p
	case domain.Quote:
		p.Color = color
		n.payload = p
	case domain.Callout:
		p.Color = color
		n.payload = p
	}
	return n
}

// Caption prefixes the caption (or rich text) of the block with runs.
func (n *BlockBuilder) Caption(runs ...domain.Inline) *BlockBuilder {
	blk, ok := domain.Block{Payload: n.payload}.WithCaptionPrefix(runs...)
	if ok {
		n.payload = blk.Payload
	}
	return n
}

func (n *BlockBuilder) build() domain.Block {
	var children []domain.Block
	children = append(children, n.fixed...)
	if n.children != nil {
		children = append(children, n.children.Blocks()...)
	}
	if len(children) == 0 {
		children = nil
	}
	return domain.NewBlock(n.payload, children...)
}
