package dsl

import (
	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/flatten"
)

// item is either an inline run or a pending block.
type item struct {
	inline *domain.Inline
	block  *BlockBuilder
}

// Builder manages the construction of one children list.
type Builder struct {
	items []item
}

// New creates a new document builder.
func New() *Builder {
	return &Builder{}
}

// Inline appends raw inline runs. Consecutive runs end up in one paragraph.
func (b *Builder) Inline(runs ...domain.Inline) *Builder {
	for _, r := range runs {
		b.items = append(b.items, item{inline: &r})
	}
	return b
}

// Text appends a plain text run.
func (b *Builder) Text(content string) *Builder {
	return b.Inline(domain.Text(content))
}

// Code appends an inline code run.
func (b *Builder) Code(content string) *Builder {
	return b.Inline(domain.Code(content))
}

// Link appends a linked text run.
func (b *Builder) Link(content, href string) *Builder {
	return b.Inline(domain.Link(content, href))
}

// Block appends a block with the given payload and returns its builder.
func (b *Builder) Block(p domain.Payload) *BlockBuilder {
	bb := &BlockBuilder{payload: p}
	b.items = append(b.items, item{block: bb})
	return bb
}

// Append adds finished blocks unchanged.
func (b *Builder) Append(blocks ...domain.Block) *Builder {
	for _, blk := range blocks {
		b.Block(blk.Payload).Child(blk.Children...)
	}
	return b
}

// Build returns the content in insertion order.
func (b *Builder) Build() []domain.FlexibleBlock {
	out := make([]domain.FlexibleBlock, 0, len(b.items))
	for _, it := range b.items {
		if it.inline != nil {
			out = append(out, *it.inline)
			continue
		}
		out = append(out, it.block.build())
	}
	return out
}

// Blocks returns the content with inline runs grouped into paragraphs.
func (b *Builder) Blocks() []domain.Block {
	return flatten.ToBlocks(b.Build())
}

// Len reports the number of items added so far.
func (b *Builder) Len() int {
	return len(b.items)
}
