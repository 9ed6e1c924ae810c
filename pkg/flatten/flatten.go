// Package flatten normalizes mixed inline/block content into strict block trees
// and, in the other direction, displaces blocks out of inline-only contexts.
package flatten

import (
	"fmt"

	"github.com/aretw0/blockloom/pkg/domain"
)

// ToBlocks turns a mixed sequence into blocks. Consecutive inline runs collapse
// into synthetic paragraphs of at most domain.MaxSiblings runs each; blocks pass
// through unchanged and in order.
func ToBlocks(seq []domain.FlexibleBlock) []domain.Block {
	out := make([]domain.Block, 0, len(seq))
	var buf []domain.Inline

	flush := func() {
		for _, chunk := range Chunk(buf, domain.MaxSiblings) {
			out = append(out, domain.NewParagraph(chunk...))
		}
		buf = nil
	}

	for _, item := range seq {
		item, ok := value(item)
		if !ok {
			continue
		}
		switch v := item.(type) {
		case domain.Inline:
			buf = append(buf, v)
		case domain.Block:
			flush()
			out = append(out, v)
		}
	}
	flush()

	return out
}

// ToInlines keeps inline runs and replaces every block with an anchor token
// rendered as inline code. The displaced block, its caption prefixed with the
// same token, is appended to blocksOut. Anchors are numbered from
// len(blocksOut)+1, so chaining calls over one blocksOut never reuses a number.
func ToInlines(seq []domain.FlexibleBlock, blocksOut []domain.Block) ([]domain.Inline, []domain.Block) {
	inlines := make([]domain.Inline, 0, len(seq))

	for _, item := range seq {
		item, ok := value(item)
		if !ok {
			continue
		}
		switch v := item.(type) {
		case domain.Inline:
			inlines = append(inlines, v)
		case domain.Block:
			anchor := Anchor(len(blocksOut) + 1)
			inlines = append(inlines, anchor)
			labeled, _ := v.WithCaptionPrefix(anchor, domain.Text(" "))
			blocksOut = append(blocksOut, labeled)
		}
	}

	return inlines, blocksOut
}

// value resolves pointer forms of Inline and Block to their values. Nil items
// report false and are skipped.
func value(item domain.FlexibleBlock) (domain.FlexibleBlock, bool) {
	switch v := item.(type) {
	case nil:
		return nil, false
	case *domain.Inline:
		if v == nil {
			return nil, false
		}
		return *v, true
	case *domain.Block:
		if v == nil {
			return nil, false
		}
		return *v, true
	}
	return item, true
}

// Anchor builds the inline token referencing the n-th displaced block.
func Anchor(n int) domain.Inline {
	return domain.Code(fmt.Sprintf(domain.AnchorFormat, n))
}

// RemoveHeadingParagraph splits container content into caption and children.
// When the first block is a paragraph its rich text becomes the caption and its
// own children lead the remaining blocks; otherwise the caption is empty and the
// blocks are returned unchanged.
func RemoveHeadingParagraph(blocks []domain.Block) ([]domain.Inline, []domain.Block) {
	if len(blocks) == 0 {
		return nil, blocks
	}
	head, ok := blocks[0].Payload.(domain.Paragraph)
	if !ok {
		return nil, blocks
	}

	children := make([]domain.Block, 0, len(blocks[0].Children)+len(blocks)-1)
	children = append(children, blocks[0].Children...)
	children = append(children, blocks[1:]...)
	return head.RichText, children
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 || size <= 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
