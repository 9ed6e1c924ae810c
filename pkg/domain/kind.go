package domain

import (
	"fmt"
	"sort"
)

// Kind tags the structural type of a Block.
type Kind string

const (
	KindParagraph        Kind = "paragraph"
	KindHeading1         Kind = "heading_1"
	KindHeading2         Kind = "heading_2"
	KindHeading3         Kind = "heading_3"
	KindBulletedListItem Kind = "bulleted_list_item"
	KindNumberedListItem Kind = "numbered_list_item"
	KindToDo             Kind = "to_do"
	KindToggle           Kind = "toggle"
	KindQuote            Kind = "quote"
	KindCallout          Kind = "callout"
	KindCode             Kind = "code"
	KindDivider          Kind = "divider"
	KindImage            Kind = "image"
	KindVideo            Kind = "video"
	KindFile             Kind = "file"
	KindPDF              Kind = "pdf"
	KindBookmark         Kind = "bookmark"
	KindEmbed            Kind = "embed"
	KindEquation         Kind = "equation"
	KindTable            Kind = "table"
	KindTableRow         Kind = "table_row"
	KindColumnList       Kind = "column_list"
	KindColumn           Kind = "column"
	KindTableOfContents  Kind = "table_of_contents"
)

// ChildRule describes which children a kind accepts.
type ChildRule int

const (
	// ChildrenAny accepts children of any kind.
	ChildrenAny ChildRule = iota
	// ChildrenNone forbids children entirely.
	ChildrenNone
	// ChildrenTyped accepts only children of a single kind.
	ChildrenTyped
)

type kindSpec struct {
	ceiling int
	rule    ChildRule
	child   Kind
}

// kindTable is the single source of nesting rules. The ceiling is the deepest
// level, counted from the root units of one call, at which a node of the kind
// may still be embedded.
var kindTable = map[Kind]kindSpec{
	KindParagraph:        {ceiling: 2},
	KindHeading1:         {ceiling: 2},
	KindHeading2:         {ceiling: 2},
	KindHeading3:         {ceiling: 2},
	KindBulletedListItem: {ceiling: 2},
	KindNumberedListItem: {ceiling: 2},
	KindToDo:             {ceiling: 2},
	KindToggle:           {ceiling: 2},
	KindQuote:            {ceiling: 2},
	KindCallout:          {ceiling: 2},
	KindCode:             {ceiling: 2, rule: ChildrenNone},
	KindDivider:          {ceiling: 2, rule: ChildrenNone},
	KindImage:            {ceiling: 2, rule: ChildrenNone},
	KindVideo:            {ceiling: 2, rule: ChildrenNone},
	KindFile:             {ceiling: 2, rule: ChildrenNone},
	KindPDF:              {ceiling: 2, rule: ChildrenNone},
	KindBookmark:         {ceiling: 2, rule: ChildrenNone},
	KindEmbed:            {ceiling: 2, rule: ChildrenNone},
	KindEquation:         {ceiling: 2, rule: ChildrenNone},
	KindTableOfContents:  {ceiling: 2, rule: ChildrenNone},
	KindTable:            {ceiling: 1, rule: ChildrenTyped, child: KindTableRow},
	KindTableRow:         {ceiling: 2, rule: ChildrenNone},
	KindColumnList:       {ceiling: 0, rule: ChildrenTyped, child: KindColumn},
	KindColumn:           {ceiling: 0},
}

// Validate reports ErrUnhandledKind for kinds missing from the nesting table.
func (k Kind) Validate() error {
	if _, ok := kindTable[k]; !ok {
		return fmt.Errorf("%w: %q", ErrUnhandledKind, string(k))
	}
	return nil
}

// DepthCeiling returns the deepest in-call level at which the kind may be embedded.
// Unknown kinds report -1 so they never embed.
func (k Kind) DepthCeiling() int {
	spec, ok := kindTable[k]
	if !ok {
		return -1
	}
	return spec.ceiling
}

// ChildRule returns the child acceptance rule of the kind.
func (k Kind) ChildRule() ChildRule {
	return kindTable[k].rule
}

// AllowsChildren reports whether blocks of this kind may carry children.
func (k Kind) AllowsChildren() bool {
	spec, ok := kindTable[k]
	return ok && spec.rule != ChildrenNone
}

// RequiredChildKind returns the only kind accepted as a child, if the kind is typed.
func (k Kind) RequiredChildKind() (Kind, bool) {
	spec := kindTable[k]
	if spec.rule != ChildrenTyped {
		return "", false
	}
	return spec.child, true
}

// Kinds lists every kind known to the nesting table, sorted.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindTable))
	for k := range kindTable {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CheckChild validates that child may be placed under a parent of kind k.
func (k Kind) CheckChild(child Kind) error {
	spec, ok := kindTable[k]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnhandledKind, string(k))
	}
	switch spec.rule {
	case ChildrenNone:
		return ErrChildrenForbidden
	case ChildrenTyped:
		if child != spec.child {
			return fmt.Errorf("%w: %s accepts only %s, got %s", ErrInvalidChildKind, k, spec.child, child)
		}
	}
	return nil
}
