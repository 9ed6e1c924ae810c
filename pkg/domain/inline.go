package domain

import "strings"

// InlineType tags the content of an Inline run.
type InlineType string

const (
	InlineText         InlineType = "text"
	InlineMention      InlineType = "mention"
	InlineTypeEquation InlineType = "equation"
)

// Annotations carries the style payload of an Inline run.
type Annotations struct {
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Code          bool   `json:"code,omitempty"`
	Color         string `json:"color,omitempty"`
}

// Inline is a leaf run of rich content. Values are immutable once constructed:
// every helper returns a copy.
type Inline struct {
	Type InlineType

	// Text is the visible content. For mentions it is the fallback label.
	Text string

	// Href is the link target of a text run (optional).
	Href string

	// MentionID references the mentioned page when Type == InlineMention.
	MentionID string

	// Expression is the TeX source when Type == InlineTypeEquation.
	Expression string

	Annotations Annotations
}

func (Inline) flexible() {}

// Text creates a plain text run.
func Text(content string) Inline {
	return Inline{Type: InlineText, Text: content}
}

// Code creates a text run rendered as inline code.
func Code(content string) Inline {
	return Inline{Type: InlineText, Text: content, Annotations: Annotations{Code: true}}
}

// Link creates a text run pointing at href.
func Link(content, href string) Inline {
	return Inline{Type: InlineText, Text: content, Href: href}
}

// Mention creates a reference to another page.
func Mention(id, label string) Inline {
	return Inline{Type: InlineMention, MentionID: id, Text: label}
}

// InlineEquation creates an inline TeX expression.
func InlineEquation(expr string) Inline {
	return Inline{Type: InlineTypeEquation, Expression: expr, Text: expr}
}

// Styled returns a copy of the run with the given annotations.
func (i Inline) Styled(a Annotations) Inline {
	i.Annotations = a
	return i
}

// PlainText concatenates the visible text of a sequence of runs.
func PlainText(runs []Inline) string {
	var sb strings.Builder
	for _, r := range runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}
