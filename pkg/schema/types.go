package schema

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/blockloom/pkg/domain"
)

// RichText is one typed run of rich text.
type RichText struct {
	Type        string             `json:"type"`
	Text        *TextContent       `json:"text,omitempty"`
	Mention     *MentionContent    `json:"mention,omitempty"`
	Equation    *EquationContent   `json:"equation,omitempty"`
	Annotations domain.Annotations `json:"annotations,omitzero"`
	PlainText   string             `json:"plain_text,omitempty"`
}

// TextContent is the payload of a "text" run.
type TextContent struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link is a hyperlink target.
type Link struct {
	URL string `json:"url"`
}

// MentionContent is the payload of a "mention" run.
type MentionContent struct {
	Type string   `json:"type"`
	Page *PageRef `json:"page,omitempty"`
}

// PageRef references a page by id.
type PageRef struct {
	ID string `json:"id"`
}

// EquationContent is the payload of an "equation" run.
type EquationContent struct {
	Expression string `json:"expression"`
}

// Icon is a callout icon.
type Icon struct {
	Type  string `json:"type"`
	Emoji string `json:"emoji,omitempty"`
}

// External points at externally hosted media.
type External struct {
	URL string `json:"url"`
}

// Content is the type-keyed body of a block. Only the fields relevant to the
// block type are set.
type Content struct {
	RichText        []RichText   `json:"rich_text,omitzero"`
	Color           string       `json:"color,omitempty"`
	IsToggleable    bool         `json:"is_toggleable,omitempty"`
	Checked         bool         `json:"checked,omitempty"`
	Icon            *Icon        `json:"icon,omitempty"`
	Language        string       `json:"language,omitempty"`
	Caption         []RichText   `json:"caption,omitzero"`
	Type            string       `json:"type,omitempty"`
	External        *External    `json:"external,omitempty"`
	URL             string       `json:"url,omitempty"`
	Expression      string       `json:"expression,omitempty"`
	TableWidth      int          `json:"table_width,omitempty"`
	HasColumnHeader bool         `json:"has_column_header,omitempty"`
	HasRowHeader    bool         `json:"has_row_header,omitempty"`
	Cells           [][]RichText `json:"cells,omitzero"`
	Children        []Block      `json:"children,omitempty"`
}

// Block is a block object.
type Block struct {
	ID          string
	Type        string
	HasChildren bool
	Content     Content
}

// MarshalJSON places the content under the key named by the block type.
func (b Block) MarshalJSON() ([]byte, error) {
	if b.Type == "" {
		return nil, fmt.Errorf("block without type")
	}
	obj := map[string]any{
		"object": "block",
		"type":   b.Type,
		b.Type:   b.Content,
	}
	if b.ID != "" {
		obj["id"] = b.ID
	}
	if b.HasChildren {
		obj["has_children"] = true
	}
	return json.Marshal(obj)
}

// UnmarshalJSON reads the content from the key named by the block type.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var head struct {
		Object      string `json:"object"`
		ID          string `json:"id"`
		Type        string `json:"type"`
		HasChildren bool   `json:"has_children"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Object != "" && head.Object != "block" {
		return &ValidationError{Key: "object", Reason: "expected block", Value: head.Object}
	}
	if head.Type == "" {
		return &ValidationError{Key: "type", Reason: "missing block type"}
	}
	*b = Block{ID: head.ID, Type: head.Type, HasChildren: head.HasChildren}
	if body, ok := raw[head.Type]; ok {
		if err := json.Unmarshal(body, &b.Content); err != nil {
			return fmt.Errorf("block %s: %w", head.Type, err)
		}
	}
	return nil
}

// AppendRequest is the body of an append-children call.
type AppendRequest struct {
	Children []Block `json:"children"`
}

// List is the paginated list envelope.
type List struct {
	Object     string  `json:"object"`
	Results    []Block `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// NewList builds a list envelope; an empty cursor ends the listing.
func NewList(results []Block, nextCursor string) List {
	l := List{Object: "list", Results: results}
	if results == nil {
		l.Results = []Block{}
	}
	if nextCursor != "" {
		l.NextCursor = &nextCursor
		l.HasMore = true
	}
	return l
}

// Cursor returns the continuation cursor, empty when exhausted.
func (l List) Cursor() string {
	if !l.HasMore || l.NextCursor == nil {
		return ""
	}
	return *l.NextCursor
}
