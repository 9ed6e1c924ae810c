package schema_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBlock_WireShape(t *testing.T) {
	b := domain.NewParagraph(
		domain.Text("see "),
		domain.Link("docs", "https://example.com"),
	)

	wire, err := schema.EncodeBlock(b)
	require.NoError(t, err)
	data, err := json.Marshal(wire)
	require.NoError(t, err)

	var obj map[string]any
	require.NoError(t, json.Unmarshal(data, &obj))
	assert.Equal(t, "block", obj["object"])
	assert.Equal(t, "paragraph", obj["type"])
	assert.NotContains(t, obj, "has_children")

	body, ok := obj["paragraph"].(map[string]any)
	require.True(t, ok, "content must sit under the type key")
	runs, ok := body["rich_text"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 2)
	link := runs[1].(map[string]any)["text"].(map[string]any)["link"].(map[string]any)
	assert.Equal(t, "https://example.com", link["url"])
}

func TestEncodeBlock_EmptyRichTextIsPresent(t *testing.T) {
	wire, err := schema.EncodeBlock(domain.NewParagraph())
	require.NoError(t, err)
	data, err := json.Marshal(wire)
	require.NoError(t, err)
	assert.JSONEq(t, `{"object":"block","type":"paragraph","paragraph":{"rich_text":[]}}`, string(data))
}

func TestRoundTrip_Tree(t *testing.T) {
	tree := []domain.Block{
		domain.NewBlock(domain.Heading{Level: 2, RichText: []domain.Inline{domain.Text("Intro")}, Toggleable: true},
			domain.NewParagraph(domain.Text("bold").Styled(domain.Annotations{Bold: true}), domain.InlineEquation("e=mc^2")),
		),
		domain.NewBlock(domain.ListItem{Numbered: true, RichText: []domain.Inline{domain.Mention("page-1", "Roadmap")}},
			domain.NewBlock(domain.ToDo{RichText: []domain.Inline{domain.Text("ship")}, Checked: true}),
		),
		domain.NewBlock(domain.Callout{RichText: []domain.Inline{domain.Text("note")}, Icon: "💡", Color: "gray_background"}),
		domain.NewBlock(domain.CodeBlock{RichText: []domain.Inline{domain.Text("x := 1")}, Language: "go", Caption: []domain.Inline{domain.Code("[1]")}}),
		domain.NewBlock(domain.Media{MediaKind: domain.KindImage, URL: "https://example.com/cat.png", Caption: []domain.Inline{domain.Text("a cat")}}),
		domain.NewBlock(domain.Table{Width: 2, HasColumnHeader: true},
			domain.NewBlock(domain.TableRow{Cells: [][]domain.Inline{{domain.Text("a")}, {domain.Text("b")}}}),
		),
		domain.NewBlock(domain.ColumnList{}, domain.NewBlock(domain.Column{}, domain.NewBlock(domain.Divider{}))),
		domain.NewBlock(domain.Bookmark{URL: "https://example.com"}),
		domain.NewBlock(domain.Equation{Expression: `\int x dx`}),
		domain.NewBlock(domain.TableOfContents{}),
	}

	wire, err := schema.EncodeBlocks(tree)
	require.NoError(t, err)
	data, err := json.Marshal(schema.AppendRequest{Children: wire})
	require.NoError(t, err)

	var req schema.AppendRequest
	require.NoError(t, json.Unmarshal(data, &req))
	decoded, err := schema.DecodeBlocks(req.Children)
	require.NoError(t, err)
	assert.Equal(t, tree, decoded)
}

func TestEncodeBlock_UnknownKind(t *testing.T) {
	_, err := schema.EncodeBlock(domain.NewBlock(domain.Heading{Level: 7}))
	assert.ErrorIs(t, err, domain.ErrUnhandledKind)
}

func TestDecodeBlock_Malformed(t *testing.T) {
	var b schema.Block
	err := json.Unmarshal([]byte(`{"object":"page","type":"paragraph"}`), &b)
	var verr *schema.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "object", verr.Key)

	require.NoError(t, json.Unmarshal([]byte(`{"object":"block","type":"synced_block","synced_block":{}}`), &b))
	_, err = schema.DecodeBlock(b)
	assert.ErrorIs(t, err, domain.ErrUnhandledKind)

	require.NoError(t, json.Unmarshal([]byte(`{"type":"paragraph","paragraph":{"rich_text":[{"type":"sparkle"}]}}`), &b))
	_, err = schema.DecodeBlock(b)
	assert.ErrorAs(t, err, &verr)
}

func TestList_Envelope(t *testing.T) {
	l := schema.NewList(nil, "")
	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"object":"list","results":[],"next_cursor":null,"has_more":false}`, string(data))
	assert.Empty(t, l.Cursor())

	l = schema.NewList([]schema.Block{{ID: "b1", Type: "divider"}}, "b2")
	assert.True(t, l.HasMore)
	assert.Equal(t, "b2", l.Cursor())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"remote rate limit", &domain.RemoteError{Code: domain.CodeRateLimit, Message: "slow down"}, "rate_limited", http.StatusTooManyRequests},
		{"remote not found", &domain.RemoteError{Code: domain.CodeNotFound, Message: "gone"}, "object_not_found", http.StatusNotFound},
		{"limit exceeded", fmt.Errorf("append: %w", domain.ErrLimitExceeded), "validation_error", http.StatusBadRequest},
		{"structural", &domain.StructuralError{Kind: domain.KindDivider, Err: domain.ErrChildrenForbidden}, "validation_error", http.StatusBadRequest},
		{"anything else", errors.New("boom"), "internal_server_error", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := schema.NewError(tt.err)
			assert.Equal(t, "error", env.Object)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.status, env.Status)

			remote := env.RemoteError("append")
			assert.Equal(t, tt.status, remote.Status)
			assert.Equal(t, schema.CodeFromWire(tt.code, 0), remote.Code)
		})
	}
}

func TestCodeFromWire_StatusFallback(t *testing.T) {
	assert.Equal(t, domain.CodeRateLimit, schema.CodeFromWire("", http.StatusTooManyRequests))
	assert.Equal(t, domain.CodeUnavailable, schema.CodeFromWire("bad_gateway", http.StatusBadGateway))
	assert.Equal(t, domain.CodeInternal, schema.CodeFromWire("", http.StatusNotImplemented))
	assert.Equal(t, domain.CodeInvalidInput, schema.CodeFromWire("", http.StatusUnprocessableEntity))
	assert.Equal(t, domain.CodeUnknown, schema.CodeFromWire("", 0))
}
