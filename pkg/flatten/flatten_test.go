package flatten_test

import (
	"testing"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/aretw0/blockloom/pkg/flatten"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBlocks(t *testing.T) {
	t.Run("empty input yields empty output", func(t *testing.T) {
		assert.Empty(t, flatten.ToBlocks(nil))
	})

	t.Run("inline runs collapse into one paragraph", func(t *testing.T) {
		divider := domain.NewBlock(domain.Divider{})
		out := flatten.ToBlocks([]domain.FlexibleBlock{
			domain.Text("hello "),
			domain.Link("world", "https://example.com"),
			divider,
			domain.Text("tail"),
		})

		require.Len(t, out, 3)
		assert.Equal(t, domain.NewParagraph(domain.Text("hello "), domain.Link("world", "https://example.com")), out[0])
		assert.Equal(t, divider, out[1])
		assert.Equal(t, domain.NewParagraph(domain.Text("tail")), out[2])
	})

	t.Run("long runs split at the sibling limit", func(t *testing.T) {
		seq := make([]domain.FlexibleBlock, 0, 150)
		for i := 0; i < 150; i++ {
			seq = append(seq, domain.Text("x"))
		}
		out := flatten.ToBlocks(seq)
		require.Len(t, out, 2)
		assert.Len(t, out[0].RichText(), 100)
		assert.Len(t, out[1].RichText(), 50)
	})

	t.Run("already flat input is unchanged", func(t *testing.T) {
		blocks := []domain.Block{
			domain.NewParagraph(domain.Text("a")),
			domain.NewBlock(domain.Heading{Level: 2, RichText: []domain.Inline{domain.Text("b")}}),
			domain.NewBlock(domain.Toggle{}, domain.NewParagraph(domain.Text("c"))),
		}
		seq := make([]domain.FlexibleBlock, len(blocks))
		for i, b := range blocks {
			seq[i] = b
		}
		assert.Equal(t, blocks, flatten.ToBlocks(seq))
	})
}

func TestToInlines_Anchors(t *testing.T) {
	image := domain.NewBlock(domain.Media{
		MediaKind: domain.KindImage,
		URL:       "https://example.com/cat.png",
		Caption:   []domain.Inline{domain.Text("a cat")},
	})
	code := domain.NewBlock(domain.CodeBlock{
		Language: "go",
		RichText: []domain.Inline{domain.Text("fmt.Println()")},
	})

	inlines, displaced := flatten.ToInlines([]domain.FlexibleBlock{
		domain.Text("see "),
		image,
		domain.Text(" and "),
		code,
	}, nil)

	require.Len(t, inlines, 4)
	assert.Equal(t, domain.Text("see "), inlines[0])
	assert.Equal(t, domain.Code("[1]"), inlines[1])
	assert.Equal(t, domain.Text(" and "), inlines[2])
	assert.Equal(t, domain.Code("[2]"), inlines[3])

	require.Len(t, displaced, 2)
	assert.Equal(t, domain.Code("[1]"), displaced[0].Caption()[0])
	assert.Equal(t, "[1] a cat", domain.PlainText(displaced[0].Caption()))
	assert.Equal(t, domain.Code("[2]"), displaced[1].Caption()[0])
}

func TestToInlines_NumberingContinues(t *testing.T) {
	var displaced []domain.Block
	_, displaced = flatten.ToInlines([]domain.FlexibleBlock{domain.NewBlock(domain.Divider{})}, displaced)
	second, displaced := flatten.ToInlines([]domain.FlexibleBlock{domain.NewBlock(domain.Embed{URL: "https://example.com"})}, displaced)

	assert.Equal(t, []domain.Inline{domain.Code("[2]")}, second)
	assert.Len(t, displaced, 2)
	// Captionless kinds are displaced as they are.
	assert.Equal(t, domain.NewBlock(domain.Divider{}), displaced[0])
}

func TestPointerContent(t *testing.T) {
	code := domain.NewBlock(domain.CodeBlock{Language: "go", RichText: []domain.Inline{domain.Text("x")}})
	run := domain.Text("see ")
	var nilBlock *domain.Block

	t.Run("ToBlocks dereferences pointers", func(t *testing.T) {
		out := flatten.ToBlocks([]domain.FlexibleBlock{&run, &code, nilBlock, nil})
		assert.Equal(t, []domain.Block{domain.NewParagraph(run), code}, out)
	})

	t.Run("ToInlines dereferences pointers", func(t *testing.T) {
		var inlines []domain.Inline
		var displaced []domain.Block
		require.NotPanics(t, func() {
			inlines, displaced = flatten.ToInlines([]domain.FlexibleBlock{&run, &code}, nil)
		})
		assert.Equal(t, []domain.Inline{run, flatten.Anchor(1)}, inlines)
		require.Len(t, displaced, 1)
		assert.Equal(t, "[1] ", domain.PlainText(displaced[0].Caption()))
	})
}

func TestRemoveHeadingParagraph(t *testing.T) {
	t.Run("leading paragraph becomes caption", func(t *testing.T) {
		nested := domain.NewParagraph(domain.Text("nested"))
		rest := domain.NewBlock(domain.Divider{})
		caption, children := flatten.RemoveHeadingParagraph([]domain.Block{
			domain.NewParagraph(domain.Text("title")).WithChildren([]domain.Block{nested}),
			rest,
		})
		assert.Equal(t, []domain.Inline{domain.Text("title")}, caption)
		assert.Equal(t, []domain.Block{nested, rest}, children)
	})

	t.Run("no leading paragraph", func(t *testing.T) {
		blocks := []domain.Block{domain.NewBlock(domain.Divider{}), domain.NewParagraph(domain.Text("x"))}
		caption, children := flatten.RemoveHeadingParagraph(blocks)
		assert.Empty(t, caption)
		assert.Equal(t, blocks, children)
	})

	t.Run("empty", func(t *testing.T) {
		caption, children := flatten.RemoveHeadingParagraph(nil)
		assert.Empty(t, caption)
		assert.Empty(t, children)
	})
}

func TestChunk(t *testing.T) {
	assert.Nil(t, flatten.Chunk([]int{}, 3))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, flatten.Chunk([]int{1, 2, 3, 4, 5}, 2))
}
