package ports

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/blockloom/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBlockStoreContract runs a suite of tests to verify that a BlockStore implementation
// adheres to the defined interface contract. rootID must name an existing, empty node.
func RunBlockStoreContract(t *testing.T, store BlockStore, rootID string) {
	ctx := context.Background()

	t.Run("Append and List", func(t *testing.T) {
		parent := appendOne(t, store, rootID, domain.NewParagraph(domain.Text("parent")))

		children := []domain.Block{
			domain.NewParagraph(domain.Text("one")),
			domain.NewBlock(domain.Divider{}),
			domain.NewBlock(domain.Heading{Level: 2, RichText: []domain.Inline{domain.Text("two")}}),
		}
		ids, err := store.AppendChildren(ctx, parent, children)
		require.NoError(t, err, "AppendChildren should not return error")
		require.Len(t, ids, len(children))

		listed, err := ListAll(ctx, store, parent, 0)
		require.NoError(t, err)
		require.Len(t, listed, len(children))
		for i, ref := range listed {
			assert.Equal(t, ids[i], ref.ID, "listing must preserve creation order")
			assert.Equal(t, children[i].Kind(), ref.Kind)
			assert.False(t, ref.HasChildren)
		}
	})

	t.Run("Append Preserves Existing Children", func(t *testing.T) {
		parent := appendOne(t, store, rootID, domain.NewParagraph(domain.Text("ordered")))

		first, err := store.AppendChildren(ctx, parent, []domain.Block{domain.NewParagraph(domain.Text("a"))})
		require.NoError(t, err)
		second, err := store.AppendChildren(ctx, parent, []domain.Block{domain.NewParagraph(domain.Text("b"))})
		require.NoError(t, err)

		listed, err := ListAll(ctx, store, parent, 0)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, first[0], listed[0].ID)
		assert.Equal(t, second[0], listed[1].ID)
	})

	t.Run("Embedded Subtree", func(t *testing.T) {
		tree := domain.NewBlock(domain.Toggle{RichText: []domain.Inline{domain.Text("level 0")}},
			domain.NewBlock(domain.ListItem{RichText: []domain.Inline{domain.Text("level 1")}},
				domain.NewParagraph(domain.Text("level 2")),
			),
		)
		top := appendOne(t, store, rootID, tree)

		level1, err := ListAll(ctx, store, top, 0)
		require.NoError(t, err)
		require.Len(t, level1, 1)
		assert.Equal(t, domain.KindBulletedListItem, level1[0].Kind)
		assert.True(t, level1[0].HasChildren)

		level2, err := ListAll(ctx, store, level1[0].ID, 0)
		require.NoError(t, err)
		require.Len(t, level2, 1)
		assert.Equal(t, domain.KindParagraph, level2[0].Kind)
	})

	t.Run("Pagination", func(t *testing.T) {
		parent := appendOne(t, store, rootID, domain.NewParagraph(domain.Text("paged")))

		children := make([]domain.Block, 5)
		for i := range children {
			children[i] = domain.NewParagraph(domain.Text(fmt.Sprintf("p%d", i)))
		}
		ids, err := store.AppendChildren(ctx, parent, children)
		require.NoError(t, err)

		var (
			pages  int
			seen   []string
			cursor string
		)
		for {
			page, err := store.ListChildren(ctx, parent, cursor, 2)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(page.Children), 2)
			for _, ref := range page.Children {
				seen = append(seen, ref.ID)
			}
			pages++
			if !page.HasMore() {
				break
			}
			cursor = page.NextCursor
		}
		assert.Equal(t, 3, pages)
		assert.Equal(t, ids, seen)
	})

	t.Run("Sibling Limit", func(t *testing.T) {
		parent := appendOne(t, store, rootID, domain.NewParagraph(domain.Text("crowded")))

		children := make([]domain.Block, domain.MaxSiblings+1)
		for i := range children {
			children[i] = domain.NewParagraph(domain.Text("x"))
		}
		_, err := store.AppendChildren(ctx, parent, children)
		require.Error(t, err)
		assert.Equal(t, domain.CodeInvalidInput, domain.CodeOf(err))

		listed, err := ListAll(ctx, store, parent, 0)
		require.NoError(t, err)
		assert.Empty(t, listed, "a rejected call must not create anything")
	})

	t.Run("Depth Limit", func(t *testing.T) {
		tooDeep := domain.NewBlock(domain.Toggle{},
			domain.NewBlock(domain.Toggle{},
				domain.NewBlock(domain.Toggle{},
					domain.NewParagraph(domain.Text("level 3")),
				),
			),
		)
		_, err := store.AppendChildren(ctx, rootID, []domain.Block{tooDeep})
		require.Error(t, err)
		assert.Equal(t, domain.CodeInvalidInput, domain.CodeOf(err))
	})

	t.Run("Unknown Parent", func(t *testing.T) {
		_, err := store.AppendChildren(ctx, "missing-parent", []domain.Block{domain.NewParagraph()})
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))

		_, err = store.ListChildren(ctx, "missing-parent", "", 0)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})
}

func appendOne(t *testing.T, store BlockStore, parentID string, b domain.Block) string {
	t.Helper()
	ids, err := store.AppendChildren(context.Background(), parentID, []domain.Block{b})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	return ids[0]
}
