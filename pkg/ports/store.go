package ports

import (
	"context"

	"github.com/aretw0/blockloom/pkg/domain"
)

// BlockStore is the remote hierarchical content store.
type BlockStore interface {
	// AppendChildren creates children (with their embedded subtrees) at the end
	// of parentID's children in one call, returning the ids of the created
	// top-level nodes in order.
	// Payloads exceeding the write limits fail with a domain.CodeInvalidInput RemoteError.
	AppendChildren(ctx context.Context, parentID string, children []domain.Block) ([]string, error)

	// ListChildren returns one page of parentID's children in creation order.
	// An empty cursor starts the listing; pageSize <= 0 selects the store's default.
	// Unknown parents fail with a domain.CodeNotFound RemoteError.
	ListChildren(ctx context.Context, parentID, cursor string, pageSize int) (*domain.ChildPage, error)
}

// ListAll drains every page of parentID's children.
func ListAll(ctx context.Context, store BlockStore, parentID string, pageSize int) ([]domain.ChildRef, error) {
	var (
		all    []domain.ChildRef
		cursor string
	)
	for {
		page, err := store.ListChildren(ctx, parentID, cursor, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Children...)
		if !page.HasMore() {
			return all, nil
		}
		cursor = page.NextCursor
	}
}
