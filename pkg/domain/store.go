package domain

// ChildRef identifies an existing child node returned by a listing.
type ChildRef struct {
	ID          string
	Kind        Kind
	HasChildren bool
}

// ChildPage is one page of a paginated children listing in creation order.
type ChildPage struct {
	Children []ChildRef

	// NextCursor continues the listing; empty when the listing is exhausted.
	NextCursor string
}

// HasMore reports whether another page follows.
func (p *ChildPage) HasMore() bool {
	return p != nil && p.NextCursor != ""
}
