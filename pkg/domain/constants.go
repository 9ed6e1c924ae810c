package domain

// Hard limits of the remote write API.
const (
	// MaxSiblings is the largest number of sibling nodes a single append call may create.
	MaxSiblings = 100

	// MaxCallDepth is the number of nesting levels a payload may embed below its
	// top-level units (the call root level plus two embeddable levels).
	MaxCallDepth = 2
)

// AnchorFormat renders the token that stands in for a block displaced out of an
// inline-only context.
const AnchorFormat = "[%d]"
