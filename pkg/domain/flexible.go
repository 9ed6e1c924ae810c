package domain

// FlexibleBlock is content not yet committed to a shape: either an Inline run or
// a Block. The interface is sealed; only Inline and Block implement it.
type FlexibleBlock interface {
	flexible()
}

var (
	_ FlexibleBlock = Inline{}
	_ FlexibleBlock = Block{}
)
