package domain

import (
	"strconv"
	"strings"
)

// Path addresses a remote node by its sibling indices from the invocation root,
// as the tree will exist after every earlier plan entry has executed. An empty
// Path is the root itself.
type Path []int

// Append returns a new path extended with index i. The receiver is never aliased.
func (p Path) Append(i int) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = i
	return out
}

// Equal reports whether both paths address the same node.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the path as "/" for the root or "/3/0" for nested nodes.
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return "/" + strings.Join(parts, "/")
}
