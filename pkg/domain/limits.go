package domain

import "fmt"

// CheckCallLimits verifies that one append payload fits the remote write limits:
// at most MaxSiblings units per children list, no node deeper than MaxCallDepth
// or its own kind's ceiling, and every kind's child rule honored.
// Store adapters call it before committing anything.
func CheckCallLimits(units []Block) error {
	return checkLevel(units, 0, Path{})
}

func checkLevel(blocks []Block, level int, path Path) error {
	if len(blocks) > MaxSiblings {
		return fmt.Errorf("%w: %d siblings at %s (max %d)", ErrLimitExceeded, len(blocks), path, MaxSiblings)
	}
	for i, b := range blocks {
		at := path.Append(i)
		kind := b.Kind()
		if err := kind.Validate(); err != nil {
			return err
		}
		if level > MaxCallDepth || level > kind.DepthCeiling() {
			return fmt.Errorf("%w: %s at level %d of one call (%s)", ErrLimitExceeded, kind, level, at)
		}
		for _, c := range b.Children {
			if err := kind.CheckChild(c.Kind()); err != nil {
				return &StructuralError{Path: at, Kind: kind, Reason: "invalid child", Err: err}
			}
		}
		if err := checkLevel(b.Children, level+1, at); err != nil {
			return err
		}
	}
	return nil
}
