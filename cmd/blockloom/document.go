package main

import (
	"fmt"

	"github.com/aretw0/blockloom/internal/compiler"
	"github.com/aretw0/blockloom/pkg/domain"
)

// loadDocument compiles a YAML or JSON document into writable content.
func loadDocument(path string) ([]domain.FlexibleBlock, error) {
	blocks, err := compiler.CompileFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s: %w", path, err)
	}
	content := make([]domain.FlexibleBlock, len(blocks))
	for i, b := range blocks {
		content[i] = b
	}
	return content, nil
}
