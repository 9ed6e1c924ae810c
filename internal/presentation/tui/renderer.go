package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWrap = 100

// NewRenderer returns a function that renders markdown using glamour. When out
// is not a terminal the markdown passes through unchanged, so piped previews
// stay plain text.
func NewRenderer(out *os.File) (func(string) (string, error), error) {
	fd := int(out.Fd())
	if !term.IsTerminal(fd) {
		return func(markdown string) (string, error) { return markdown, nil }, nil
	}

	wrap := defaultWrap
	if w, _, err := term.GetSize(fd); err == nil && w > 0 && w < wrap {
		wrap = w
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil, err
	}

	return r.Render, nil
}

// RenderStyled renders markdown with a fixed glamour style regardless of the
// terminal, e.g. "dark", "light" or "notty".
func RenderStyled(markdown, style string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(defaultWrap),
	)
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}
