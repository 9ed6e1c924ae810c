package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the blockloom banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{" _     _         _    _", "#818cf8"},
		{"| |__ | |___  __| |__| |___  ___  _ __ ___", "#a78bfa"},
		{"| '_ \\| / _ \\/ _| / /| / _ \\/ _ \\| '_ ` _ \\", "#c084fc"},
		{"|_.__/|_\\___/\\__|_\\_\\|_\\___/\\___/|_| |_| |_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
