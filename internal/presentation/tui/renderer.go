package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWrap = 80

// NewRenderer returns a markdown renderer for answers written to out.
// Output that is not a terminal gets the text unchanged.
func NewRenderer(out io.Writer) (func(string) (string, error), error) {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return Plain, nil
	}
	width := defaultWrap
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 && w < width {
		width = w
	}
	return NewMarkdownRenderer(glamour.WithAutoStyle(), width)
}

// NewMarkdownRenderer builds a glamour renderer with the given style option.
func NewMarkdownRenderer(style glamour.TermRendererOption, width int) (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// Plain returns markdown as is.
func Plain(markdown string) (string, error) {
	return markdown, nil
}
