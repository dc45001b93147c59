package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, termenv.Ascii)
	out := buf.String()
	assert.NotContains(t, out, "\x1b[")
	assert.Equal(t, len(bannerLines)+2, strings.Count(out, "\n"))

	buf.Reset()
	PrintBanner(&buf, termenv.TrueColor)
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestPhaseLabeler(t *testing.T) {
	plain := PhaseLabeler(termenv.Ascii)
	assert.Equal(t, "[waiting]", plain(domain.PhaseWaiting))
	assert.Equal(t, "[expanded]", plain(domain.PhaseExpanded))

	colored := PhaseLabeler(termenv.TrueColor)
	label := colored(domain.PhaseLoadFailed)
	assert.Contains(t, label, "[load_failed]")
	assert.Contains(t, label, "\x1b[")
}

func TestNewRenderer_NotTerminal(t *testing.T) {
	render, err := NewRenderer(&bytes.Buffer{})
	require.NoError(t, err)

	out, err := render("**Hi**")
	require.NoError(t, err)
	assert.Equal(t, "**Hi**", out)
}

func TestNewMarkdownRenderer(t *testing.T) {
	render, err := NewMarkdownRenderer(glamour.WithStandardStyle("notty"), 40)
	require.NoError(t, err)

	out, err := render("# Title\n\nSome *answer* text.")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "answer")
}
