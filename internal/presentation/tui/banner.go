package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/emergence/pkg/domain"
	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  ___ _ __ ___   ___ _ __ __ _  ___ _ __   ___ ___ ", "#818cf8"},
	{" / _ \\ '_ ` _ \\ / _ \\ '__/ _` |/ _ \\ '_ \\ / __/ _ \\", "#a78bfa"},
	{"|  __/ | | | | |  __/ | | (_| |  __/ | | | (_|  __/", "#c084fc"},
	{" \\___|_| |_| |_|\\___|_|  \\__, |\\___|_| |_|\\___\\___|", "#e879f9"},
	{"                         |___/                     ", "#f472b6"},
}

// PrintBanner writes the ASCII banner to w, colored for the given profile.
func PrintBanner(w io.Writer, p termenv.Profile) {
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

var phaseColors = map[domain.Phase]string{
	domain.PhaseIntro:      "#94a3b8",
	domain.PhaseLoadFailed: "#f87171",
	domain.PhaseEmerging:   "#818cf8",
	domain.PhaseWaiting:    "#fbbf24",
	domain.PhaseBursting:   "#e879f9",
	domain.PhaseExpanded:   "#34d399",
}

// PhaseLabeler returns a formatter for phase names in the given profile.
func PhaseLabeler(p termenv.Profile) func(domain.Phase) string {
	return func(phase domain.Phase) string {
		s := termenv.String("[" + string(phase) + "]")
		if c, ok := phaseColors[phase]; ok {
			s = s.Foreground(p.Color(c))
		}
		if phase == domain.PhaseLoadFailed {
			s = s.Bold()
		}
		return s.String()
	}
}
