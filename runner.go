package emergence

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/emergence/internal/logging"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/editor"
)

// Runner drives a Session from line-based terminal input.
//
//	Enter   activate (Waiting)
//	1..n    follow a follow-up (Expanded)
//	b       return to origin (Expanded)
//	r       retry (LoadFailed)
//	q       quit
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer
	// PhaseLabel decorates phase names, e.g. with terminal colors.
	PhaseLabel func(domain.Phase) string
	Logger     *slog.Logger
}

// ContentRenderer transforms an answer before it is written, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// errQuit ends the loop without error.
var errQuit = errors.New("quit")

// Run starts the session and loops until the user quits, input ends or ctx is done.
func (r *Runner) Run(ctx context.Context, s *Session) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	lines := bufio.NewReader(r.Input)

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	lastRendered := ""
	for {
		s.Wait()
		if err := ctx.Err(); err != nil {
			return err
		}

		phase := s.Phase()
		switch phase {
		case domain.PhaseLoadFailed:
			fmt.Fprintf(r.Output, "%s %v\n", r.label(phase), s.LoadError())
			fmt.Fprintln(r.Output, "[r] retry  [q] quit")
		case domain.PhaseWaiting:
			fmt.Fprintf(r.Output, "%s press Enter to begin\n", r.label(phase))
		case domain.PhaseExpanded:
			view, err := s.DisplayModel()
			if err != nil {
				return fmt.Errorf("display: %w", err)
			}
			if view.NodeID != lastRendered {
				r.render(view)
				lastRendered = view.NodeID
			}
		default:
			// A sequence finished without reaching a resting phase, e.g. after Close.
			return nil
		}

		input, err := r.readLine(lines)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		err = r.dispatch(ctx, s, phase, input)
		switch {
		case errors.Is(err, errQuit):
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		case errors.Is(err, domain.ErrNodeNotFound):
			// Dangling follow-up: the view stays where it is.
			fmt.Fprintf(r.Output, "That path leads nowhere (%v).\n", err)
		case err != nil:
			logger.Debug("input rejected", "input", input, "phase", phase, "err", err)
			fmt.Fprintf(r.Output, "%v\n", err)
		}
		if phase == domain.PhaseExpanded && input == "b" {
			lastRendered = ""
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, s *Session, phase domain.Phase, input string) error {
	if input == "q" || input == "quit" || input == "exit" {
		return errQuit
	}
	switch phase {
	case domain.PhaseWaiting:
		return s.Activate(ctx)
	case domain.PhaseLoadFailed:
		if input == "r" {
			return s.Retry(ctx)
		}
		return fmt.Errorf("unknown command %q", input)
	case domain.PhaseExpanded:
		if input == "b" {
			return s.ReturnToOrigin(ctx)
		}
		n, err := strconv.Atoi(input)
		if err != nil {
			return fmt.Errorf("enter a number, b or q")
		}
		return s.Select(ctx, n-1)
	}
	return nil
}

func (r *Runner) readLine(lines *bufio.Reader) (string, error) {
	fmt.Fprint(r.Output, "> ")
	text, err := lines.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	return editor.StripControl(strings.TrimSpace(text)), nil
}

func (r *Runner) render(view *domain.DisplayModel) {
	fmt.Fprintf(r.Output, "\n# %s\n\n", view.Question)

	answer := view.Answer
	if r.Renderer != nil {
		if rendered, err := r.Renderer(answer); err == nil {
			answer = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(answer))

	if len(view.MediaBlocks) > 0 {
		fmt.Fprintln(r.Output)
		for _, b := range view.MediaBlocks {
			fmt.Fprintf(r.Output, "  %s\n", DescribeBlock(b))
		}
	}

	fmt.Fprintln(r.Output)
	for i, label := range view.FollowUpLabels {
		fmt.Fprintf(r.Output, "  [%d] %s\n", i+1, label)
	}
	if view.Terminal {
		fmt.Fprintln(r.Output, "  (end of this path)")
	}
	fmt.Fprintln(r.Output, "  [b] return to origin  [q] quit")
}

func (r *Runner) label(phase domain.Phase) string {
	if r.PhaseLabel != nil {
		return r.PhaseLabel(phase)
	}
	return "[" + string(phase) + "]"
}

// DescribeBlock renders a media block as one line of text.
func DescribeBlock(b domain.Block) string {
	switch v := b.(type) {
	case domain.VideoBlock:
		target := v.URL
		if v.EmbedURL != "" {
			target = v.EmbedURL
		}
		return fmt.Sprintf("[video/%s] %s <%s>", v.Provider, v.Title, target)
	case domain.LinkBlock:
		title := v.Title
		if title == "" {
			title = v.URL
		}
		return fmt.Sprintf("[link] %s (%s) <%s>", title, v.DisplayDomain, v.URL)
	case domain.ImageBlock:
		return fmt.Sprintf("[image] %s <%s>", v.Title, v.URL)
	case domain.AudioBlock:
		return fmt.Sprintf("[audio] %s <%s>", v.Title, v.URL)
	case domain.UnknownBlock:
		return fmt.Sprintf("[%s] <%s>", v.Type, v.URL)
	default:
		return fmt.Sprintf("[%s]", b.BlockKind())
	}
}
