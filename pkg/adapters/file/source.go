package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/emergence/internal/logging"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/editor"
	"github.com/aretw0/emergence/pkg/schema"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of write events from editors saving a file.
const DefaultDebounce = 100 * time.Millisecond

// Source implements ports.DocumentSource and ports.Watchable over a JSON or YAML file.
type Source struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithDebounce sets the quiet period before a change is signaled.
func WithDebounce(d time.Duration) SourceOption {
	return func(s *Source) {
		s.debounce = d
	}
}

// WithLogger sets the logger used by the watcher.
func WithLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource creates a source reading path. The format follows the extension:
// .yaml and .yml are YAML, anything else is JSON.
func NewSource(path string, opts ...SourceOption) *Source {
	s := &Source{
		path:     path,
		debounce: DefaultDebounce,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file the source reads.
func (s *Source) Path() string {
	return s.path
}

// Format returns "yaml" or "json" depending on the file extension.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Fetch reads, guards, parses and validates the file.
func (s *Source) Fetch(ctx context.Context) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &domain.LoadFailure{Source: s.path, Err: err}
	}
	doc, err := Decode(data, Format(s.path))
	if err != nil {
		return nil, &domain.LoadFailure{Source: s.path, Err: err}
	}
	return doc, nil
}

// Decode guards, parses and validates document text in the given format.
func Decode(data []byte, format string) (*domain.Document, error) {
	if err := editor.Guard(data); err != nil {
		return nil, err
	}
	raw, err := schema.ParseFormat(data, format)
	if err != nil {
		return nil, err
	}
	res := schema.Validate(raw)
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res.Document, nil
}

// Watch signals when the file is written, created or renamed into place.
// The directory is watched as well so atomic saves are seen. The channel is closed
// when ctx is done.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.path, err)
	}

	out := make(chan struct{}, 1)
	go s.watchLoop(ctx, watcher, out)
	return out, nil
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- struct{}) {
	defer close(out)
	defer watcher.Close()

	name := filepath.Base(s.path)
	var debounce *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(s.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case <-fire:
			s.logger.Debug("document changed", "path", s.path)
			select {
			case out <- struct{}{}:
			default:
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("file watcher error", "path", s.path, "err", err)
		}
	}
}
