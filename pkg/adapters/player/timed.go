package player

import (
	"context"
	"time"

	"github.com/aretw0/emergence/pkg/domain"
)

// DefaultFrameInterval is the progress tick used when none is configured (about 60fps).
const DefaultFrameInterval = 16 * time.Millisecond

// DefaultDurations are the sequence lengths of the original experience.
func DefaultDurations() map[domain.Sequence]time.Duration {
	return map[domain.Sequence]time.Duration{
		domain.SequenceEmergence: 2 * time.Second,
		domain.SequenceBurst:     1500 * time.Millisecond,
		domain.SequenceReveal:    time.Second,
		domain.SequenceTeardown:  time.Second,
	}
}

// ProgressFunc receives the elapsed fraction (0..1] of a sequence on every frame.
type ProgressFunc func(seq domain.Sequence, progress float64)

// Timed implements ports.SequencePlayer with wall-clock durations.
// Sequences without a configured duration complete immediately.
type Timed struct {
	durations map[domain.Sequence]time.Duration
	frame     time.Duration
	progress  ProgressFunc
}

// Option configures a Timed player.
type Option func(*Timed)

// WithDuration overrides the length of one sequence.
func WithDuration(seq domain.Sequence, d time.Duration) Option {
	return func(p *Timed) {
		p.durations[seq] = d
	}
}

// WithFrameInterval sets how often progress is reported.
func WithFrameInterval(d time.Duration) Option {
	return func(p *Timed) {
		if d > 0 {
			p.frame = d
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Timed) {
		p.progress = fn
	}
}

// NewTimed creates a player using DefaultDurations unless overridden.
func NewTimed(opts ...Option) *Timed {
	p := &Timed{
		durations: DefaultDurations(),
		frame:     DefaultFrameInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Duration returns the configured length of seq.
func (p *Timed) Duration(seq domain.Sequence) time.Duration {
	return p.durations[seq]
}

// Play blocks for the sequence duration, reporting progress on each frame.
func (p *Timed) Play(ctx context.Context, seq domain.Sequence) error {
	total := p.durations[seq]
	if total <= 0 {
		p.report(seq, 1)
		return ctx.Err()
	}

	start := time.Now()
	deadline := time.NewTimer(total)
	defer deadline.Stop()
	ticker := time.NewTicker(p.frame)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			p.report(seq, 1)
			return nil
		case <-ticker.C:
			if elapsed := float64(time.Since(start)) / float64(total); elapsed < 1 {
				p.report(seq, elapsed)
			}
		}
	}
}

func (p *Timed) report(seq domain.Sequence, progress float64) {
	if p.progress != nil {
		p.progress(seq, progress)
	}
}

// Instant implements ports.SequencePlayer by completing every sequence at once.
type Instant struct{}

// Play returns immediately unless ctx is already done.
func (Instant) Play(ctx context.Context, _ domain.Sequence) error {
	return ctx.Err()
}
