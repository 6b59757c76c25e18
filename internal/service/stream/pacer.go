package stream

import (
	"context"
	"math/rand"
	"strings"
	"time"

	streammodel "github.com/kshitijgupta505/text-classify/internal/model/stream"
)

const pausePunctuation = ".,!?:"

// Pacer replays a finished sentence as per-character token events with a
// randomized typing delay. Disabling it changes no ordering guarantee.
type Pacer struct {
	enabled bool
}

// NewPacer returns a pacer; enabled=false emits without delay.
func NewPacer(enabled bool) *Pacer {
	return &Pacer{enabled: enabled}
}

// Emit writes one token event per character of text.
func (p *Pacer) Emit(ctx context.Context, text string, emit func(streammodel.Event) error) error {
	for _, r := range text {
		c := string(r)
		if err := emit(streammodel.Token(c)); err != nil {
			return err
		}
		if !p.enabled {
			continue
		}
		if err := sleep(ctx, delayFor(c)); err != nil {
			return err
		}
	}
	return nil
}

// delayFor pauses longer after punctuation: 30-70ms versus 15-35ms.
func delayFor(c string) time.Duration {
	if strings.Contains(pausePunctuation, c) {
		return time.Duration(30+rand.Intn(41)) * time.Millisecond
	}
	return time.Duration(15+rand.Intn(21)) * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
