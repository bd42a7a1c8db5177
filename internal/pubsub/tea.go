package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// WaitCmd blocks on ch and returns the next event as a tea.Msg.
// It yields nil once ctx is done or ch is closed.
func WaitCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			return ev
		}
	}
}

// Listener keeps one subscription alive across Update calls.
// Call Next again after handling each event.
type Listener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// Listen subscribes to src for the lifetime of ctx.
func Listen[T any](ctx context.Context, src Subscriber[T]) *Listener[T] {
	return &Listener[T]{ctx: ctx, ch: src.Subscribe(ctx)}
}

// Next returns a command that waits for the following event.
func (l *Listener[T]) Next() tea.Cmd {
	if l == nil {
		return nil
	}
	return WaitCmd(l.ctx, l.ch)
}
