// Package pubsub is a small typed publish/subscribe hub used to fan out
// log lines, sync results and file-change notifications.
package pubsub

import (
	"context"
	"time"
)

// Kind tags what happened.
type Kind string

const (
	KindLog     Kind = "log"
	KindLoaded  Kind = "loaded"
	KindSynced  Kind = "synced"
	KindChanged Kind = "changed"
)

// Event wraps a payload with its kind and publish time.
type Event[T any] struct {
	Kind Kind
	Data T
	At   time.Time
}

// Subscriber hands out subscription channels.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher accepts events.
type Publisher[T any] interface {
	Publish(kind Kind, data T)
}
