// Package syncgw moves the partition between the editor and the backend.
// Loads fetch the three backend lists in parallel and apply them all at once;
// saves flatten the partition, post it, and only clear the dirty flag after
// the backend confirms.
package syncgw

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/jinhealth/reconcile/internal/api"
	"github.com/jinhealth/reconcile/internal/log"
	"github.com/jinhealth/reconcile/internal/pubsub"
)

var (
	// ErrSyncRejected means the backend answered without status "synced".
	ErrSyncRejected = errors.New("sync rejected by backend")
	// ErrSaveInFlight means a save was started while another was outstanding.
	ErrSaveInFlight = errors.New("save already in progress")
)

// Backend is the remote side of the contract.
type Backend interface {
	CompanyList(ctx context.Context) ([]string, error)
	CompanyMap(ctx context.Context) ([]api.MapRow, error)
	CompanyExcludes(ctx context.Context) ([]string, error)
	Sync(ctx context.Context, req api.SyncRequest) (api.SyncResponse, error)
}

// Editor is the part of the reconciliation editor the gateway reads and writes.
type Editor interface {
	Replace(names []string, maps []api.MapRow, excludes []string)
	Payload() api.SyncRequest
	Revision() uint64
	MarkSaved(rev uint64, saved api.SyncRequest) bool
}

// Snapshot is everything a load fetches.
type Snapshot struct {
	Names    []string
	Maps     []api.MapRow
	Excludes []string
}

// Pending is a flattened payload tied to the editor revision it was taken at.
type Pending struct {
	Request  api.SyncRequest
	Revision uint64
}

// Event is published after a successful load or save. A synced event is the
// signal for downstream statistics to recalculate.
type Event struct {
	Maps     int
	Excludes int
	Clean    bool
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(g *Gateway) { g.tracer = t }
}

// Gateway owns load and save for one editor.
type Gateway struct {
	backend Backend
	ed      Editor
	tracer  trace.Tracer
	events  *pubsub.Broker[Event]
	saving  atomic.Bool
}

// New wires a gateway between backend and ed.
func New(backend Backend, ed Editor, opts ...Option) *Gateway {
	g := &Gateway{
		backend: backend,
		ed:      ed,
		tracer:  otel.Tracer("github.com/jinhealth/reconcile/internal/syncgw"),
		events:  pubsub.NewBroker[Event](),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Events streams load and sync notifications.
func (g *Gateway) Events() pubsub.Subscriber[Event] { return g.events }

// Close stops event delivery.
func (g *Gateway) Close() { g.events.Close() }

// Saving reports whether a save is outstanding.
func (g *Gateway) Saving() bool { return g.saving.Load() }

// Fetch retrieves names, map rows and exclusions concurrently. Any failure fails the whole fetch.
func (g *Gateway) Fetch(ctx context.Context) (s Snapshot, err error) {
	ctx, span := g.tracer.Start(ctx, "syncgw.Fetch")
	defer func() { endSpan(span, err) }()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		names, err := g.backend.CompanyList(ctx)
		if err != nil {
			return fmt.Errorf("loading company list: %w", err)
		}
		s.Names = names
		return nil
	})
	eg.Go(func() error {
		maps, err := g.backend.CompanyMap(ctx)
		if err != nil {
			return fmt.Errorf("loading company map: %w", err)
		}
		s.Maps = maps
		return nil
	})
	eg.Go(func() error {
		excludes, err := g.backend.CompanyExcludes(ctx)
		if err != nil {
			return fmt.Errorf("loading exclusions: %w", err)
		}
		s.Excludes = excludes
		return nil
	})
	if err := eg.Wait(); err != nil {
		log.ErrorErr(log.CatSync, "Load failed", err)
		return Snapshot{}, err
	}

	span.SetAttributes(
		attribute.Int("names", len(s.Names)),
		attribute.Int("maps", len(s.Maps)),
		attribute.Int("excludes", len(s.Excludes)),
	)
	return s, nil
}

// Apply replaces the editor state with s. Call it from the goroutine that owns the editor.
func (g *Gateway) Apply(s Snapshot) {
	g.ed.Replace(s.Names, s.Maps, s.Excludes)
	g.events.Publish(pubsub.KindLoaded, Event{Maps: len(s.Maps), Excludes: len(s.Excludes), Clean: true})
}

// Load is Fetch then Apply.
func (g *Gateway) Load(ctx context.Context) error {
	s, err := g.Fetch(ctx)
	if err != nil {
		return err
	}
	g.Apply(s)
	return nil
}

// Prepare flattens the editor state for a save.
func (g *Gateway) Prepare() Pending {
	return Pending{Request: g.ed.Payload(), Revision: g.ed.Revision()}
}

// Push sends p to the backend. It refuses to overlap with another Push.
func (g *Gateway) Push(ctx context.Context, p Pending) (resp api.SyncResponse, err error) {
	if !g.saving.CompareAndSwap(false, true) {
		return api.SyncResponse{}, ErrSaveInFlight
	}
	defer g.saving.Store(false)

	ctx, span := g.tracer.Start(ctx, "syncgw.Push", trace.WithAttributes(
		attribute.Int("maps", len(p.Request.Maps)),
		attribute.Int("excludes", len(p.Request.Excludes)),
	))
	defer func() { endSpan(span, err) }()

	resp, err = g.backend.Sync(ctx, p.Request)
	if err != nil {
		log.ErrorErr(log.CatSync, "Save failed", err)
		return resp, fmt.Errorf("saving: %w", err)
	}
	if resp.Status != api.StatusSynced {
		log.Error(log.CatSync, "Save not confirmed", "status", resp.Status)
		return resp, fmt.Errorf("status %q: %w", resp.Status, ErrSyncRejected)
	}
	log.Info(log.CatSync, "Saved", "maps", len(p.Request.Maps), "excludes", len(p.Request.Excludes))
	return resp, nil
}

// Commit records a confirmed save and announces it. Call it from the goroutine
// that owns the editor. It reports whether the editor is now clean.
func (g *Gateway) Commit(p Pending) bool {
	clean := g.ed.MarkSaved(p.Revision, p.Request)
	g.events.Publish(pubsub.KindSynced, Event{
		Maps:     len(p.Request.Maps),
		Excludes: len(p.Request.Excludes),
		Clean:    clean,
	})
	return clean
}

// Save is Prepare, Push and Commit. On failure the editor is left untouched.
func (g *Gateway) Save(ctx context.Context) error {
	p := g.Prepare()
	if _, err := g.Push(ctx, p); err != nil {
		return err
	}
	g.Commit(p)
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
