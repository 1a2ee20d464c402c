// Package engine is the identifier-resolution and claim-construction
// core. It turns loosely-specified references (labels, remote-graph ids,
// local ids) into canonical local ids, builds correctly-typed claims for
// arbitrary properties, and carries the duplicate-detection logic for
// items and properties.
//
// The engine performs one synchronous round trip at a time on behalf of
// a single calling workflow; it holds no queue, no retry layer and no
// locks. Concurrent callers racing Exists/Write on the same label are a
// documented duplicate-creation risk, not a solved one.
package engine

import (
	"context"

	"github.com/graphport/wbclient/internal/storage"
	"github.com/graphport/wbclient/pkg/types"
)

// GraphStore is the capability surface the engine consumes from the
// graph-editing layer. internal/wikibase provides the production
// implementation; tests substitute fakes.
type GraphStore interface {
	// GetEntity fetches a fully hydrated entity by local id.
	// Returns storage.ErrNotFound for unknown ids.
	GetEntity(ctx context.Context, id types.EntityID) (*types.Entity, error)

	// WriteEntity persists the entity (create when unset) and returns
	// the persisted form with its assigned id. A label+description
	// conflict is reported as an error exposing ConflictingEntity().
	WriteEntity(ctx context.Context, e *types.Entity) (*types.Entity, error)

	// Query runs a structured query and returns the bound result values
	// in order.
	Query(ctx context.Context, query string) ([]string, error)
}

// Engine binds the graph store to the configured id-mapping backend.
type Engine struct {
	store  GraphStore
	lookup storage.MappingLookup

	// linkerProperty is the external-id property that records which
	// remote-graph entry a local entity was imported from. Zero when
	// the deployment has none.
	linkerProperty types.EntityID
}

// Option configures an Engine.
type Option func(*Engine)

// WithLinkerProperty sets the property used by AddLinkerClaim to point
// local entities at their remote-graph counterpart.
func WithLinkerProperty(id types.EntityID) Option {
	return func(g *Engine) { g.linkerProperty = id }
}

// New creates an engine over the given store and lookup backend. Which
// MappingLookup implementation arrives here was decided once at startup
// from configuration; the engine never re-selects it.
func New(store GraphStore, lookup storage.MappingLookup, opts ...Option) *Engine {
	g := &Engine{store: store, lookup: lookup}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// duplicateConflict matches the error a GraphStore reports when a write
// collides with an existing label+description pair.
type duplicateConflict interface {
	error
	ConflictingEntity() types.EntityID
}
