// Package dedupe folds duplicate entities into a single surviving
// entry. Merging two items in the graph is only half the job: each item
// also owns a discussion/profile page in a wiki namespace, and those
// pages have to be reconciled before the graph merge or the surviving
// item ends up pointing at a deleted page.
package dedupe

import (
	"context"
	"fmt"

	"github.com/graphport/wbclient/pkg/types"
)

// DefaultNamespace is the wiki namespace holding the per-entity pages
// reconciled during a merge.
const DefaultNamespace = "Person"

// GraphMerger is the graph-side capability the disambiguator needs.
// internal/wikibase provides the production implementation.
type GraphMerger interface {
	GetEntity(ctx context.Context, id types.EntityID) (*types.Entity, error)
	MergeEntities(ctx context.Context, source, target types.EntityID) (types.MergeResult, error)
}

// PageStore is the wiki-page side of a merge.
type PageStore interface {
	DeletePage(ctx context.Context, title string) error
	MovePage(ctx context.Context, from, to string) error
}

// MergeRecord reports the outcome of a duplicate merge: which entity
// was folded away and which survived.
type MergeRecord struct {
	Source   types.EntityID
	Target   types.EntityID
	Survivor types.EntityID
}

// Disambiguator merges duplicate entities and reconciles their wiki
// pages.
type Disambiguator struct {
	graph     GraphMerger
	pages     PageStore
	namespace string
}

// Option configures a Disambiguator.
type Option func(*Disambiguator)

// WithNamespace overrides the wiki namespace the per-entity pages live
// in.
func WithNamespace(ns string) Option {
	return func(d *Disambiguator) { d.namespace = ns }
}

// New creates a disambiguator over the graph and page backends.
func New(graph GraphMerger, pages PageStore, opts ...Option) *Disambiguator {
	d := &Disambiguator{graph: graph, pages: pages, namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MergeAuthors folds the source entity into the target. The direction
// is not taken on faith: both labels are fetched, and the entity with
// the shorter label survives as the target (shorter author labels are
// the curated canonical form, longer ones carry disambiguation
// suffixes). When the caller named the wrong survivor the pair is
// swapped before anything happens.
//
// Page reconciliation runs strictly before the graph merge, and the
// target's page is deleted strictly before the source's page is moved
// onto the freed title. A page failure aborts the whole merge with the
// graph untouched.
func (d *Disambiguator) MergeAuthors(ctx context.Context, source, target types.EntityID) (MergeRecord, error) {
	sourceEntity, err := d.graph.GetEntity(ctx, source)
	if err != nil {
		return MergeRecord{}, fmt.Errorf("fetching merge source %s: %w", source, err)
	}
	targetEntity, err := d.graph.GetEntity(ctx, target)
	if err != nil {
		return MergeRecord{}, fmt.Errorf("fetching merge target %s: %w", target, err)
	}

	if len(targetEntity.Label()) > len(sourceEntity.Label()) {
		source, target = target, source
	}

	if err := d.pages.DeletePage(ctx, d.pageTitle(target)); err != nil {
		return MergeRecord{}, err
	}
	if err := d.pages.MovePage(ctx, d.pageTitle(source), d.pageTitle(target)); err != nil {
		return MergeRecord{}, err
	}

	result, err := d.graph.MergeEntities(ctx, source, target)
	if err != nil {
		return MergeRecord{}, fmt.Errorf("merging %s into %s: %w", source, target, err)
	}

	return MergeRecord{Source: result.From, Target: result.To, Survivor: result.To}, nil
}

// pageTitle renders the namespaced page title for an entity. Pages are
// keyed by the bare entity number, not the full id.
func (d *Disambiguator) pageTitle(id types.EntityID) string {
	return fmt.Sprintf("%s:%d", d.namespace, id.Number)
}
