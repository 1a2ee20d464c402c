package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/graphport/wbclient/internal/storage"
	"github.com/graphport/wbclient/pkg/types"
)

// InvalidReferenceError reports a reference string that is neither a
// local id, a remote-prefixed id, nor a usable label. It is not
// recoverable without caller correction.
type InvalidReferenceError struct {
	Ref string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid entity reference %q", e.Ref)
}

// Resolve maps a reference — a bare local id, a wd:/wdt:-prefixed
// remote id, or a free-text English label — to a canonical local id.
// First match wins, in this order:
//
//  1. Local-id shape: returned unchanged, no backend call.
//  2. Unprefixed text: treated as a label. With allowCreate a brand-new
//     entity of the requested kind is minted and persisted carrying the
//     label; without it the configured backend is searched and the
//     first match returned, or storage.ErrNotFound.
//  3. Remote-id shape: translated through the configured mapping
//     backend; storage.ErrNotFound when no mapping is recorded.
//
// Anything else fails with *InvalidReferenceError.
//
// The creation branch performs no prior label search: every label
// resolution that reaches creation mode mints a new entity, so two
// creation-mode resolutions of the same unseen label produce two
// entries. Callers that need dedup check Exists first.
func (g *Engine) Resolve(ctx context.Context, ref string, kind types.EntityKind, allowCreate bool) (types.EntityID, error) {
	if types.IsLocalRef(ref) {
		return types.ParseLocalID(ref)
	}

	if !types.HasRemotePrefix(ref) {
		if ref == "" {
			return types.EntityID{}, &InvalidReferenceError{Ref: ref}
		}
		if allowCreate {
			return g.mintLabeled(ctx, ref, kind)
		}
		ids, err := g.lookup.SearchByLabel(ctx, kind, ref)
		if err != nil {
			return types.EntityID{}, err
		}
		if len(ids) == 0 {
			return types.EntityID{}, storage.ErrNotFound
		}
		return ids[0], nil
	}

	if types.IsRemoteRef(ref) {
		remote, err := types.ParseRemoteID(ref)
		if err != nil {
			return types.EntityID{}, &InvalidReferenceError{Ref: ref}
		}
		// The id's letter decides which mapping endpoint to hit, same
		// as step 1: a P-shaped reference is a property lookup even
		// when the caller asked for items.
		return g.lookup.LookupRemoteMapping(ctx, remote.Kind, remote)
	}

	return types.EntityID{}, &InvalidReferenceError{Ref: ref}
}

// mintLabeled creates and persists a new entity carrying the label.
// When the store reports that an identical label+description entry
// already exists, the existing id is returned instead.
func (g *Engine) mintLabeled(ctx context.Context, label string, kind types.EntityKind) (types.EntityID, error) {
	e := types.NewEntity(kind)
	e.SetLabel(label)
	if kind == types.KindProperty {
		// The store requires a declared datatype at creation time.
		e.Datatype = types.DatatypeString
	}

	persisted, err := g.store.WriteEntity(ctx, e)
	if err != nil {
		var conflict duplicateConflict
		if errors.As(err, &conflict) {
			return conflict.ConflictingEntity(), nil
		}
		return types.EntityID{}, fmt.Errorf("creating entity for label %q: %w", label, err)
	}
	return persisted.ID, nil
}

var trailingQIDPattern = regexp.MustCompile(`/(Q\d+)$`)

// SearchByValue finds every item holding the given value for the given
// property. The property reference is resolved (without creation),
// string values are quoted, and the resulting structured query is run
// against the graph store. Items are recovered by matching the trailing
// Q-id of each result URI; an empty graph yields an empty slice, never
// an error.
func (g *Engine) SearchByValue(ctx context.Context, propRef, value string) ([]types.EntityID, error) {
	prop, err := g.Resolve(ctx, propRef, types.KindProperty, false)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT ?item WHERE {?item wdt:%s %q}`, prop, value)
	rows, err := g.store.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	var ids []types.EntityID
	for _, row := range rows {
		m := trailingQIDPattern.FindStringSubmatch(row)
		if m == nil {
			continue
		}
		id, err := types.ParseLocalID(m[1])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
