package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphport/wbclient/pkg/types"
)

// instanceOfLabel is the English label of the classification property.
// Its local id is deployment-specific, so it is resolved by label at
// use, never hard-coded.
const instanceOfLabel = "instance of"

// Item is an item being read or built, bound to the engine that
// resolves references and persists it.
type Item struct {
	types.Entity
	g *Engine
}

// NewItem returns a fresh unset item.
func (g *Engine) NewItem() *Item {
	return &Item{Entity: *types.NewEntity(types.KindItem), g: g}
}

// GetItem fetches an item by local id, fully hydrated.
func (g *Engine) GetItem(ctx context.Context, id types.EntityID) (*Item, error) {
	e, err := g.store.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Item{Entity: *e, g: g}, nil
}

// AddClaim builds a claim for the property reference and value and adds
// it to the item under the given merge action ("append_or_replace" or
// "replace_all"; anything else falls back to append-or-replace).
func (it *Item) AddClaim(ctx context.Context, propRef, value, action string, extra ClaimExtra) error {
	claim, err := it.g.BuildClaim(ctx, propRef, value, extra)
	if err != nil {
		return err
	}
	it.ApplyClaim(claim, types.ParseClaimAction(action))
	return nil
}

// DuplicateCandidates returns every existing item sharing this item's
// English label, via the configured lookup backend.
func (it *Item) DuplicateCandidates(ctx context.Context) ([]types.EntityID, error) {
	return it.g.lookup.SearchByLabel(ctx, types.KindItem, it.Label())
}

// Exists returns the id of an existing item carrying the same English
// label and description, or the zero id when there is none. A label
// match alone is not sufficient — many items legitimately share a label
// — so each candidate is fetched and its description compared.
func (it *Item) Exists(ctx context.Context) (types.EntityID, error) {
	candidates, err := it.DuplicateCandidates(ctx)
	if err != nil {
		return types.EntityID{}, err
	}

	for _, id := range candidates {
		candidate, err := it.g.store.GetEntity(ctx, id)
		if err != nil {
			return types.EntityID{}, fmt.Errorf("fetching duplicate candidate %s: %w", id, err)
		}
		if candidate.Description() == it.Description() {
			return id, nil
		}
	}
	return types.EntityID{}, nil
}

// Write persists the item. When the store rejects the write because an
// item with the same label and description already exists, the existing
// item is fetched and returned instead — Write is idempotent for exact
// label+description collisions.
func (it *Item) Write(ctx context.Context) (*Item, error) {
	persisted, err := it.g.store.WriteEntity(ctx, &it.Entity)
	if err != nil {
		var conflict duplicateConflict
		if errors.As(err, &conflict) {
			return it.g.GetItem(ctx, conflict.ConflictingEntity())
		}
		return nil, err
	}
	return &Item{Entity: *persisted, g: it.g}, nil
}

// IsInstanceOf reports whether any item sharing this item's label is
// classified as an instance of the referenced class.
func (it *Item) IsInstanceOf(ctx context.Context, classRef string) (bool, error) {
	matches, err := it.instancesOf(ctx, classRef, true)
	if err != nil {
		return false, err
	}
	return len(matches) > 0, nil
}

// InstancesSharingLabel returns every item that shares this item's
// label and is an instance of the referenced class.
func (it *Item) InstancesSharingLabel(ctx context.Context, classRef string) ([]types.EntityID, error) {
	return it.instancesOf(ctx, classRef, false)
}

// instancesOf enumerates label-sharing items classified under classRef.
// When firstOnly is set the scan stops at the first match.
func (it *Item) instancesOf(ctx context.Context, classRef string, firstOnly bool) ([]types.EntityID, error) {
	classID, err := it.g.Resolve(ctx, classRef, types.KindItem, false)
	if err != nil {
		return nil, fmt.Errorf("resolving class %q: %w", classRef, err)
	}
	instanceOf, err := it.g.Resolve(ctx, instanceOfLabel, types.KindProperty, false)
	if err != nil {
		return nil, fmt.Errorf("resolving %q property: %w", instanceOfLabel, err)
	}

	candidates, err := it.DuplicateCandidates(ctx)
	if err != nil {
		return nil, err
	}

	var matches []types.EntityID
	for _, id := range candidates {
		candidate, err := it.g.store.GetEntity(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetching candidate %s: %w", id, err)
		}
		for _, claim := range candidate.ClaimsFor(instanceOf) {
			if claim.Value != nil && claim.Value.String() == classID.String() {
				matches = append(matches, id)
				break
			}
		}
		if firstOnly && len(matches) > 0 {
			return matches, nil
		}
	}
	return matches, nil
}

// InstanceWithProperty returns the first label-sharing instance of the
// referenced class that also holds the given value for the given
// property, or the zero id when there is none.
func (it *Item) InstanceWithProperty(ctx context.Context, classRef, propRef, value string) (types.EntityID, error) {
	matches, err := it.InstancesSharingLabel(ctx, classRef)
	if err != nil {
		return types.EntityID{}, err
	}
	if len(matches) == 0 {
		return types.EntityID{}, nil
	}

	propID, err := it.g.Resolve(ctx, propRef, types.KindProperty, false)
	if err != nil {
		return types.EntityID{}, fmt.Errorf("resolving property %q: %w", propRef, err)
	}

	for _, id := range matches {
		candidate, err := it.g.store.GetEntity(ctx, id)
		if err != nil {
			return types.EntityID{}, fmt.Errorf("fetching candidate %s: %w", id, err)
		}
		for _, v := range literalValues(candidate.ClaimsFor(propID)) {
			if v == value {
				return id, nil
			}
		}
	}
	return types.EntityID{}, nil
}

// ValuesOf returns the literal values this item holds for the given
// property, reading from the item's canonical stored form (its own id
// when persisted, otherwise its label+description match). A nil slice
// comes back when the item has no stored counterpart.
func (it *Item) ValuesOf(ctx context.Context, propRef string) ([]string, error) {
	id := it.ID
	if id.IsZero() {
		var err error
		id, err = it.Exists(ctx)
		if err != nil {
			return nil, err
		}
		if id.IsZero() {
			return nil, nil
		}
	}

	stored, err := it.g.store.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	propID, err := it.g.Resolve(ctx, propRef, types.KindProperty, false)
	if err != nil {
		return nil, fmt.Errorf("resolving property %q: %w", propRef, err)
	}
	return literalValues(stored.ClaimsFor(propID)), nil
}

// AddLinkerClaim attaches the external-id claim recording which
// remote-graph entry this item was imported from.
func (it *Item) AddLinkerClaim(remoteID types.EntityID) error {
	claim, err := it.g.linkerClaim(remoteID)
	if err != nil {
		return err
	}
	it.ApplyClaim(claim, types.ActionAppendOrReplace)
	return nil
}

// linkerClaim builds the provenance claim for a remote id.
func (g *Engine) linkerClaim(remoteID types.EntityID) (types.Claim, error) {
	if g.linkerProperty.IsZero() {
		return types.Claim{}, errors.New("no linker property configured")
	}
	return types.Claim{
		Property: g.linkerProperty,
		Datatype: types.DatatypeExternalID,
		Value:    types.LiteralValue(remoteID.AsLocal().String()),
	}, nil
}

// literalValues extracts the scalar values of claims by datatype:
// string and external-id claims yield their payload, wikibase-item
// claims the item id, time claims the time string. Claims of any other
// datatype carry no scalar and are skipped.
func literalValues(claims []types.Claim) []string {
	var values []string
	for _, c := range claims {
		if c.Value == nil {
			continue
		}
		switch c.Datatype {
		case types.DatatypeString, types.DatatypeExternalID,
			types.DatatypeItem, types.DatatypeTime:
			values = append(values, c.Value.String())
		}
	}
	return values
}
