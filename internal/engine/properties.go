package engine

import (
	"context"
	"errors"

	"github.com/graphport/wbclient/pkg/types"
)

// Property is a property being read or built, bound to the engine that
// resolves references and persists it.
type Property struct {
	types.Entity
	g *Engine
}

// NewProperty returns a fresh unset property. Its datatype defaults to
// string until set explicitly.
func (g *Engine) NewProperty() *Property {
	p := &Property{Entity: *types.NewEntity(types.KindProperty), g: g}
	p.Datatype = types.DatatypeString
	return p
}

// GetProperty fetches a property by local id, fully hydrated.
func (g *Engine) GetProperty(ctx context.Context, id types.EntityID) (*Property, error) {
	e, err := g.store.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Property{Entity: *e, g: g}, nil
}

// AddClaim builds a claim for the property reference and value and adds
// it under the given merge action.
func (p *Property) AddClaim(ctx context.Context, propRef, value, action string, extra ClaimExtra) error {
	claim, err := p.g.BuildClaim(ctx, propRef, value, extra)
	if err != nil {
		return err
	}
	p.ApplyClaim(claim, types.ParseClaimAction(action))
	return nil
}

// DuplicateCandidates returns every existing property sharing this
// property's English label.
func (p *Property) DuplicateCandidates(ctx context.Context) ([]types.EntityID, error) {
	return p.g.lookup.SearchByLabel(ctx, types.KindProperty, p.Label())
}

// Exists returns the id of an existing property with the same English
// label, or the zero id when there is none. Unlike items, a label match
// alone decides: property labels are unique per deployment.
func (p *Property) Exists(ctx context.Context) (types.EntityID, error) {
	candidates, err := p.DuplicateCandidates(ctx)
	if err != nil {
		return types.EntityID{}, err
	}
	if len(candidates) == 0 {
		return types.EntityID{}, nil
	}
	return candidates[0], nil
}

// Write persists the property, absorbing duplicate rejections the same
// way Item.Write does.
func (p *Property) Write(ctx context.Context) (*Property, error) {
	persisted, err := p.g.store.WriteEntity(ctx, &p.Entity)
	if err != nil {
		var conflict duplicateConflict
		if errors.As(err, &conflict) {
			return p.g.GetProperty(ctx, conflict.ConflictingEntity())
		}
		return nil, err
	}
	return &Property{Entity: *persisted, g: p.g}, nil
}

// AddLinkerClaim attaches the external-id claim recording which
// remote-graph entry this property was imported from.
func (p *Property) AddLinkerClaim(remoteID types.EntityID) error {
	claim, err := p.g.linkerClaim(remoteID)
	if err != nil {
		return err
	}
	p.ApplyClaim(claim, types.ActionAppendOrReplace)
	return nil
}
