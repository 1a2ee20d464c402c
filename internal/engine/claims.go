package engine

import (
	"context"
	"fmt"

	"github.com/graphport/wbclient/pkg/types"
)

// PropertyNotFoundError reports that a claim's property reference could
// not be resolved to a local property.
type PropertyNotFoundError struct {
	Ref string
	Err error
}

func (e *PropertyNotFoundError) Error() string {
	return fmt.Sprintf("property %q not found: %v", e.Ref, e.Err)
}

func (e *PropertyNotFoundError) Unwrap() error { return e.Err }

// ClaimExtra carries the optional qualifiers and references attached to
// a built claim.
type ClaimExtra struct {
	Qualifiers []types.Snak
	References []types.Snak
}

// BuildClaim constructs the correctly-shaped claim for a property
// reference and a raw string value.
//
// The property reference is resolved with creation enabled: a
// never-seen property label becomes a brand-new property entry (so the
// builder has a side effect on the graph in exactly that case). The
// property's declared datatype then selects the payload shape; for
// wikibase-item claims a remote-prefixed value is itself resolved
// (creatable) to a local item id before the claim is built.
func (g *Engine) BuildClaim(ctx context.Context, propRef, value string, extra ClaimExtra) (types.Claim, error) {
	propID, err := g.Resolve(ctx, propRef, types.KindProperty, true)
	if err != nil {
		return types.Claim{}, &PropertyNotFoundError{Ref: propRef, Err: err}
	}

	prop, err := g.store.GetEntity(ctx, propID)
	if err != nil {
		return types.Claim{}, &PropertyNotFoundError{Ref: propRef, Err: err}
	}

	raw := value
	if prop.Datatype == types.DatatypeItem && types.HasRemotePrefix(value) {
		itemID, err := g.Resolve(ctx, value, types.KindItem, true)
		if err != nil {
			return types.Claim{}, fmt.Errorf("resolving claim value %q: %w", value, err)
		}
		raw = itemID.String()
	}

	payload, err := types.NewValue(prop.Datatype, raw)
	if err != nil {
		return types.Claim{}, fmt.Errorf("building claim for %s: %w", propID, err)
	}

	return types.Claim{
		Property:   propID,
		Datatype:   prop.Datatype,
		Value:      payload,
		Qualifiers: extra.Qualifiers,
		References: extra.References,
	}, nil
}
