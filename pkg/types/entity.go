package types

// DefaultLanguage is the language code used for labels, descriptions and
// monolingual text when no language is given explicitly.
const DefaultLanguage = "en"

// Entity is the mutable in-memory representation of an item or property.
// A freshly constructed entity has a zero ID ("unset"); persisting it
// assigns a local id. Each Entity instance is owned by a single calling
// workflow; components exchange ids, not shared Entity references, once
// an entity has been persisted.
type Entity struct {
	ID           EntityID
	Kind         EntityKind
	Datatype     Datatype // set for properties only; immutable once created
	Labels       map[string]string
	Descriptions map[string]string
	Claims       []Claim
}

// NewEntity returns an unset entity of the given kind.
func NewEntity(kind EntityKind) *Entity {
	return &Entity{
		Kind:         kind,
		Labels:       map[string]string{},
		Descriptions: map[string]string{},
	}
}

// Label returns the label for the default language.
func (e *Entity) Label() string {
	return e.Labels[DefaultLanguage]
}

// SetLabel sets the label for the default language.
func (e *Entity) SetLabel(value string) {
	if e.Labels == nil {
		e.Labels = map[string]string{}
	}
	e.Labels[DefaultLanguage] = value
}

// Description returns the description for the default language.
func (e *Entity) Description() string {
	return e.Descriptions[DefaultLanguage]
}

// SetDescription sets the description for the default language.
func (e *Entity) SetDescription(value string) {
	if e.Descriptions == nil {
		e.Descriptions = map[string]string{}
	}
	e.Descriptions[DefaultLanguage] = value
}

// ClaimsFor returns every claim held for the given property, in order.
func (e *Entity) ClaimsFor(property EntityID) []Claim {
	var out []Claim
	for _, c := range e.Claims {
		if c.Property == property {
			out = append(out, c)
		}
	}
	return out
}

// ApplyClaim adds a claim to the entity under the given merge policy.
func (e *Entity) ApplyClaim(claim Claim, action ClaimAction) {
	switch action {
	case ActionReplaceAll:
		kept := e.Claims[:0]
		for _, c := range e.Claims {
			if c.Property != claim.Property {
				kept = append(kept, c)
			}
		}
		e.Claims = append(kept, claim)
	default:
		for i, c := range e.Claims {
			if c.Property == claim.Property {
				e.Claims[i] = claim
				return
			}
		}
		e.Claims = append(e.Claims, claim)
	}
}

// MergeResult reports which entity was folded into which by a graph
// merge. It is returned to the caller for logging and never persisted.
type MergeResult struct {
	From EntityID
	To   EntityID
}
