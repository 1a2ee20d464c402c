package types

import "encoding/json"

// ClaimAction selects the merge policy applied when a claim is added to
// an entity that may already hold claims for the same property.
type ClaimAction string

const (
	// ActionAppendOrReplace replaces the existing claim for the property
	// if one exists, otherwise appends. This is the default policy.
	ActionAppendOrReplace ClaimAction = "append_or_replace"

	// ActionReplaceAll drops every existing claim for the property
	// before appending the new one.
	ActionReplaceAll ClaimAction = "replace_all"
)

// ParseClaimAction maps an action string to a ClaimAction. Unrecognized
// strings fall back to ActionAppendOrReplace.
func ParseClaimAction(s string) ClaimAction {
	if ClaimAction(s) == ActionReplaceAll {
		return ActionReplaceAll
	}
	return ActionAppendOrReplace
}

// Snak is a property/value pair used for claim qualifiers and references.
type Snak struct {
	Property EntityID `json:"property"`
	Value    string   `json:"value"`
}

// Claim is a statement attaching a property and a datatype-shaped value
// to an entity.
type Claim struct {
	Property   EntityID
	Datatype   Datatype
	Value      Value
	Qualifiers []Snak
	References []Snak
}

// MarshalJSON serializes the claim with the payload under the field
// dictated by the datatype (text for monolingualtext, time for time,
// value otherwise).
func (c Claim) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"property": c.Property.String(),
		"datatype": string(c.Datatype),
	}
	if c.Value != nil {
		c.Value.encode(m)
	}
	if len(c.Qualifiers) > 0 {
		m["qualifiers"] = c.Qualifiers
	}
	if len(c.References) > 0 {
		m["references"] = c.References
	}
	return json.Marshal(m)
}
