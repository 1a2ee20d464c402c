package types

import "errors"

// ErrUnknownDatatype is returned when a claim payload is requested for a
// datatype outside the closed enumeration.
var ErrUnknownDatatype = errors.New("unknown property datatype")

// Value is a claim payload. The set of implementations is closed (the
// unexported encode method prevents implementations outside this
// package); the concrete shape is selected by NewValue from the
// property's datatype.
type Value interface {
	// Key is the JSON field the payload is serialized under.
	// monolingualtext payloads live under "text", time payloads under
	// "time", everything else under "value".
	Key() string

	// String is the scalar rendering of the payload.
	String() string

	encode(m map[string]any)
}

// LiteralValue is the pass-through payload used by every datatype that
// carries a plain string (string, external-id, url, quantity and the
// rest of the literal family).
type LiteralValue string

func (v LiteralValue) Key() string { return "value" }
func (v LiteralValue) String() string { return string(v) }
func (v LiteralValue) encode(m map[string]any) { m["value"] = string(v) }

// EntityValue is the payload of wikibase-item claims: a local entity
// id. Remote ids are resolved before a claim is built, so an
// EntityValue never carries remote scope.
type EntityValue struct {
	ID EntityID
}

func (v EntityValue) Key() string { return "value" }
func (v EntityValue) String() string { return v.ID.String() }
func (v EntityValue) encode(m map[string]any) { m["value"] = v.ID.String() }

// MonolingualTextValue is the payload of monolingualtext claims.
type MonolingualTextValue struct {
	Text     string
	Language string
}

func (v MonolingualTextValue) Key() string { return "text" }
func (v MonolingualTextValue) String() string { return v.Text }
func (v MonolingualTextValue) encode(m map[string]any) {
	m["text"] = v.Text
	m["language"] = v.Language
}

// TimeValue is the payload of time claims.
type TimeValue string

func (v TimeValue) Key() string { return "time" }
func (v TimeValue) String() string { return string(v) }
func (v TimeValue) encode(m map[string]any) { m["time"] = string(v) }

// NewValue constructs the payload for a raw string value under the given
// datatype. The switch enumerates every member of the datatype
// enumeration; anything else is ErrUnknownDatatype.
//
// For wikibase-item the raw value must already be a local id; callers
// resolve remote references before building. Every other datatype,
// wikibase-property included, passes the raw string through.
func NewValue(datatype Datatype, raw string) (Value, error) {
	switch datatype {
	case DatatypeItem:
		id, err := ParseLocalID(raw)
		if err != nil {
			return nil, err
		}
		return EntityValue{ID: id}, nil
	case DatatypeMonolingualText:
		return MonolingualTextValue{Text: raw, Language: DefaultLanguage}, nil
	case DatatypeTime:
		return TimeValue(raw), nil
	case DatatypeCommonsMedia, DatatypeExternalID, DatatypeForm,
		DatatypeGeoShape, DatatypeGlobeCoordinate, DatatypeLexeme,
		DatatypeMath, DatatypeMusicalNotation, DatatypeProperty,
		DatatypeQuantity, DatatypeSense, DatatypeString,
		DatatypeTabularData, DatatypeURL:
		return LiteralValue(raw), nil
	}
	return nil, ErrUnknownDatatype
}
