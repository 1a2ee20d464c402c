package types

// Datatype is the declared value type of a property. The enumeration is
// closed: every claim's payload shape is fully determined by its
// property's datatype, and the datatype is immutable once the property
// has been created.
type Datatype string

const (
	DatatypeItem            Datatype = "wikibase-item"
	DatatypeCommonsMedia    Datatype = "commonsMedia"
	DatatypeExternalID      Datatype = "external-id"
	DatatypeForm            Datatype = "wikibase-form"
	DatatypeGeoShape        Datatype = "geo-shape"
	DatatypeGlobeCoordinate Datatype = "globe-coordinate"
	DatatypeLexeme          Datatype = "wikibase-lexeme"
	DatatypeMath            Datatype = "math"
	DatatypeMonolingualText Datatype = "monolingualtext"
	DatatypeMusicalNotation Datatype = "musical-notation"
	DatatypeProperty        Datatype = "wikibase-property"
	DatatypeQuantity        Datatype = "quantity"
	DatatypeSense           Datatype = "wikibase-sense"
	DatatypeString          Datatype = "string"
	DatatypeTabularData     Datatype = "tabular-data"
	DatatypeTime            Datatype = "time"
	DatatypeURL             Datatype = "url"
)

// Datatypes lists every member of the enumeration.
var Datatypes = []Datatype{
	DatatypeItem,
	DatatypeCommonsMedia,
	DatatypeExternalID,
	DatatypeForm,
	DatatypeGeoShape,
	DatatypeGlobeCoordinate,
	DatatypeLexeme,
	DatatypeMath,
	DatatypeMonolingualText,
	DatatypeMusicalNotation,
	DatatypeProperty,
	DatatypeQuantity,
	DatatypeSense,
	DatatypeString,
	DatatypeTabularData,
	DatatypeTime,
	DatatypeURL,
}

// Valid reports whether d is a member of the enumeration.
func (d Datatype) Valid() bool {
	for _, known := range Datatypes {
		if d == known {
			return true
		}
	}
	return false
}
