// Package types defines the shared data model for the wbclient system:
// tagged entity identifiers, the closed datatype enumeration, claims and
// their payload shapes, and the in-memory Entity representation.
package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// EntityKind distinguishes items (real-world things) from properties
// (relation/attribute types with a declared datatype).
type EntityKind string

const (
	KindItem     EntityKind = "item"
	KindProperty EntityKind = "property"
)

// letter returns the identifier prefix letter for the kind.
func (k EntityKind) letter() string {
	if k == KindProperty {
		return "P"
	}
	return "Q"
}

// Scope tags an identifier as belonging to the local graph or to the
// external reference graph.
type Scope int

const (
	// ScopeLocal identifies an entry in this system's own graph.
	ScopeLocal Scope = iota

	// ScopeRemote identifies an entry in the external reference graph.
	// Remote ids are only ever inputs to resolution; they must be
	// translated to local ids before any claim references them.
	ScopeRemote
)

// EntityID is a tagged identifier for an item or property.
// The zero value is "unset" and marks an entity that has not been
// persisted yet.
type EntityID struct {
	Scope  Scope
	Kind   EntityKind
	Number int
}

var (
	localIDPattern  = regexp.MustCompile(`^([PQ])(\d+)$`)
	remoteIDPattern = regexp.MustCompile(`^wdt?:([PQ])(\d+)$`)
)

// IsZero reports whether the id is unset.
func (id EntityID) IsZero() bool {
	return id.Kind == "" && id.Number == 0
}

// String renders the canonical string form: Q<n>/P<n> for local ids,
// wd:Q<n> / wdt:P<n> for remote ids.
func (id EntityID) String() string {
	if id.IsZero() {
		return ""
	}
	bare := id.Kind.letter() + strconv.Itoa(id.Number)
	if id.Scope == ScopeRemote {
		if id.Kind == KindProperty {
			return "wdt:" + bare
		}
		return "wd:" + bare
	}
	return bare
}

// AsLocal returns the same identifier tagged with local scope.
func (id EntityID) AsLocal() EntityID {
	id.Scope = ScopeLocal
	return id
}

// kindForLetter maps the id prefix letter to the entity kind.
func kindForLetter(letter string) EntityKind {
	if letter == "P" {
		return KindProperty
	}
	return KindItem
}

// ParseLocalID parses a bare local identifier (Q<n> or P<n>).
func ParseLocalID(s string) (EntityID, error) {
	m := localIDPattern.FindStringSubmatch(s)
	if m == nil {
		return EntityID{}, fmt.Errorf("malformed local id %q", s)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return EntityID{}, fmt.Errorf("malformed local id %q: %w", s, err)
	}
	return EntityID{Scope: ScopeLocal, Kind: kindForLetter(m[1]), Number: n}, nil
}

// ParseRemoteID parses a remote-prefixed identifier (wd:Q<n> or wdt:P<n>).
// Both prefixes are accepted for both kinds; the kind comes from the
// letter, not the prefix.
func ParseRemoteID(s string) (EntityID, error) {
	m := remoteIDPattern.FindStringSubmatch(s)
	if m == nil {
		return EntityID{}, fmt.Errorf("malformed remote id %q", s)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return EntityID{}, fmt.Errorf("malformed remote id %q: %w", s, err)
	}
	return EntityID{Scope: ScopeRemote, Kind: kindForLetter(m[1]), Number: n}, nil
}

// IsLocalRef reports whether s has the shape of a bare local id.
func IsLocalRef(s string) bool {
	return localIDPattern.MatchString(s)
}

// IsRemoteRef reports whether s has the shape of a remote-prefixed id.
func IsRemoteRef(s string) bool {
	return remoteIDPattern.MatchString(s)
}

// HasRemotePrefix reports whether s starts with one of the remote-graph
// prefixes, regardless of whether the rest of the string is well formed.
func HasRemotePrefix(s string) bool {
	return strings.HasPrefix(s, "wd:") || strings.HasPrefix(s, "wdt:")
}
