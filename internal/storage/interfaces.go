// Package storage defines the dual-backend lookup contract used by the
// resolution engine.
//
// Two interchangeable backends satisfy MappingLookup: a direct connection
// to the wiki's own database (sqldb) and a client for the remote importer
// lookup service (importerapi). Which one is used is a deployment-time
// configuration choice made once at startup, never per call.
package storage

import (
	"context"
	"errors"

	"github.com/graphport/wbclient/pkg/types"
)

var (
	// ErrNotFound indicates that no local entry matches the lookup.
	// Both backends must agree on no-match inputs: an unmapped remote id
	// yields ErrNotFound regardless of deployment mode.
	ErrNotFound = errors.New("entity not found")
)

// MappingLookup resolves identifiers from outside the local graph to
// canonical local ids.
type MappingLookup interface {
	// LookupRemoteMapping translates a remote-graph id to the local id
	// it has been imported as. Returns ErrNotFound when no mapping has
	// been recorded.
	LookupRemoteMapping(ctx context.Context, kind types.EntityKind, remoteID types.EntityID) (types.EntityID, error)

	// SearchByLabel returns the local ids of every entry of the given
	// kind whose English label equals label, in backend order. An empty
	// slice (not an error) means no entry shares the label.
	SearchByLabel(ctx context.Context, kind types.EntityKind, label string) ([]types.EntityID, error)
}
