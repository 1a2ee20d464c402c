package types_test

import (
	"testing"

	"github.com/graphport/wbclient/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func literalClaim(t *testing.T, prop, raw string) types.Claim {
	t.Helper()
	v, err := types.NewValue(types.DatatypeString, raw)
	require.NoError(t, err)
	return types.Claim{
		Property: mustLocal(t, prop),
		Datatype: types.DatatypeString,
		Value:    v,
	}
}

func TestNewEntity_IsUnset(t *testing.T) {
	e := types.NewEntity(types.KindItem)
	assert.True(t, e.ID.IsZero())
	assert.Equal(t, types.KindItem, e.Kind)
}

func TestEntityLabelDescription(t *testing.T) {
	e := types.NewEntity(types.KindItem)
	assert.Equal(t, "", e.Label())

	e.SetLabel("Ada Lovelace")
	e.SetDescription("mathematician")
	assert.Equal(t, "Ada Lovelace", e.Label())
	assert.Equal(t, "mathematician", e.Description())
}

func TestApplyClaim_AppendOrReplace(t *testing.T) {
	e := types.NewEntity(types.KindItem)
	e.ApplyClaim(literalClaim(t, "P1", "first"), types.ActionAppendOrReplace)
	e.ApplyClaim(literalClaim(t, "P2", "other"), types.ActionAppendOrReplace)
	require.Len(t, e.Claims, 2)

	// A second claim for P1 replaces the first in place.
	e.ApplyClaim(literalClaim(t, "P1", "second"), types.ActionAppendOrReplace)
	require.Len(t, e.Claims, 2)
	assert.Equal(t, "second", e.Claims[0].Value.String())
	assert.Equal(t, "other", e.Claims[1].Value.String())
}

// TestApplyClaim_ReplaceAll verifies that replace_all drops every claim
// for the property and leaves unrelated claims untouched.
func TestApplyClaim_ReplaceAll(t *testing.T) {
	e := types.NewEntity(types.KindItem)
	p := mustLocal(t, "P7")

	e.Claims = []types.Claim{
		literalClaim(t, "P7", "a"),
		literalClaim(t, "P9", "keep"),
		literalClaim(t, "P7", "b"),
	}

	e.ApplyClaim(literalClaim(t, "P7", "c"), types.ActionReplaceAll)

	require.Len(t, e.Claims, 2)
	forP := e.ClaimsFor(p)
	require.Len(t, forP, 1)
	assert.Equal(t, "c", forP[0].Value.String())

	forQ := e.ClaimsFor(mustLocal(t, "P9"))
	require.Len(t, forQ, 1)
	assert.Equal(t, "keep", forQ[0].Value.String())
}

func TestClaimsFor_Empty(t *testing.T) {
	e := types.NewEntity(types.KindItem)
	assert.Empty(t, e.ClaimsFor(mustLocal(t, "P1")))
}
