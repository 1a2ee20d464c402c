package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphport/wbclient/internal/engine"
	"github.com/graphport/wbclient/pkg/types"
)

// seededEngine builds an engine over a store pre-loaded with an
// "instance of" property (P1, item datatype) registered in the lookup.
func seededEngine(t *testing.T, opts ...engine.Option) (*engine.Engine, *fakeStore, *fakeLookup) {
	t.Helper()
	store := newFakeStore()
	instanceOf := labeledEntity(types.KindProperty, "instance of", "")
	instanceOf.Datatype = types.DatatypeItem
	store.seed(pid(1), instanceOf)
	store.nextProp = 2

	lookup := newFakeLookup()
	lookup.labels[labelKey(types.KindProperty, "instance of")] = []types.EntityID{pid(1)}

	return engine.New(store, lookup, opts...), store, lookup
}

// seedInstance stores an item under id carrying the label, description
// and an instance-of claim pointing at class.
func seedInstance(store *fakeStore, id types.EntityID, label, description string, class types.EntityID) *types.Entity {
	e := labeledEntity(types.KindItem, label, description)
	e.ApplyClaim(types.Claim{
		Property: pid(1),
		Datatype: types.DatatypeItem,
		Value:    types.EntityValue{ID: class},
	}, types.ActionAppendOrReplace)
	store.seed(id, e)
	return e
}

func TestItemExists_DescriptionDisambiguates(t *testing.T) {
	g, store, lookup := seededEngine(t)
	store.seed(qid(10), labeledEntity(types.KindItem, "Mercury", "planet"))
	store.seed(qid(11), labeledEntity(types.KindItem, "Mercury", "chemical element"))
	lookup.labels[labelKey(types.KindItem, "Mercury")] = []types.EntityID{qid(10), qid(11)}

	it := g.NewItem()
	it.SetLabel("Mercury")
	it.SetDescription("chemical element")

	id, err := it.Exists(context.Background())
	require.NoError(t, err)
	assert.Equal(t, qid(11), id)
}

func TestItemExists_LabelMatchAloneIsNotEnough(t *testing.T) {
	g, store, lookup := seededEngine(t)
	store.seed(qid(10), labeledEntity(types.KindItem, "Mercury", "planet"))
	lookup.labels[labelKey(types.KindItem, "Mercury")] = []types.EntityID{qid(10)}

	it := g.NewItem()
	it.SetLabel("Mercury")
	it.SetDescription("Roman god")

	id, err := it.Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, id.IsZero())
}

func TestItemExists_NoCandidates(t *testing.T) {
	g, _, _ := seededEngine(t)

	it := g.NewItem()
	it.SetLabel("never seen")

	id, err := it.Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, id.IsZero())
}

func TestItemWrite_AssignsID(t *testing.T) {
	g, _, _ := seededEngine(t)

	it := g.NewItem()
	it.SetLabel("new thing")

	written, err := it.Write(context.Background())
	require.NoError(t, err)
	assert.False(t, written.ID.IsZero())
	assert.Equal(t, "new thing", written.Label())
}

// Writing the same label+description twice yields the same id: the
// second write's duplicate rejection is absorbed by re-fetching.
func TestItemWrite_IdempotentOnDuplicate(t *testing.T) {
	g, _, _ := seededEngine(t)

	first := g.NewItem()
	first.SetLabel("dup")
	first.SetDescription("same entry")
	written, err := first.Write(context.Background())
	require.NoError(t, err)

	second := g.NewItem()
	second.SetLabel("dup")
	second.SetDescription("same entry")
	again, err := second.Write(context.Background())
	require.NoError(t, err)

	assert.Equal(t, written.ID, again.ID)
}

func TestItemAddClaim_ReplaceAllAction(t *testing.T) {
	g, store, _ := seededEngine(t)
	title := labeledEntity(types.KindProperty, "title", "")
	title.Datatype = types.DatatypeString
	store.seed(pid(2), title)

	it := g.NewItem()
	require.NoError(t, it.AddClaim(context.Background(), "P2", "old", "append_or_replace", engine.ClaimExtra{}))
	require.NoError(t, it.AddClaim(context.Background(), "P2", "new", "replace_all", engine.ClaimExtra{}))

	claims := it.ClaimsFor(pid(2))
	require.Len(t, claims, 1)
	assert.Equal(t, "new", claims[0].Value.String())
}

func TestItemIsInstanceOf(t *testing.T) {
	g, store, lookup := seededEngine(t)
	seedInstance(store, qid(20), "John Smith", "", qid(5))
	store.seed(qid(21), labeledEntity(types.KindItem, "John Smith", "a village"))
	lookup.labels[labelKey(types.KindItem, "John Smith")] = []types.EntityID{qid(21), qid(20)}
	store.seed(qid(5), labeledEntity(types.KindItem, "human", ""))

	it := g.NewItem()
	it.SetLabel("John Smith")

	ok, err := it.IsInstanceOf(context.Background(), "Q5")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestItemIsInstanceOf_NoMatch(t *testing.T) {
	g, store, lookup := seededEngine(t)
	store.seed(qid(21), labeledEntity(types.KindItem, "John Smith", "a village"))
	lookup.labels[labelKey(types.KindItem, "John Smith")] = []types.EntityID{qid(21)}

	it := g.NewItem()
	it.SetLabel("John Smith")

	ok, err := it.IsInstanceOf(context.Background(), "Q5")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestItemInstancesSharingLabel(t *testing.T) {
	g, store, lookup := seededEngine(t)
	seedInstance(store, qid(20), "John Smith", "explorer", qid(5))
	seedInstance(store, qid(22), "John Smith", "mathematician", qid(5))
	seedInstance(store, qid(23), "John Smith", "a ship", qid(6))
	lookup.labels[labelKey(types.KindItem, "John Smith")] = []types.EntityID{qid(20), qid(22), qid(23)}

	it := g.NewItem()
	it.SetLabel("John Smith")

	ids, err := it.InstancesSharingLabel(context.Background(), "Q5")
	require.NoError(t, err)
	assert.Equal(t, []types.EntityID{qid(20), qid(22)}, ids)
}

func TestItemInstanceWithProperty(t *testing.T) {
	g, store, lookup := seededEngine(t)
	orcid := labeledEntity(types.KindProperty, "ORCID iD", "")
	orcid.Datatype = types.DatatypeExternalID
	store.seed(pid(2), orcid)

	first := seedInstance(store, qid(20), "John Smith", "explorer", qid(5))
	first.ApplyClaim(types.Claim{
		Property: pid(2),
		Datatype: types.DatatypeExternalID,
		Value:    types.LiteralValue("0000-0001-0000-0001"),
	}, types.ActionAppendOrReplace)
	second := seedInstance(store, qid(22), "John Smith", "mathematician", qid(5))
	second.ApplyClaim(types.Claim{
		Property: pid(2),
		Datatype: types.DatatypeExternalID,
		Value:    types.LiteralValue("0000-0002-0000-0002"),
	}, types.ActionAppendOrReplace)
	lookup.labels[labelKey(types.KindItem, "John Smith")] = []types.EntityID{qid(20), qid(22)}

	it := g.NewItem()
	it.SetLabel("John Smith")

	id, err := it.InstanceWithProperty(context.Background(), "Q5", "P2", "0000-0002-0000-0002")
	require.NoError(t, err)
	assert.Equal(t, qid(22), id)

	id, err = it.InstanceWithProperty(context.Background(), "Q5", "P2", "0000-0009-9999-0000")
	require.NoError(t, err)
	assert.True(t, id.IsZero())
}

func TestItemValuesOf(t *testing.T) {
	g, store, lookup := seededEngine(t)
	orcid := labeledEntity(types.KindProperty, "ORCID iD", "")
	orcid.Datatype = types.DatatypeExternalID
	store.seed(pid(2), orcid)

	stored := labeledEntity(types.KindItem, "Jane Doe", "physicist")
	stored.ApplyClaim(types.Claim{
		Property: pid(2),
		Datatype: types.DatatypeExternalID,
		Value:    types.LiteralValue("0000-0003-0000-0003"),
	}, types.ActionAppendOrReplace)
	store.seed(qid(30), stored)
	lookup.labels[labelKey(types.KindItem, "Jane Doe")] = []types.EntityID{qid(30)}

	// Unpersisted item locates its stored counterpart via Exists.
	it := g.NewItem()
	it.SetLabel("Jane Doe")
	it.SetDescription("physicist")

	values, err := it.ValuesOf(context.Background(), "P2")
	require.NoError(t, err)
	assert.Equal(t, []string{"0000-0003-0000-0003"}, values)
}

func TestItemValuesOf_NoStoredCounterpart(t *testing.T) {
	g, _, _ := seededEngine(t)

	it := g.NewItem()
	it.SetLabel("nobody")

	values, err := it.ValuesOf(context.Background(), "P2")
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestItemValuesOf_SkipsNonScalarDatatypes(t *testing.T) {
	g, store, _ := seededEngine(t)
	coords := labeledEntity(types.KindProperty, "coordinate location", "")
	coords.Datatype = types.DatatypeGlobeCoordinate
	store.seed(pid(2), coords)

	stored := labeledEntity(types.KindItem, "somewhere", "")
	stored.ApplyClaim(types.Claim{
		Property: pid(2),
		Datatype: types.DatatypeGlobeCoordinate,
		Value:    types.LiteralValue("51.5,-0.1"),
	}, types.ActionAppendOrReplace)
	store.seed(qid(40), stored)

	it, err := g.GetItem(context.Background(), qid(40))
	require.NoError(t, err)

	values, err := it.ValuesOf(context.Background(), "P2")
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestItemAddLinkerClaim(t *testing.T) {
	g, _, _ := seededEngine(t, engine.WithLinkerProperty(pid(7)))

	it := g.NewItem()
	it.SetLabel("imported thing")
	remote := types.EntityID{Scope: types.ScopeRemote, Kind: types.KindItem, Number: 5}
	require.NoError(t, it.AddLinkerClaim(remote))

	claims := it.ClaimsFor(pid(7))
	require.Len(t, claims, 1)
	assert.Equal(t, types.DatatypeExternalID, claims[0].Datatype)
	assert.Equal(t, "Q5", claims[0].Value.String())
}

func TestItemAddLinkerClaim_Unconfigured(t *testing.T) {
	g, _, _ := seededEngine(t)

	it := g.NewItem()
	err := it.AddLinkerClaim(types.EntityID{Kind: types.KindItem, Number: 5})
	assert.Error(t, err)
}

func TestPropertyExists_FirstLabelMatchDecides(t *testing.T) {
	g, store, lookup := seededEngine(t)
	store.seed(pid(9), labeledEntity(types.KindProperty, "DOI", "digital object identifier"))
	lookup.labels[labelKey(types.KindProperty, "DOI")] = []types.EntityID{pid(9)}

	p := g.NewProperty()
	p.SetLabel("DOI")
	// Descriptions differ; for properties that does not matter.
	p.SetDescription("something else entirely")

	id, err := p.Exists(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pid(9), id)
}

func TestPropertyExists_NoMatch(t *testing.T) {
	g, _, _ := seededEngine(t)

	p := g.NewProperty()
	p.SetLabel("never seen")

	id, err := p.Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, id.IsZero())
}

func TestPropertyWrite_IdempotentOnDuplicate(t *testing.T) {
	g, _, _ := seededEngine(t)

	first := g.NewProperty()
	first.SetLabel("DOI")
	written, err := first.Write(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.DatatypeString, written.Datatype)

	second := g.NewProperty()
	second.SetLabel("DOI")
	again, err := second.Write(context.Background())
	require.NoError(t, err)
	assert.Equal(t, written.ID, again.ID)
}
