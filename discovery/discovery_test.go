package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/unitregistry"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/box"
)

func newRuntime(t *testing.T) *component.Runtime {
	t.Helper()
	registry := component.NewRegistry()
	require.NoError(t, unitregistry.Register(registry, unitregistry.Options{}))
	rt := component.NewRuntime(registry, component.Dependencies{})
	t.Cleanup(rt.Close)
	return rt
}

func addNode(t *testing.T, rt *component.Runtime, name string, tags ...string) component.NodeHandle {
	t.Helper()
	n := rt.CreateNode(name)
	for _, tag := range tags {
		_, err := rt.AddComponent(n, tag)
		require.NoError(t, err)
	}
	return n
}

func noop(component.Event) error { return nil }

func TestDiscoveryCompleteness(t *testing.T) {
	rt := newRuntime(t)

	a := addNode(t, rt, "A", component.TagSlot, component.TagModel)
	addNode(t, rt, "B", component.TagSlot)
	c := addNode(t, rt, "C", component.TagModel, component.TagSlot, component.TagBox)
	d := addNode(t, rt, "D", component.TagBox)

	click := component.SpyFunc(component.EventClick, noop)
	hover := component.SpyFunc(component.EventHover, noop)

	slots, err := Discover(rt, rt.Nodes(), click, hover)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, a, slots[0].Node)
	assert.Equal(t, "A", slots[0].Name)
	assert.False(t, slots[0].HasBox)

	assert.Equal(t, c, slots[1].Node)
	assert.True(t, slots[1].HasBox)

	comps, err := rt.Components(c)
	require.NoError(t, err)
	assert.Equal(t, comps[0], slots[1].Model)
	assert.Equal(t, comps[1], slots[1].Slot)
	assert.Equal(t, comps[2], slots[1].Box)

	// every box is prepared, including boxes outside slot nodes
	assert.Equal(t, 2, rt.SpyCount(slots[1].Box))
	p, err := box.Current(rt, slots[1].Box)
	require.NoError(t, err)
	assert.Equal(t, box.Unselected, p)

	dComps, _ := rt.Components(d)
	assert.Equal(t, 2, rt.SpyCount(dComps[0]))
}

func TestDiscovererVisitOrder(t *testing.T) {
	rt := newRuntime(t)
	disc := New(rt, nil)

	for _, name := range []string{"first", "second", "third"} {
		n := addNode(t, rt, name, component.TagSlot, component.TagModel, component.TagBox)
		require.NoError(t, disc.Visit(n))
	}

	slots := disc.Slots()
	require.Len(t, slots, 3)
	assert.Equal(t, "first", slots[0].Name)
	assert.Equal(t, "third", slots[2].Name)

	// nodes created after the walk are not discovered
	addNode(t, rt, "late", component.TagSlot, component.TagModel)
	assert.Len(t, disc.Slots(), 3)
}

func TestVisitDestroyedNode(t *testing.T) {
	rt := newRuntime(t)
	n := addNode(t, rt, "gone", component.TagSlot)
	require.NoError(t, rt.DestroyNode(n))

	err := New(rt, nil).Visit(n)
	assert.Error(t, err)
}

func TestSpyRegistrationFailureSurfaces(t *testing.T) {
	rt := newRuntime(t)
	n := addNode(t, rt, "boxed", component.TagBox)

	// boxes do not declare drag events
	drag := component.SpyFunc(component.EventDrag, noop)
	err := New(rt, nil, drag).Visit(n)
	assert.Error(t, err)
}
