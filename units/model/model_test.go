package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

func TestModelAppliesURLAndTransform(t *testing.T) {
	registry := component.NewRegistry()
	require.NoError(t, Register(registry))

	rt := component.NewRuntime(registry, component.Dependencies{})
	defer rt.Close()
	n := rt.CreateNode("chair-slot")
	h, err := rt.AddComponent(n, component.TagModel)
	require.NoError(t, err)
	require.NoError(t, rt.StartNode(n))

	out, _ := rt.Outputs(h)
	status, _ := component.Get[string](out, OutputStatus)
	assert.Equal(t, StatusEmpty, status)

	require.NoError(t, rt.SetInput(h, InputURL, "assets/chair.fbx"))
	require.NoError(t, rt.SetInput(h, InputLocalPosition, types.Vec3(0.1, 0, -0.2)))
	require.NoError(t, rt.SetInput(h, InputLocalScale, types.Vec3(0.01, 0.01, 0.01)))
	rt.Tick(16 * time.Millisecond)

	url, _ := component.Get[string](out, OutputLoadedURL)
	assert.Equal(t, "assets/chair.fbx", url)
	status, _ = component.Get[string](out, OutputStatus)
	assert.Equal(t, StatusLoaded, status)
	pos, _ := component.Get[types.Vector3](out, OutputLocalPosition)
	assert.Equal(t, types.Vec3(0.1, 0, -0.2), pos)

	// transform-only change does not reload
	require.NoError(t, rt.SetInput(h, InputLocalRotation, types.Vec3(0, 90, 0)))
	rt.Tick(16 * time.Millisecond)

	b, err := rt.Behavior(h)
	require.NoError(t, err)
	assert.Equal(t, 1, b.(*Model).Loads())
}
