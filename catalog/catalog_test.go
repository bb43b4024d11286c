package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

const yamlCatalog = `
items:
  - name: oak-chair
    url: assets/oak-chair.fbx
    category: chair
    position: {x: 0, y: 0, z: 0.1}
    rotation: {x: 0, y: 90, z: 0}
    scale: {x: 0.01, y: 0.01, z: 0.01}
  - name: club-chair
    url: assets/club-chair.fbx
    category: chair
  - name: leather-sofa
    url: assets/sofa.fbx
    category: sofa
slots:
  slot-chair-1: chair
  slot-sofa: sofa
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	c, err := Load(writeFile(t, "catalog.yaml", yamlCatalog))
	require.NoError(t, err)

	chairs := c.ItemsFor("chair")
	require.Len(t, chairs, 2)
	assert.Equal(t, "oak-chair", chairs[0].Name)
	assert.Equal(t, types.Vec3(0, 90, 0), chairs[0].Rotation)
	assert.Equal(t, types.One, chairs[1].Scale, "missing scale defaults to identity")

	category, ok := c.CategoryOf("slot-sofa")
	require.True(t, ok)
	assert.Equal(t, "sofa", category)
	_, ok = c.CategoryOf("slot-unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"chair", "sofa"}, c.Categories())
	assert.Empty(t, c.ItemsFor("lamp"))

	item, ok := c.Item("leather-sofa")
	require.True(t, ok)
	assert.Equal(t, "assets/sofa.fbx", item.URL)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "catalog.json", `{
		"items": [{"name": "lamp", "url": "assets/lamp.fbx", "category": "light"}],
		"slots": {"corner": "light"}
	}`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.ItemsFor("light"), 1)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsFatal(err))

	_, err = Load(writeFile(t, "catalog.txt", "x"))
	assert.True(t, errors.IsInvalid(err))

	_, err = Load(writeFile(t, "bad.json", "{"))
	assert.ErrorIs(t, err, errors.ErrParsingFailed)

	_, err = New([]Item{{Name: "x", URL: "u", Category: "c"}, {Name: "x", URL: "u", Category: "c"}}, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidData)

	_, err = New([]Item{{Name: "x"}}, nil)
	assert.ErrorIs(t, err, errors.ErrInvalidData)
}
