// Package catalog holds the furniture items offered per category and the mapping
// from slot node names to categories.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

// Item is one piece of furniture that can be placed into a slot.
// Position and Scale are local to the slot; Rotation is Euler degrees.
type Item struct {
	Name     string        `json:"name" yaml:"name"`
	URL      string        `json:"url" yaml:"url"`
	Category string        `json:"category" yaml:"category"`
	Image    string        `json:"image,omitempty" yaml:"image,omitempty"`
	Position types.Vector3 `json:"position" yaml:"position"`
	Rotation types.Vector3 `json:"rotation" yaml:"rotation"`
	Scale    types.Vector3 `json:"scale" yaml:"scale"`
}

// File is the on-disk catalog layout
type File struct {
	Items []Item            `json:"items" yaml:"items"`
	Slots map[string]string `json:"slots" yaml:"slots"`
}

// Catalog is read-only after construction
type Catalog struct {
	byCategory map[string][]Item
	byName     map[string]Item
	slots      map[string]string
}

// New builds a catalog. Items with a zero scale get the identity scale.
func New(items []Item, slots map[string]string) (*Catalog, error) {
	c := &Catalog{
		byCategory: make(map[string][]Item),
		byName:     make(map[string]Item),
		slots:      make(map[string]string, len(slots)),
	}
	for i, item := range items {
		if item.Name == "" || item.URL == "" || item.Category == "" {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: item %d needs name, url and category", errors.ErrInvalidData, i),
				"Catalog", "New", "validate item")
		}
		if _, dup := c.byName[item.Name]; dup {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: duplicate item %q", errors.ErrInvalidData, item.Name),
				"Catalog", "New", "validate item")
		}
		if item.Scale == (types.Vector3{}) {
			item.Scale = types.One
		}
		c.byName[item.Name] = item
		c.byCategory[item.Category] = append(c.byCategory[item.Category], item)
	}
	for slot, category := range slots {
		c.slots[slot] = category
	}
	return c, nil
}

// Load reads a catalog file (.yaml, .yml or .json)
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "Catalog", "Load", fmt.Sprintf("read %s", path))
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".json":
		err = json.Unmarshal(data, &f)
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: unsupported catalog format %q", errors.ErrInvalidData, filepath.Ext(path)),
			"Catalog", "Load", "detect format")
	}
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrParsingFailed, err), "Catalog", "Load", "decode catalog")
	}
	return New(f.Items, f.Slots)
}

// ItemsFor returns the items of category in file order
func (c *Catalog) ItemsFor(category string) []Item {
	items := c.byCategory[category]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Item looks up an item by name
func (c *Catalog) Item(name string) (Item, bool) {
	item, ok := c.byName[name]
	return item, ok
}

// CategoryOf returns the category assigned to a slot node name
func (c *Catalog) CategoryOf(slotName string) (string, bool) {
	category, ok := c.slots[slotName]
	return category, ok
}

// Categories returns the item categories, sorted
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.byCategory))
	for category := range c.byCategory {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
