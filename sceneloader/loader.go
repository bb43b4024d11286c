// Package sceneloader reads scene assets and instantiates their nodes in a runtime.
//
// A scene asset lists nodes with their transform and components in attachment order.
// Assets are YAML or JSON, optionally zstd-compressed with a trailing ".zst".
package sceneloader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

const compressedSuffix = ".zst"

var extensions = []string{".yaml", ".yml", ".json"}

// Scene is a decoded scene asset
type Scene struct {
	Name  string             `json:"name" yaml:"name"`
	Nodes []types.NodeConfig `json:"nodes" yaml:"nodes"`
}

// Validate checks every node
func (s Scene) Validate() error {
	for i, n := range s.Nodes {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("scene node %d: %w", i, err)
		}
	}
	return nil
}

// Visitor is called once per created node after its components are attached and
// their inputs written, before the node starts
type Visitor func(component.NodeHandle) error

// Loader resolves scene names against a directory
type Loader struct {
	rt     *component.Runtime
	dir    string
	logger *slog.Logger
}

// NewLoader creates a loader reading assets from dir
func NewLoader(rt *component.Runtime, dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{rt: rt, dir: dir, logger: logger.With("component", "sceneloader")}
}

// Resolve finds the asset file for name. The name may carry its extension; otherwise
// each supported extension is tried, plain before compressed.
func (l *Loader) Resolve(name string) (string, error) {
	candidates := []string{name}
	if _, ok := formatOf(name); !ok {
		candidates = candidates[:0]
		for _, ext := range extensions {
			candidates = append(candidates, name+ext, name+ext+compressedSuffix)
		}
	}

	for _, c := range candidates {
		path := c
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.dir, c)
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", errors.WrapInvalid(
		fmt.Errorf("%w: %q in %s", errors.ErrSceneNotFound, name, l.dir),
		"Loader", "Resolve", "find scene asset")
}

// Load reads the named scene and creates its nodes. For each node the components are
// attached in order, their configured inputs written, visit is called and the node is
// started. On failure the nodes created so far are destroyed.
func (l *Loader) Load(ctx context.Context, name string, visit Visitor) ([]component.NodeHandle, error) {
	path, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}
	scene, err := ReadScene(path)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Loading scene", "scene", name, "path", path, "nodes", len(scene.Nodes))

	created := make([]component.NodeHandle, 0, len(scene.Nodes))
	rollback := func() {
		for i := len(created) - 1; i >= 0; i-- {
			_ = l.rt.DestroyNode(created[i])
		}
	}

	for _, cfg := range scene.Nodes {
		if err := ctx.Err(); err != nil {
			rollback()
			return nil, errors.WrapTransient(err, "Loader", "Load", "scene load cancelled")
		}
		n, err := l.instantiate(cfg)
		if n.IsValid() {
			created = append(created, n)
		}
		if err == nil && visit != nil {
			err = visit(n)
		}
		if err == nil {
			err = l.rt.StartNode(n)
		}
		if err != nil {
			rollback()
			return nil, errors.Wrap(err, "Loader", "Load", fmt.Sprintf("node %s", cfg.Name))
		}
	}

	l.logger.Debug("Scene loaded", "scene", name, "nodes", len(created))
	return created, nil
}

func (l *Loader) instantiate(cfg types.NodeConfig) (component.NodeHandle, error) {
	n := l.rt.CreateNode(cfg.Name)
	rot := cfg.Rotation.Scale(math.Pi / 180)
	if err := l.rt.SetPosition(n, cfg.Position); err != nil {
		return n, err
	}
	if err := l.rt.SetRotation(n, rot); err != nil {
		return n, err
	}
	if err := l.rt.SetScale(n, cfg.ScaleOrOne()); err != nil {
		return n, err
	}

	for _, cc := range cfg.Components {
		h, err := l.rt.AddComponent(n, cc.Type)
		if err != nil {
			return n, err
		}
		if len(cc.Inputs) == 0 {
			continue
		}
		in, err := l.rt.Inputs(h)
		if err != nil {
			return n, err
		}
		for field, value := range cc.Inputs {
			if err := in.Set(field, value); err != nil {
				return n, fmt.Errorf("component %s: %w", cc.Type, err)
			}
		}
	}
	return n, nil
}

// ReadScene decodes a scene asset file
func ReadScene(path string) (Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Scene{}, errors.WrapInvalid(
				fmt.Errorf("%w: %s", errors.ErrSceneNotFound, path), "Loader", "ReadScene", "open asset")
		}
		return Scene{}, errors.WrapTransient(err, "Loader", "ReadScene", "open asset")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, compressedSuffix) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return Scene{}, errors.WrapInvalid(err, "Loader", "ReadScene", "zstd reader")
		}
		defer dec.Close()
		r = dec
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Scene{}, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrInvalidData, err), "Loader", "ReadScene", "read asset")
	}

	format, ok := formatOf(path)
	if !ok {
		return Scene{}, errors.WrapInvalid(
			fmt.Errorf("%w: unsupported scene format %q", errors.ErrInvalidData, path),
			"Loader", "ReadScene", "detect format")
	}
	return DecodeScene(format, data)
}

// DecodeScene parses scene bytes in the given format ("yaml" or "json") and validates them
func DecodeScene(format string, data []byte) (Scene, error) {
	var scene Scene
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &scene)
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err = dec.Decode(&scene); err == nil {
			normalizeNumbers(scene.Nodes)
		}
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return Scene{}, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrParsingFailed, err), "Loader", "DecodeScene", "decode scene")
	}
	if err := scene.Validate(); err != nil {
		return Scene{}, err
	}
	return scene, nil
}

// EncodeScene writes a scene as zstd-compressed JSON
func EncodeScene(w io.Writer, scene Scene) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return errors.WrapInvalid(err, "Loader", "EncodeScene", "zstd writer")
	}
	if err := json.NewEncoder(enc).Encode(scene); err != nil {
		_ = enc.Close()
		return errors.WrapInvalid(err, "Loader", "EncodeScene", "encode scene")
	}
	return enc.Close()
}

func formatOf(path string) (string, bool) {
	path = strings.TrimSuffix(strings.ToLower(path), compressedSuffix)
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return "yaml", true
	case ".json":
		return "json", true
	}
	return "", false
}

// normalizeNumbers turns json.Number inputs into int or float64 so integer fields keep
// their exact value
func normalizeNumbers(nodes []types.NodeConfig) {
	for i := range nodes {
		for j := range nodes[i].Components {
			inputs := nodes[i].Components[j].Inputs
			for k, v := range inputs {
				inputs[k] = numberValue(v)
			}
		}
	}
}

func numberValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n)
		}
		f, _ := x.Float64()
		return f
	case map[string]any:
		for k, e := range x {
			x[k] = numberValue(e)
		}
	case []any:
		for i, e := range x {
			x[i] = numberValue(e)
		}
	}
	return v
}
