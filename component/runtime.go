package component

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/metric"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
)

type node struct {
	handle     NodeHandle
	name       string
	position   types.Vector3
	rotation   types.Vector3 // Euler radians, YXZ
	scale      types.Vector3
	components []ComponentHandle
	started    bool
}

type nodeSlot struct {
	gen  uint32
	node *node
}

type unitSlot struct {
	gen  uint32
	unit *Unit
}

type binding struct {
	src    ComponentHandle
	output string
	dst    ComponentHandle
	input  string
}

// Runtime owns the scene nodes and the units attached to them.
//
// A Runtime is not safe for concurrent use: every method runs on the goroutine that
// drives Tick. Async operations hand their results back through an internal queue that
// Tick, Drain and Flush empty on that goroutine.
type Runtime struct {
	registry *Registry
	deps     Dependencies
	logger   *slog.Logger
	metrics  *metric.Metrics

	nodes     []nodeSlot
	units     []unitSlot
	freeNodes []uint32
	freeUnits []uint32
	order     []NodeHandle

	spies    spyTable
	bindings []binding

	queueMu  sync.Mutex
	queue    []func()
	inflight int
	closed   bool
	wake     chan struct{}

	root   context.Context
	cancel context.CancelFunc
}

// NewRuntime creates an empty runtime. The registry may be nil when units are only
// attached through Attach.
func NewRuntime(registry *Registry, deps Dependencies) *Runtime {
	root, cancel := context.WithCancel(context.Background())
	return &Runtime{
		registry: registry,
		deps:     deps,
		logger:   deps.GetLoggerWithComponent("runtime"),
		metrics:  deps.Metrics,
		spies:    newSpyTable(),
		wake:     make(chan struct{}, 1),
		root:     root,
		cancel:   cancel,
	}
}

// CreateNode adds an empty node with identity transform
func (rt *Runtime) CreateNode(name string) NodeHandle {
	var idx uint32
	if n := len(rt.freeNodes); n > 0 {
		idx = rt.freeNodes[n-1]
		rt.freeNodes = rt.freeNodes[:n-1]
	} else {
		rt.nodes = append(rt.nodes, nodeSlot{gen: 1})
		idx = uint32(len(rt.nodes) - 1)
	}

	h := NodeHandle{index: idx, gen: rt.nodes[idx].gen}
	rt.nodes[idx].node = &node{handle: h, name: name, scale: types.One}
	rt.order = append(rt.order, h)
	return h
}

func (rt *Runtime) node(h NodeHandle, op string) (*node, error) {
	if !h.IsValid() || int(h.index) >= len(rt.nodes) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: node %s", errors.ErrStaleHandle, h), "Runtime", op, "node lookup")
	}
	slot := rt.nodes[h.index]
	if slot.gen == h.gen && slot.node != nil {
		return slot.node, nil
	}
	if h.gen < slot.gen {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: node %s", errors.ErrDestroyed, h), "Runtime", op, "node lookup")
	}
	return nil, errors.WrapInvalid(
		fmt.Errorf("%w: node %s", errors.ErrStaleHandle, h), "Runtime", op, "node lookup")
}

func (rt *Runtime) unit(h ComponentHandle, op string) (*Unit, error) {
	if !h.IsValid() || int(h.index) >= len(rt.units) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: component %s", errors.ErrStaleHandle, h), "Runtime", op, "handle lookup")
	}
	slot := rt.units[h.index]
	if slot.gen == h.gen && slot.unit != nil {
		return slot.unit, nil
	}
	if h.gen < slot.gen {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: component %s", errors.ErrDestroyed, h), "Runtime", op, "handle lookup")
	}
	return nil, errors.WrapInvalid(
		fmt.Errorf("%w: component %s", errors.ErrStaleHandle, h), "Runtime", op, "handle lookup")
}

// Nodes returns the live nodes in creation order
func (rt *Runtime) Nodes() []NodeHandle {
	return slices.Clone(rt.order)
}

// NodeName returns the node's name
func (rt *Runtime) NodeName(h NodeHandle) (string, error) {
	nd, err := rt.node(h, "NodeName")
	if err != nil {
		return "", err
	}
	return nd.name, nil
}

// SetPosition sets the node's local position
func (rt *Runtime) SetPosition(h NodeHandle, v types.Vector3) error {
	nd, err := rt.node(h, "SetPosition")
	if err != nil {
		return err
	}
	nd.position = v
	return nil
}

// Position returns the node's local position
func (rt *Runtime) Position(h NodeHandle) (types.Vector3, error) {
	nd, err := rt.node(h, "Position")
	if err != nil {
		return types.Vector3{}, err
	}
	return nd.position, nil
}

// SetRotation sets the node's rotation as Euler radians (YXZ)
func (rt *Runtime) SetRotation(h NodeHandle, v types.Vector3) error {
	nd, err := rt.node(h, "SetRotation")
	if err != nil {
		return err
	}
	nd.rotation = v
	return nil
}

// Rotation returns the node's rotation as Euler radians
func (rt *Runtime) Rotation(h NodeHandle) (types.Vector3, error) {
	nd, err := rt.node(h, "Rotation")
	if err != nil {
		return types.Vector3{}, err
	}
	return nd.rotation, nil
}

// SetScale sets the node's scale
func (rt *Runtime) SetScale(h NodeHandle, v types.Vector3) error {
	nd, err := rt.node(h, "SetScale")
	if err != nil {
		return err
	}
	nd.scale = v
	return nil
}

// Scale returns the node's scale
func (rt *Runtime) Scale(h NodeHandle) (types.Vector3, error) {
	nd, err := rt.node(h, "Scale")
	if err != nil {
		return types.Vector3{}, err
	}
	return nd.scale, nil
}

// Components returns the node's units in attachment order
func (rt *Runtime) Components(h NodeHandle) ([]ComponentHandle, error) {
	nd, err := rt.node(h, "Components")
	if err != nil {
		return nil, err
	}
	return slices.Clone(nd.components), nil
}

// AddComponent creates a unit from the registered factory for tag and attaches it to the node
func (rt *Runtime) AddComponent(h NodeHandle, tag string) (ComponentHandle, error) {
	if _, err := rt.node(h, "AddComponent"); err != nil {
		return ComponentHandle{}, err
	}
	if rt.registry == nil {
		return ComponentHandle{}, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownComponentType, tag),
			"Runtime", "AddComponent", "factory lookup")
	}
	b, kind, err := rt.registry.Create(tag, rt.deps)
	if err != nil {
		return ComponentHandle{}, err
	}
	return rt.Attach(h, tag, kind, b)
}

// Attach attaches an already constructed behavior. If the node is started the unit is
// initialized and started immediately.
func (rt *Runtime) Attach(h NodeHandle, tag string, kind Kind, b Behavior) (ComponentHandle, error) {
	nd, err := rt.node(h, "Attach")
	if err != nil {
		return ComponentHandle{}, err
	}
	if b == nil {
		return ComponentHandle{}, errors.WrapInvalid(
			fmt.Errorf("nil behavior for %q", tag), "Runtime", "Attach", "behavior validation")
	}

	var idx uint32
	if n := len(rt.freeUnits); n > 0 {
		idx = rt.freeUnits[n-1]
		rt.freeUnits = rt.freeUnits[:n-1]
	} else {
		rt.units = append(rt.units, unitSlot{gen: 1})
		idx = uint32(len(rt.units) - 1)
	}
	ch := ComponentHandle{index: idx, gen: rt.units[idx].gen}

	events := make(map[EventType]bool)
	for _, t := range b.Events() {
		events[t] = true
	}

	ctx, cancel := context.WithCancel(rt.root)
	u := &Unit{
		rt:       rt,
		handle:   ch,
		node:     h,
		tag:      tag,
		kind:     kind,
		behavior: b,
		state:    StateUninitialized,
		inputs:   NewRecord(b.Inputs()),
		outputs:  NewRecord(b.Outputs()),
		events:   events,
		ctx:      ctx,
		cancel:   cancel,
		logger:   rt.deps.GetLogger().With("component", ch.String(), "tag", tag, "node", nd.name),
	}
	rt.units[idx].unit = u
	nd.components = append(nd.components, ch)
	rt.metrics.RecordUnitAttached(tag)

	if nd.started {
		if err := rt.initialize(u); err != nil {
			return ch, err
		}
		rt.start(u)
	}
	return ch, nil
}

// StartNode initializes every uninitialized unit in attachment order, then starts them.
// Every OnInit on the node runs before any unit starts, so a unit's OnInit sees its
// siblings initialized but not started. A unit whose OnInit fails is marked failed;
// the others still start.
func (rt *Runtime) StartNode(h NodeHandle) error {
	nd, err := rt.node(h, "StartNode")
	if err != nil {
		return err
	}
	nd.started = true

	var errs []error
	for _, ch := range slices.Clone(nd.components) {
		if u, err := rt.unit(ch, "StartNode"); err == nil {
			if err := rt.initialize(u); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, ch := range slices.Clone(nd.components) {
		if u, err := rt.unit(ch, "StartNode"); err == nil {
			rt.start(u)
		}
	}
	return errors.Join(errs...)
}

func (rt *Runtime) initialize(u *Unit) error {
	if u.state != StateUninitialized {
		return nil
	}
	if err := u.behavior.OnInit(u); err != nil {
		u.state = StateFailed
		u.logger.Error("Unit init failed", "error", err)
		return errors.Wrap(err, "Runtime", "StartNode", fmt.Sprintf("init %s", u.tag))
	}
	if u.state == StateDestroyed {
		return nil
	}
	u.state = StateInitialized
	return nil
}

// start moves an initialized or stopped unit to started. The baseline is captured
// only on the first start; a restart keeps it.
func (rt *Runtime) start(u *Unit) {
	switch u.state {
	case StateInitialized:
		u.baseline = u.inputs.Snapshot()
		u.state = StateStarted
		u.logger.Debug("Unit started")
	case StateStopped:
		u.state = StateStarted
	}
}

// StopNode stops every started unit on the node
func (rt *Runtime) StopNode(h NodeHandle) error {
	nd, err := rt.node(h, "StopNode")
	if err != nil {
		return err
	}
	nd.started = false
	for _, ch := range nd.components {
		if u, err := rt.unit(ch, "StopNode"); err == nil && u.state == StateStarted {
			u.state = StateStopped
		}
	}
	return nil
}

// DestroyComponent runs OnDestroy and releases the unit's spies, bindings and handle.
// Destroying an already destroyed unit is an error.
func (rt *Runtime) DestroyComponent(h ComponentHandle) error {
	u, err := rt.unit(h, "DestroyComponent")
	if err != nil {
		if errors.Is(err, errors.ErrDestroyed) {
			return errors.WrapInvalid(
				fmt.Errorf("%w: %w", errors.ErrAlreadyDestroyed, err),
				"Runtime", "DestroyComponent", "handle lookup")
		}
		return err
	}
	rt.destroy(u)
	return nil
}

func (rt *Runtime) destroy(u *Unit) {
	prev := u.state
	u.state = StateDestroyed
	u.cancel()
	if prev != StateUninitialized {
		u.behavior.OnDestroy(u)
	}

	rt.spies.removeUnit(u.handle)
	rt.bindings = slices.DeleteFunc(rt.bindings, func(b binding) bool {
		return b.src == u.handle || b.dst == u.handle
	})
	if nd, err := rt.node(u.node, "Destroy"); err == nil {
		nd.components = slices.DeleteFunc(nd.components, func(ch ComponentHandle) bool {
			return ch == u.handle
		})
	}

	slot := &rt.units[u.handle.index]
	slot.unit = nil
	slot.gen++
	rt.freeUnits = append(rt.freeUnits, u.handle.index)
	rt.metrics.RecordUnitDestroyed(u.tag)
	u.logger.Debug("Unit destroyed", "previous_state", prev.String())
}

// DestroyNode destroys the node's units in reverse attachment order, then the node
func (rt *Runtime) DestroyNode(h NodeHandle) error {
	nd, err := rt.node(h, "DestroyNode")
	if err != nil {
		if errors.Is(err, errors.ErrDestroyed) {
			return errors.WrapInvalid(
				fmt.Errorf("%w: %w", errors.ErrAlreadyDestroyed, err),
				"Runtime", "DestroyNode", "handle lookup")
		}
		return err
	}

	for i := len(nd.components) - 1; i >= 0; i-- {
		if u, err := rt.unit(nd.components[i], "DestroyNode"); err == nil {
			rt.destroy(u)
		}
	}

	slot := &rt.nodes[h.index]
	slot.node = nil
	slot.gen++
	rt.freeNodes = append(rt.freeNodes, h.index)
	rt.order = slices.DeleteFunc(rt.order, func(n NodeHandle) bool { return n == h })
	return nil
}

// Close destroys every node, newest first, then drains the queue. Continuations of
// destroyed units release what they acquired; operations still in flight release
// theirs when they finish.
func (rt *Runtime) Close() {
	for i := len(rt.order) - 1; i >= 0; i-- {
		_ = rt.DestroyNode(rt.order[i])
	}
	rt.cancel()

	rt.queueMu.Lock()
	rt.closed = true
	rt.queueMu.Unlock()
	rt.Drain()
}

// Inputs returns the unit's writable input record
func (rt *Runtime) Inputs(h ComponentHandle) (*Record, error) {
	u, err := rt.unit(h, "Inputs")
	if err != nil {
		return nil, err
	}
	return u.inputs, nil
}

// SetInput writes one input field
func (rt *Runtime) SetInput(h ComponentHandle, name string, v any) error {
	in, err := rt.Inputs(h)
	if err != nil {
		return err
	}
	return in.Set(name, v)
}

// Outputs returns a read-only view of the unit's outputs
func (rt *Runtime) Outputs(h ComponentHandle) (View, error) {
	u, err := rt.unit(h, "Outputs")
	if err != nil {
		return View{}, err
	}
	return u.outputs.View(), nil
}

// State returns the unit's lifecycle state
func (rt *Runtime) State(h ComponentHandle) (State, error) {
	u, err := rt.unit(h, "State")
	if err != nil {
		if errors.Is(err, errors.ErrDestroyed) {
			return StateDestroyed, err
		}
		return StateUninitialized, err
	}
	return u.state, nil
}

// Kind returns the unit's kind
func (rt *Runtime) Kind(h ComponentHandle) (Kind, error) {
	u, err := rt.unit(h, "Kind")
	if err != nil {
		return KindOther, err
	}
	return u.kind, nil
}

// Tag returns the unit's host type tag
func (rt *Runtime) Tag(h ComponentHandle) (string, error) {
	u, err := rt.unit(h, "Tag")
	if err != nil {
		return "", err
	}
	return u.tag, nil
}

// NodeOf returns the node owning the unit
func (rt *Runtime) NodeOf(h ComponentHandle) (NodeHandle, error) {
	u, err := rt.unit(h, "NodeOf")
	if err != nil {
		return NodeHandle{}, err
	}
	return u.node, nil
}

// Behavior returns the unit's behavior value
func (rt *Runtime) Behavior(h ComponentHandle) (Behavior, error) {
	u, err := rt.unit(h, "Behavior")
	if err != nil {
		return nil, err
	}
	return u.behavior, nil
}

// Bind copies src's output field into dst's input field at the start of every tick
func (rt *Runtime) Bind(src ComponentHandle, output string, dst ComponentHandle, input string) error {
	su, err := rt.unit(src, "Bind")
	if err != nil {
		return err
	}
	du, err := rt.unit(dst, "Bind")
	if err != nil {
		return err
	}
	if _, ok := su.outputs.Schema().Field(output); !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: output %q of %s", errors.ErrUnknownField, output, su.tag),
			"Runtime", "Bind", "output lookup")
	}
	if _, ok := du.inputs.Schema().Field(input); !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: input %q of %s", errors.ErrUnknownField, input, du.tag),
			"Runtime", "Bind", "input lookup")
	}
	rt.bindings = append(rt.bindings, binding{src: src, output: output, dst: dst, input: input})
	return nil
}

func (rt *Runtime) applyBindings() {
	for _, b := range rt.bindings {
		su, err := rt.unit(b.src, "Tick")
		if err != nil {
			continue
		}
		du, err := rt.unit(b.dst, "Tick")
		if err != nil {
			continue
		}
		v, _ := su.outputs.Get(b.output)
		cur, _ := du.inputs.Get(b.input)
		if reflect.DeepEqual(v, cur) {
			continue
		}
		if err := du.inputs.Set(b.input, v); err != nil {
			rt.logger.Warn("Binding skipped",
				"src", b.src.String(), "output", b.output,
				"dst", b.dst.String(), "input", b.input, "error", err)
		}
	}
}

// Tick advances one frame. Queued async continuations run first, then bindings are
// applied, then every started unit in node and attachment order gets at most one
// OnInputsUpdated, with the inputs captured at its previous pass, followed by OnTick.
func (rt *Runtime) Tick(delta time.Duration) {
	started := time.Now()

	rt.Drain()
	rt.applyBindings()

	for _, nh := range slices.Clone(rt.order) {
		nd, err := rt.node(nh, "Tick")
		if err != nil {
			continue
		}
		for _, ch := range slices.Clone(nd.components) {
			u, err := rt.unit(ch, "Tick")
			if err != nil || u.state != StateStarted {
				continue
			}

			current := u.inputs.Snapshot()
			if !current.Equal(u.baseline) {
				old := u.baseline
				u.baseline = current
				u.behavior.OnInputsUpdated(u, old)
				rt.metrics.RecordInputsUpdated(u.tag)
			}
			if u.state == StateStarted {
				u.behavior.OnTick(u, delta)
			}
		}
	}

	rt.metrics.RecordTick(time.Since(started))
}
