// Package showroom assembles the runtime, the units, the scene and the selection
// machine into one application, and runs them on a single loop goroutine.
//
// Everything that touches the runtime goes through the loop: timer ticks, async
// continuations and commands submitted by the host bridge or the command subject.
package showroom

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	capdev "github.com/rodvb29/Furniture-Adding-by-Matterport/capture"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/catalog"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/config"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/discovery"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/metric"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/sceneloader"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/selection"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/types"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/unitregistry"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/camera"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/units/capture"
)

// Node names created by the application itself
const (
	CameraNodeName  = "camera"
	CaptureNodeName = "capture-preview"
)

// Options configures New
type Options struct {
	Config  config.Config
	Logger  *slog.Logger     // Structured logger (can be nil)
	Metrics *metric.Metrics  // Showroom metrics (can be nil)
	Devices capdev.Devices   // Capture devices; nil uses the configured static devices
	Catalog *catalog.Catalog // Furniture catalog; nil loads Config.Catalog.Path
}

// App owns the runtime and everything attached to it
type App struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metric.Metrics

	rt      *component.Runtime
	machine *selection.Machine
	loader  *sceneloader.Loader
	poses   *poseFanout

	cameraInput component.ComponentHandle
	camera      component.ComponentHandle
	captureUnit component.ComponentHandle
	sceneNodes  []component.NodeHandle
	slots       []discovery.SlotNode

	commands chan command
	stopped  chan struct{}
	running  atomic.Bool
	setup    bool
}

type command struct {
	fn   func() error
	done chan error
}

// New builds the runtime with every unit registered and the camera pair in place.
// The scene is loaded by Setup.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = catalog.Load(cfg.Catalog.Path); err != nil {
			return nil, errors.Wrap(err, "App", "New", "load catalog")
		}
	}

	devices := opts.Devices
	if devices == nil {
		devices = capdev.NewStaticDevices(cfg.Capture.CaptureDevices()...)
	}

	a := &App{
		cfg:      cfg,
		logger:   logger.With("component", "showroom"),
		metrics:  opts.Metrics,
		poses:    &poseFanout{},
		commands: make(chan command, cfg.Loop.CommandBuffer),
		stopped:  make(chan struct{}),
	}

	registry := component.NewRegistry()
	if err := unitregistry.Register(registry, unitregistry.Options{
		Devices:  devices,
		PoseSink: a.poses.emit,
	}); err != nil {
		return nil, err
	}

	a.rt = component.NewRuntime(registry, component.Dependencies{Logger: logger, Metrics: opts.Metrics})
	a.loader = sceneloader.NewLoader(a.rt, cfg.Scene.Dir, logger)

	if err := a.createCamera(); err != nil {
		a.rt.Close()
		return nil, err
	}

	a.machine = selection.New(a.rt, selection.Config{
		CameraInput: a.cameraInput,
		Catalog:     cat,
		Logger:      logger,
		Metrics:     opts.Metrics,
	})
	return a, nil
}

// createCamera adds the camera input and camera units on one node and binds the
// input's pose to the camera. The start pose comes from configuration, in degrees.
func (a *App) createCamera() error {
	n := a.rt.CreateNode(CameraNodeName)

	var err error
	if a.cameraInput, err = a.rt.AddComponent(n, component.TagCameraInput); err != nil {
		return errors.Wrap(err, "App", "createCamera", "add camera input")
	}
	if a.camera, err = a.rt.AddComponent(n, component.TagCamera); err != nil {
		return errors.Wrap(err, "App", "createCamera", "add camera")
	}

	cc := a.cfg.Camera
	inputs := map[string]any{
		camera.InputStartPose: types.Pose{
			Position: cc.Position,
			Rotation: types.QuaternionFromEulerDegrees(cc.Rotation),
		},
		camera.InputFocusDistance: cc.FocusDistance,
		camera.InputFocusSpeed:    cc.FocusSpeed,
	}
	for name, v := range inputs {
		if err := a.rt.SetInput(a.cameraInput, name, v); err != nil {
			return errors.Wrap(err, "App", "createCamera", "write "+name)
		}
	}

	if err := a.rt.Bind(a.cameraInput, camera.OutputCamera, a.camera, camera.InputCamera); err != nil {
		return errors.Wrap(err, "App", "createCamera", "bind camera")
	}
	if err := a.rt.StartNode(n); err != nil {
		return errors.Wrap(err, "App", "createCamera", "start camera node")
	}
	return nil
}

// AddNotifier registers a selection notifier. Call it before Run.
func (a *App) AddNotifier(n selection.Notifier) {
	a.machine.AddNotifier(n)
}

// OnPose registers fn for every camera pose the camera unit applies.
// fn runs on the loop goroutine and must not block.
func (a *App) OnPose(fn func(types.Pose)) {
	a.poses.add(fn)
}

// Runtime exposes the runtime. It must only be used from the loop goroutine or before Run.
func (a *App) Runtime() *component.Runtime {
	return a.rt
}

// Setup loads the configured scene, discovers its slot nodes and places the capture
// preview. It runs before Run.
func (a *App) Setup(ctx context.Context) error {
	if a.setup {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "App", "Setup", "setup check")
	}

	d := discovery.New(a.rt, a.logger, a.machine.Spies()...)
	nodes, err := a.loader.Load(ctx, a.cfg.Scene.Name, d.Visit)
	if err != nil {
		return errors.Wrap(err, "App", "Setup", "load scene")
	}
	a.sceneNodes = nodes
	a.slots = d.Slots()
	a.machine.SetSlots(a.slots)

	if a.cfg.Capture.Enabled {
		if err := a.createCapture(); err != nil {
			return err
		}
	}

	a.setup = true
	a.logger.Info("Showroom ready",
		"scene", a.cfg.Scene.Name,
		"nodes", len(nodes),
		"slots", len(a.slots),
		"capture", a.cfg.Capture.Enabled)
	return nil
}

func (a *App) createCapture() error {
	cc := a.cfg.Capture
	n := a.rt.CreateNode(CaptureNodeName)
	if err := a.rt.SetPosition(n, cc.Position); err != nil {
		return errors.Wrap(err, "App", "createCapture", "set position")
	}
	if err := a.rt.SetRotation(n, cc.Rotation.Scale(math.Pi/180)); err != nil {
		return errors.Wrap(err, "App", "createCapture", "set rotation")
	}

	h, err := a.rt.AddComponent(n, component.TagCapture)
	if err != nil {
		return errors.Wrap(err, "App", "createCapture", "add capture unit")
	}
	if cc.DeviceID != "" {
		if err := a.rt.SetInput(h, capture.InputDeviceID, cc.DeviceID); err != nil {
			return errors.Wrap(err, "App", "createCapture", "write device id")
		}
	}
	if err := a.rt.StartNode(n); err != nil {
		return errors.Wrap(err, "App", "createCapture", "start capture node")
	}
	a.captureUnit = h
	return nil
}

// Slots returns the slot nodes found by Setup
func (a *App) Slots() []discovery.SlotNode {
	return a.slots
}

// SceneNodes returns the nodes created from the scene asset, in load order
func (a *App) SceneNodes() []component.NodeHandle {
	return a.sceneNodes
}

// CaptureUnit returns the capture preview handle; it is the zero handle when capture is disabled
func (a *App) CaptureUnit() component.ComponentHandle {
	return a.captureUnit
}

// CameraInput returns the camera input handle
func (a *App) CameraInput() component.ComponentHandle {
	return a.cameraInput
}

// Run drives the loop until ctx is cancelled, then destroys every node.
// Unless the host supplies ticks, the runtime ticks on the configured interval.
func (a *App) Run(ctx context.Context) error {
	if !a.setup {
		return errors.WrapInvalid(errors.ErrNotStarted, "App", "Run", "setup check")
	}
	if !a.running.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "App", "Run", "running check")
	}
	defer close(a.stopped)

	var ticks <-chan time.Time
	if !a.cfg.Loop.HostTicks {
		ticker := time.NewTicker(a.cfg.Loop.TickInterval.D())
		defer ticker.Stop()
		ticks = ticker.C
	}

	a.logger.Info("Showroom loop started",
		"tick_interval", a.cfg.Loop.TickInterval.D(),
		"host_ticks", a.cfg.Loop.HostTicks)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			a.shutdown()
			return nil
		case now := <-ticks:
			a.rt.Tick(now.Sub(last))
			last = now
		case <-a.rt.Wake():
			a.rt.Drain()
		case cmd := <-a.commands:
			cmd.done <- cmd.fn()
		}
	}
}

func (a *App) shutdown() {
	for {
		select {
		case cmd := <-a.commands:
			cmd.done <- errors.WrapTransient(errors.ErrShuttingDown, "App", "Run", "drain commands")
		default:
			a.rt.Close()
			a.logger.Info("Showroom loop stopped")
			return
		}
	}
}

// submit runs fn on the loop goroutine and waits for its result
func (a *App) submit(ctx context.Context, op string, fn func() error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}

	select {
	case a.commands <- cmd:
	case <-a.stopped:
		return errors.WrapTransient(errors.ErrShuttingDown, "App", op, "submit command")
	case <-ctx.Done():
		return errors.WrapTransient(ctx.Err(), "App", op, "submit command")
	}

	select {
	case err := <-cmd.done:
		return err
	case <-a.stopped:
		return errors.WrapTransient(errors.ErrShuttingDown, "App", op, "await command")
	case <-ctx.Done():
		return errors.WrapTransient(ctx.Err(), "App", op, "await command")
	}
}

// Tick advances the runtime by delta. It is how hosts drive the loop when
// host ticks are enabled.
func (a *App) Tick(ctx context.Context, delta time.Duration) error {
	return a.submit(ctx, "Tick", func() error {
		a.rt.Tick(delta)
		return nil
	})
}

// Click raises a click on h
func (a *App) Click(ctx context.Context, h component.ComponentHandle) error {
	return a.submit(ctx, "Click", func() error {
		return a.rt.Interact(h, component.Event{Type: component.EventClick})
	})
}

// Hover raises a hover change on h
func (a *App) Hover(ctx context.Context, h component.ComponentHandle, hover bool) error {
	return a.submit(ctx, "Hover", func() error {
		return a.rt.Interact(h, component.Event{Type: component.EventHover, Hover: hover})
	})
}

// Assign puts the named catalog item into the selected slot
func (a *App) Assign(ctx context.Context, item string) error {
	return a.submit(ctx, "Assign", func() error {
		return a.machine.AssignByName(item)
	})
}

// AssignItem puts item into the selected slot without a catalog lookup
func (a *App) AssignItem(ctx context.Context, item catalog.Item) error {
	return a.submit(ctx, "AssignItem", func() error {
		return a.machine.Assign(item)
	})
}

// Selection reports the selected slot name, or "" when nothing is selected
func (a *App) Selection(ctx context.Context) (string, error) {
	var name string
	err := a.submit(ctx, "Selection", func() error {
		if s, ok := a.machine.Selected(); ok {
			name = s.Name
		}
		return nil
	})
	return name, err
}

// Items lists the catalog items offered for the selected slot
func (a *App) Items(ctx context.Context) ([]catalog.Item, error) {
	var items []catalog.Item
	err := a.submit(ctx, "Items", func() error {
		items = a.machine.Items()
		return nil
	})
	return items, err
}

// Do runs fn against the runtime on the loop goroutine
func (a *App) Do(ctx context.Context, fn func(rt *component.Runtime) error) error {
	return a.submit(ctx, "Do", func() error {
		return fn(a.rt)
	})
}

// poseFanout forwards camera poses to listeners registered at any time
type poseFanout struct {
	mu    sync.RWMutex
	sinks []func(types.Pose)
}

func (f *poseFanout) add(fn func(types.Pose)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, fn)
}

func (f *poseFanout) emit(p types.Pose) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, fn := range f.sinks {
		fn(p)
	}
}
