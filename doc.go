// Package furnitureshowroom is the root of a runtime for a virtual furniture showroom
// placed inside a hosted 3D space.
//
// The host renders the space and forwards user input. This module owns the scene
// logic: which furniture sits in which slot, which slot is selected, where the camera
// should look and which capture device feeds the preview panel.
//
// # Architecture
//
// The component layer is a small entity runtime. Scene nodes carry units (slot, model
// loader, oriented box, camera input, camera, capture preview) addressed by
// generation-checked handles. Units declare typed input and output schemas, receive
// at most one inputs-updated notification per tick and may raise interaction events
// that spies observe.
//
//	cmd/showroom         entry point: flags, logging, config, errgroup wiring
//	showroom             application assembly and the single loop goroutine
//	component            nodes, units, schemas, events, spies, bindings, async
//	units/...            the unit behaviors
//	unitregistry         registers every unit with a component registry
//	sceneloader          scene assets (YAML, JSON, zstd) into nodes
//	discovery            finds slot nodes and attaches selection spies
//	selection            the slot selection state machine
//	catalog              furniture items and slot categories
//	capture              capture device abstraction
//	hostbridge           WebSocket bridge to the host renderer
//	natsclient           NATS connection, selection notifier, command intake
//	config               YAML, JSON and TOML configuration with env overrides
//	metric               Prometheus metrics and the metrics server
//	health               subsystem health served next to the metrics
//	errors               classified errors: transient, invalid, fatal
//
// # Threading
//
// The runtime is single-threaded. The showroom loop goroutine drives ticks, drains
// async continuations and runs commands submitted from the bridge and NATS. Other
// goroutines reach the runtime only through those commands.
package furnitureshowroom
