// Package component provides the runtime for behavior units attached to scene nodes.
//
// # Overview
//
// A Runtime owns an arena of nodes and units addressed by generation-checked handles.
// Each unit is a Behavior with an input schema, an output schema and a set of declared
// interaction events. The owner writes inputs and reads outputs; the unit reads inputs
// and writes outputs. The types enforce the split: owners get a *Record for inputs and a
// View for outputs, hooks get the reverse through *Unit.
//
// # Lifecycle
//
//	Uninitialized -> Initialized -> Started <-> Stopped -> Destroyed
//	                      \-> Failed (OnInit returned an error)
//
// StartNode runs OnInit once per unit in attachment order and captures the input
// baseline. Each Tick compares current inputs with the baseline, calls OnInputsUpdated
// at most once with the previous values, re-baselines and then calls OnTick.
// DestroyNode destroys units in reverse attachment order.
//
// Any operation through a handle whose unit was destroyed fails with
// errors.ErrDestroyed; destroying twice fails with errors.ErrAlreadyDestroyed.
//
// # Registration Pattern
//
// Units are created from factories registered explicitly by tag:
//
//	registry := component.NewRegistry()
//	_ = registry.Register(component.Registration{
//		Tag:     component.TagSlot,
//		Kind:    component.KindSlot,
//		Factory: slot.New,
//	})
//
//	rt := component.NewRuntime(registry, component.Dependencies{Logger: logger})
//	n := rt.CreateNode("sofa")
//	h, _ := rt.AddComponent(n, component.TagSlot)
//	_ = rt.StartNode(n)
//
// # Events
//
// SpyOnEvent registers a Spy on (unit, event type). Interact delivers an event to the
// unit's OnEvent and then synchronously to every spy in registration order. A spy
// that returns an error or panics is isolated; the rest still run.
//
// # Async work
//
// Async runs blocking work off the tick goroutine with the unit's cancellation context
// and hands the result back through the runtime queue. If the unit was destroyed in
// the meantime, the release callback receives the result instead.
package component
