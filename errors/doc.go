// Package errors provides standardized error handling patterns for showroom packages.
//
// # Overview
//
// The errors package implements a three-class error classification system: Transient
// (temporary, the caller may try again), Invalid (bad input or API misuse, do not retry),
// and Fatal (unrecoverable, stop processing).
//
// # Error Classification
//
//   - Transient: NATS or WebSocket connection issues, context timeouts
//   - Invalid: attachment errors (a unit used before init or after destroy), unknown
//     component types, input writes with the wrong field type, malformed scene assets
//   - Fatal: configuration that cannot be loaded or validated
//
// Attachment errors are programming errors. They are returned immediately and never
// silently ignored; IsAttachment recognizes them through any wrapping chain.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Client", "Publish", "nats publish")
//	errors.WrapInvalid(err, "Runtime", "Interact", "handle lookup")
//	errors.WrapFatal(err, "Config", "Load", "parse file")
//
// The generic Wrap() function preserves the original error's classification:
//
//	errors.Wrap(err, "Loader", "Load", "decode scene")
//
// # Integration with errors.As/Is
//
//	var ce *errors.ClassifiedError
//	if errors.As(err, &ce) {
//	    slog.Warn("classified", "component", ce.Component, "class", ce.Class)
//	}
//
//	if errors.Is(err, errors.ErrDestroyed) {
//	    // the handle outlived its unit
//	}
package errors
