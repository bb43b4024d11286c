// Package natsclient manages a NATS connection and carries showroom notifications.
//
// The Client wraps the NATS Go client with a circuit breaker: after a threshold of
// consecutive connection failures (default 5) the circuit opens and Connect fails fast
// until the backoff expires. The backoff doubles on each opening up to a maximum.
//
// Connection states move through Disconnected, Connecting, Connected and Reconnecting.
// Publish and Subscribe return ErrNotConnected (transient) while the connection is down.
//
// # Selection notifications
//
// SelectionNotifier publishes every selection change as a JSON envelope:
//
//	{"id": "<uuid>", "type": "selection.changed", "timestamp": "...", "data": {...}}
//
// on the configured subject (default "showroom.selection.changed"). It implements the
// selection Notifier interface and accepts any Publisher, so tests substitute an
// in-memory publisher for a live server.
//
// # Basic Usage
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//	    natsclient.WithName("showroom"),
//	    natsclient.WithLogger(logger),
//	)
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(context.Background())
//
//	machine.AddNotifier(natsclient.NewSelectionNotifier(client, ""))
package natsclient
