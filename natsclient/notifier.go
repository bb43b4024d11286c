package natsclient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/selection"
)

// Subjects used by the showroom
const (
	DefaultSelectionSubject = "showroom.selection.changed"
	DefaultCommandSubject   = "showroom.command"
)

// EnvelopeTypeSelection marks selection change envelopes
const EnvelopeTypeSelection = "selection.changed"

// Publisher is the subset of Client the notifier needs
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Subscriber is the subset of Client command intake needs
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler func(context.Context, []byte)) error
}

// Envelope wraps a published payload
type Envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// SelectionNotifier publishes selection changes
type SelectionNotifier struct {
	pub     Publisher
	subject string
	timeout time.Duration
}

// NewSelectionNotifier publishes on subject, or DefaultSelectionSubject when empty
func NewSelectionNotifier(pub Publisher, subject string) *SelectionNotifier {
	if subject == "" {
		subject = DefaultSelectionSubject
	}
	return &SelectionNotifier{pub: pub, subject: subject, timeout: 2 * time.Second}
}

// Name identifies the sink in metrics
func (n *SelectionNotifier) Name() string {
	return "nats"
}

// Subject returns the publish subject
func (n *SelectionNotifier) Subject() string {
	return n.subject
}

// SelectionChanged implements selection.Notifier
func (n *SelectionNotifier) SelectionChanged(c selection.Change) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.WrapInvalid(err, "SelectionNotifier", "SelectionChanged", "marshal change")
	}
	msg, err := json.Marshal(Envelope{
		ID:        uuid.NewString(),
		Type:      EnvelopeTypeSelection,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return errors.WrapInvalid(err, "SelectionNotifier", "SelectionChanged", "marshal envelope")
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	return n.pub.Publish(ctx, n.subject, msg)
}
