package natsclient

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/catalog"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/selection"
)

type published struct {
	subject string
	data    []byte
}

type memoryPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *memoryPublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{subject: subject, data: data})
	return nil
}

func TestSelectionNotifierPublishesEnvelope(t *testing.T) {
	pub := &memoryPublisher{}
	n := NewSelectionNotifier(pub, "")
	assert.Equal(t, DefaultSelectionSubject, n.Subject())
	assert.Equal(t, "nats", n.Name())

	var _ selection.Notifier = n

	err := n.SelectionChanged(selection.Change{
		Transition: selection.TransitionSelect,
		Slot:       "slot-1",
		Category:   "chair",
		Items:      []catalog.Item{{Name: "oak-chair", URL: "assets/oak-chair.fbx", Category: "chair"}},
	})
	require.NoError(t, err)
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, DefaultSelectionSubject, pub.msgs[0].subject)

	var env Envelope
	require.NoError(t, json.Unmarshal(pub.msgs[0].data, &env))
	assert.Equal(t, EnvelopeTypeSelection, env.Type)
	_, err = uuid.Parse(env.ID)
	assert.NoError(t, err)
	assert.False(t, env.Timestamp.IsZero())

	var change selection.Change
	require.NoError(t, json.Unmarshal(env.Data, &change))
	assert.Equal(t, "slot-1", change.Slot)
	assert.Equal(t, "chair", change.Category)
	require.Len(t, change.Items, 1)
	assert.Equal(t, "oak-chair", change.Items[0].Name)
}

func TestSelectionNotifierPropagatesPublishError(t *testing.T) {
	pub := &memoryPublisher{err: errors.WrapTransient(ErrNotConnected, "Client", "Publish", "connection check")}
	n := NewSelectionNotifier(pub, "custom.subject")

	err := n.SelectionChanged(selection.Change{Transition: selection.TransitionDeselect})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, pub.msgs)
}
