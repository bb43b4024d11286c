package showroom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/selection"
)

type memorySubscriber struct {
	subject string
	handler func(context.Context, []byte)
	err     error
}

func (m *memorySubscriber) Subscribe(_ context.Context, subject string, handler func(context.Context, []byte)) error {
	if m.err != nil {
		return m.err
	}
	m.subject = subject
	m.handler = handler
	return nil
}

func TestHandleCommand(t *testing.T) {
	app := startApp(t, nil)
	ctx := context.Background()
	sofa := app.Slots()[0]

	click := `{"type":"click","component":"` + sofa.Box.String() + `"}`
	require.NoError(t, app.HandleCommand(ctx, []byte(click)))
	assert.Equal(t, selection.TransitionSelect, app.nextChange(t).Transition)

	require.NoError(t, app.HandleCommand(ctx, []byte(`{"type":"assign","item":"grey-sofa"}`)))

	hover := `{"type":"hover","component":"` + sofa.Box.String() + `","hover":true}`
	require.NoError(t, app.HandleCommand(ctx, []byte(hover)))
}

func TestHandleCommandErrors(t *testing.T) {
	app := startApp(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"type":`},
		{"unknown type", `{"type":"explode"}`},
		{"assign without item", `{"type":"assign"}`},
		{"bad handle", `{"type":"click","component":"nope"}`},
		{"unknown item", `{"type":"assign","item":"missing"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := app.HandleCommand(ctx, []byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err), "got %v", err)
		})
	}
}

func TestSubscribeCommands(t *testing.T) {
	app := startApp(t, nil)
	sub := &memorySubscriber{}

	require.NoError(t, app.SubscribeCommands(context.Background(), sub, "showroom.command"))
	assert.Equal(t, "showroom.command", sub.subject)

	// failures are logged, not returned to the subscriber
	sub.handler(context.Background(), []byte(`not json`))

	click := `{"type":"click","component":"` + app.Slots()[1].Box.String() + `"}`
	sub.handler(context.Background(), []byte(click))
	assert.Equal(t, "slot-lamp", app.nextChange(t).Slot)
}

func TestSubscribeCommandsFailure(t *testing.T) {
	app := startApp(t, nil)
	sub := &memorySubscriber{err: errors.WrapTransient(errors.ErrConnectionLost, "Client", "Subscribe", "connection check")}

	err := app.SubscribeCommands(context.Background(), sub, "showroom.command")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}
