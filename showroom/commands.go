package showroom

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rodvb29/Furniture-Adding-by-Matterport/component"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/errors"
	"github.com/rodvb29/Furniture-Adding-by-Matterport/natsclient"
)

// Command types accepted on the command subject
const (
	CommandAssign = "assign"
	CommandClick  = "click"
	CommandHover  = "hover"
)

// Command is a JSON message received on the command subject
type Command struct {
	Type      string `json:"type"`
	Item      string `json:"item,omitempty"`
	Component string `json:"component,omitempty"`
	Hover     bool   `json:"hover,omitempty"`
}

// HandleCommand decodes and executes one command message
func (a *App) HandleCommand(ctx context.Context, data []byte) error {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"App", "HandleCommand", "decode command")
	}

	switch cmd.Type {
	case CommandAssign:
		if cmd.Item == "" {
			return errors.WrapInvalid(errors.ErrInvalidData, "App", "HandleCommand", "assign without item")
		}
		return a.Assign(ctx, cmd.Item)
	case CommandClick, CommandHover:
		h, err := component.ParseComponentHandle(cmd.Component)
		if err != nil {
			return err
		}
		if cmd.Type == CommandClick {
			return a.Click(ctx, h)
		}
		return a.Hover(ctx, h, cmd.Hover)
	default:
		return errors.WrapInvalid(
			fmt.Errorf("%w: unknown command %q", errors.ErrInvalidData, cmd.Type),
			"App", "HandleCommand", "route command")
	}
}

// SubscribeCommands executes every message received on subject. Failed commands are
// logged; the subscription stays open.
func (a *App) SubscribeCommands(ctx context.Context, sub natsclient.Subscriber, subject string) error {
	err := sub.Subscribe(ctx, subject, func(msgCtx context.Context, data []byte) {
		if err := a.HandleCommand(msgCtx, data); err != nil {
			a.logger.Warn("Command failed",
				"subject", subject,
				"class", errors.Classify(err).String(),
				"error", err)
		}
	})
	if err != nil {
		return errors.Wrap(err, "App", "SubscribeCommands", "subscribe "+subject)
	}
	a.logger.Info("Listening for commands", "subject", subject)
	return nil
}
