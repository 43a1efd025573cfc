package domain

import "context"

// Command is one outbound message on the event channel.
type Command struct {
	Event   string `json:"event"`
	Payload any    `json:"data,omitempty"`
}

// CommandSender is the outbound half of the event channel.
// Sends are fire-and-forget: a nil error only means the frame was written.
type CommandSender interface {
	Send(cmd Command) error
}

// ChannelClient is the injectable bidirectional channel the engine is wired to.
type ChannelClient interface {
	CommandSender
	Connect(ctx context.Context) error
	Disconnect()
	IsConnected() bool
}
