package commands

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/tarahq/tara/internal/voice"
)

// ChannelNotifier delivers session messages to the text channel the command
// came from. Delivery failures are logged, never returned: a missed notice
// must not fail the session.
type ChannelNotifier struct {
	session   *discordgo.Session
	channelID string

	// sendMessage and deleteMessage wrap the Discord API for tests.
	sendMessage   func(channelID, content string) (*discordgo.Message, error)
	deleteMessage func(channelID, messageID string) error
}

var _ voice.Notifier = (*ChannelNotifier)(nil)

// NewChannelNotifier creates a notifier posting to channelID.
func NewChannelNotifier(session *discordgo.Session, channelID string) *ChannelNotifier {
	return &ChannelNotifier{
		session:   session,
		channelID: channelID,
		sendMessage: func(channelID, content string) (*discordgo.Message, error) {
			return session.ChannelMessageSend(channelID, content)
		},
		deleteMessage: func(channelID, messageID string) error {
			return session.ChannelMessageDelete(channelID, messageID)
		},
	}
}

// Notify posts text to the channel.
func (n *ChannelNotifier) Notify(_ context.Context, text string) {
	if _, err := n.sendMessage(n.channelID, text); err != nil {
		slog.Warn("discord: failed to send channel notice", "channel_id", n.channelID, "err", err)
	}
}

// BeginStatus posts a transient status message and returns a function that
// deletes it again.
func (n *ChannelNotifier) BeginStatus(_ context.Context, text string) func() {
	msg, err := n.sendMessage(n.channelID, text)
	if err != nil {
		slog.Warn("discord: failed to send status message", "channel_id", n.channelID, "err", err)
		return func() {}
	}
	return func() {
		if err := n.deleteMessage(n.channelID, msg.ID); err != nil {
			slog.Warn("discord: failed to delete status message", "message_id", msg.ID, "err", err)
		}
	}
}
