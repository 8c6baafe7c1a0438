// Package commands implements the Tara slash commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/tarahq/tara/internal/discord"
	"github.com/tarahq/tara/internal/speech"
	"github.com/tarahq/tara/internal/voice"
)

// speakTimeout bounds one full session: chat reply, synthesis, playback.
const speakTimeout = 2 * time.Minute

// TalkCommands handles the /talk slash command group.
type TalkCommands struct {
	orch     *voice.Orchestrator
	presence voice.Presence
}

// NewTalkCommands creates a TalkCommands handler.
func NewTalkCommands(orch *voice.Orchestrator, presence voice.Presence) *TalkCommands {
	return &TalkCommands{
		orch:     orch,
		presence: presence,
	}
}

// Register registers all /talk subcommands with the router.
func (tc *TalkCommands) Register(router *discord.CommandRouter) {
	def := tc.Definition()
	router.RegisterCommand("talk", def, func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		discord.RespondEphemeral(s, i, "Please use a subcommand: `/talk say` or `/talk status`.")
	})
	router.RegisterHandler("talk/say", tc.handleSay)
	router.RegisterHandler("talk/status", tc.handleStatus)
}

// Definition returns the /talk ApplicationCommand for Discord registration.
func (tc *TalkCommands) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "talk",
		Description: "Talk in your voice channel via TTS",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "say",
				Description: "Speak a reply to your message in your voice channel",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "message",
						Description: "What should I reply to?",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
				},
			},
			{
				Name:        "status",
				Description: "Check who is using the talk command and time remaining",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
		},
	}
}

// handleSay handles /talk say.
func (tc *TalkCommands) handleSay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	message := subOptionString(i, "message")
	if strings.TrimSpace(message) == "" {
		discord.RespondEphemeral(s, i, "Usage: `/talk say <message>` (be in a voice channel).")
		return
	}

	// Playback takes a while; the three-second interaction window is not
	// enough.
	discord.DeferReply(s, i)

	ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
	defer cancel()

	notifier := NewChannelNotifier(s, i.ChannelID)
	err := tc.orch.Speak(ctx, voice.Request{
		RequesterID: userID,
		PromptText:  message,
		Notifier:    notifier,
	})
	if err != nil {
		discord.FollowUp(s, i, tc.sessionErrorMessage(err))
		if errors.Is(err, voice.ErrQuotaExceeded) {
			// The floor was force-freed; tell the channel, like the
			// departure notice.
			notifier.Notify(ctx, fmt.Sprintf(
				"%s reached daily limit. Lock released. Next person can use the bot.",
				tc.presence.DisplayName(userID),
			))
		}
		return
	}

	discord.FollowUp(s, i, "Done.")
}

// handleStatus handles /talk status.
func (tc *TalkCommands) handleStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, holder, err := tc.orch.Status(ctx)
	if err != nil {
		discord.RespondError(s, i, err)
		return
	}
	discord.RespondEphemeral(s, i, statusMessage(st, holder))
}

// sessionErrorMessage converts an orchestrator error into the user-facing
// reply for the requester.
func (tc *TalkCommands) sessionErrorMessage(err error) string {
	var conflict *voice.ConflictError

	switch {
	case errors.Is(err, voice.ErrQuotaExceeded):
		return "Your daily Talk with Bot is Over. See ya next day!"
	case errors.As(err, &conflict):
		holder := tc.presence.DisplayName(conflict.OwnerID)
		return fmt.Sprintf("%s is currently using voice. Try again later.", holder)
	case errors.Is(err, voice.ErrLockConflict):
		return "Someone else is currently using voice. Try again later."
	case errors.Is(err, voice.ErrNoVoicePresence):
		return "You need to be **in a voice channel** first."
	case errors.Is(err, voice.ErrBackend):
		return fmt.Sprintf("Chat backend error: `%v`", err)
	case errors.Is(err, speech.ErrTTSUnavailable), errors.Is(err, voice.ErrSynthesis):
		return fmt.Sprintf("TTS error: `%v`", err)
	case errors.Is(err, voice.ErrConnection):
		return "Could not connect to your voice channel. Try again later."
	case errors.Is(err, voice.ErrPlayback):
		return fmt.Sprintf("Playback error: `%v`", err)
	default:
		return fmt.Sprintf("Error: `%v`", err)
	}
}

// statusMessage renders the lock state for /talk status.
func statusMessage(st voice.LockState, holder string) string {
	if !st.Held {
		return "No one is using the voice right now."
	}
	remaining := int(st.Remaining.Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("%s holds the voice lock. Auto-release in **%d sec** if idle.", holder, remaining)
}

// interactionUserID extracts the user ID from an interaction, handling
// both guild (Member) and DM (User) contexts.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// subOptionString extracts a string option from the first subcommand of an
// interaction, or returns "".
func subOptionString(i *discordgo.InteractionCreate, name string) string {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return ""
	}
	for _, opt := range data.Options[0].Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}
