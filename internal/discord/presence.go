package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/tarahq/tara/internal/voice"
)

// GuildPresence answers voice-channel membership and display-name queries
// from the gateway state cache. It never hits the REST API: when the cache
// has no member record it falls back to a mention string, which Discord
// renders as the member's name anyway.
type GuildPresence struct {
	session *discordgo.Session
	guildID string
}

var _ voice.Presence = (*GuildPresence)(nil)

// NewGuildPresence creates a presence view over the given session's state
// cache for one guild.
func NewGuildPresence(session *discordgo.Session, guildID string) *GuildPresence {
	return &GuildPresence{session: session, guildID: guildID}
}

// VoiceChannelOf returns the voice channel the user currently occupies in
// the guild, or ok=false when they are not connected to voice.
func (p *GuildPresence) VoiceChannelOf(userID string) (string, bool) {
	guild, err := p.session.State.Guild(p.guildID)
	if err != nil {
		return "", false
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, true
		}
	}
	return "", false
}

// DisplayName returns the member's nickname, global name, or username, in
// that order of preference. Unknown members come back as a mention.
func (p *GuildPresence) DisplayName(userID string) string {
	member, err := p.session.State.Member(p.guildID, userID)
	if err != nil || member == nil {
		return "<@" + userID + ">"
	}
	if member.Nick != "" {
		return member.Nick
	}
	if member.User != nil {
		if member.User.GlobalName != "" {
			return member.User.GlobalName
		}
		if member.User.Username != "" {
			return member.User.Username
		}
	}
	return "<@" + userID + ">"
}
