package cogs

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"arki-bot/utils"
)

// DiscordAnnouncer posts vote results and grants the top voter role
type DiscordAnnouncer struct {
	session *discordgo.Session
}

// NewDiscordAnnouncer creates an announcer on session
func NewDiscordAnnouncer(session *discordgo.Session) *DiscordAnnouncer {
	return &DiscordAnnouncer{session: session}
}

// AllowedMentions lets a message ping users, and everyone only when asked
func AllowedMentions(pingEveryone bool) *discordgo.MessageAllowedMentions {
	parse := []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}
	if pingEveryone {
		parse = append(parse, discordgo.AllowedMentionTypeEveryone)
	}
	return &discordgo.MessageAllowedMentions{Parse: parse}
}

// PostMessages sends chunks in order and stops at the first failure
func (a *DiscordAnnouncer) PostMessages(ctx context.Context, channelID string, chunks []string, pingEveryone bool) error {
	if channelID == "" {
		return fmt.Errorf("no channel configured")
	}
	for n, chunk := range chunks {
		msg := &discordgo.MessageSend{
			Content:         chunk,
			AllowedMentions: AllowedMentions(pingEveryone && n == 0),
		}
		err := utils.DiscordOpt.Do(ctx, "announce_send", func() error {
			_, err := a.session.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to send message %d/%d to %s: %w", n+1, len(chunks), channelID, err)
		}
	}
	return nil
}

// GrantRole adds a role to a member
func (a *DiscordAnnouncer) GrantRole(ctx context.Context, guildID, memberID, roleID string) error {
	return utils.DiscordOpt.DoWithRetry(ctx, "grant_role", 2, func() error {
		return a.session.GuildMemberRoleAdd(guildID, memberID, roleID, discordgo.WithContext(ctx))
	})
}
