package cogs

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"arki-bot/models"
	"arki-bot/utils"
)

// DiscordRoster lists guild members through the REST API.
// Requires the privileged GuildMembers intent.
type DiscordRoster struct {
	session *discordgo.Session
	guildID func(ctx context.Context) string
}

// NewDiscordRoster creates a roster. guildID is resolved on every call so a settings
// change takes effect without a restart.
func NewDiscordRoster(session *discordgo.Session, guildID func(ctx context.Context) string) *DiscordRoster {
	return &DiscordRoster{session: session, guildID: guildID}
}

// MemberFromDiscord maps a Discord member, display name first
func MemberFromDiscord(m *discordgo.Member) models.Member {
	if m == nil || m.User == nil {
		return models.Member{}
	}
	display := m.Nick
	if display == "" {
		display = m.User.GlobalName
	}
	if display == "" {
		display = m.User.Username
	}
	return models.NewMember(m.User.ID, display, m.User.Username, m.User.GlobalName, m.Nick)
}

// Members pages through the whole guild
func (r *DiscordRoster) Members(ctx context.Context) ([]models.Member, error) {
	guildID := r.guildID(ctx)
	if guildID == "" {
		return nil, fmt.Errorf("no guild configured")
	}

	var members []models.Member
	after := ""
	for {
		var page []*discordgo.Member
		err := utils.DiscordOpt.DoWithRetry(ctx, "guild_members", 2, func() error {
			var err error
			page, err = r.session.GuildMembers(guildID, after, utils.GuildMembersPageSize, discordgo.WithContext(ctx))
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list members of %s after %q: %w", guildID, after, err)
		}

		for _, m := range page {
			if m.User == nil || m.User.Bot {
				continue
			}
			members = append(members, MemberFromDiscord(m))
		}
		if len(page) < utils.GuildMembersPageSize {
			break
		}
		after = page[len(page)-1].User.ID
	}

	utils.BotLogf("VOTES", "Roster loaded: %d members", len(members))
	return members, nil
}
