package catalogue

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"arki-bot/utils"
)

// DiscordChannel sends catalogue pages as embeds through a bot session
type DiscordChannel struct {
	session *discordgo.Session
}

// NewDiscordChannel wraps a session as a MessageChannel
func NewDiscordChannel(session *discordgo.Session) *DiscordChannel {
	return &DiscordChannel{session: session}
}

// PageEmbed builds the embed of one page
func PageEmbed(page Page) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Description: page.Content,
		Color:       page.Color,
	}
	if page.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: page.Footer}
	}
	return embed
}

// Send posts a page and returns the new message id
func (c *DiscordChannel) Send(ctx context.Context, channelID string, page Page) (string, error) {
	var msg *discordgo.Message
	err := utils.DiscordOpt.Do(ctx, "catalogue_send", func() error {
		var err error
		msg, err = c.session.ChannelMessageSendEmbed(channelID, PageEmbed(page), discordgo.WithContext(ctx))
		return err
	})
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", fmt.Errorf("discord returned no message")
	}
	return msg.ID, nil
}

// Delete removes a message
func (c *DiscordChannel) Delete(ctx context.Context, channelID, messageID string) error {
	return utils.DiscordOpt.Do(ctx, "catalogue_delete", func() error {
		return c.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	})
}
