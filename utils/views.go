package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// ComponentHandler represents a function that handles component interactions
type ComponentHandler func(*discordgo.Session, *discordgo.InteractionCreate) error

// ComponentManager routes component interactions by custom ID prefix.
// Custom IDs carry arguments after a colon, e.g. "votes_full:<channel>:<page>".
type ComponentManager struct {
	handlers map[string]ComponentHandler
	mutex    sync.RWMutex
}

// NewComponentManager creates an empty router
func NewComponentManager() *ComponentManager {
	return &ComponentManager{handlers: make(map[string]ComponentHandler)}
}

// RegisterHandler registers a component handler for a custom ID prefix
func (cm *ComponentManager) RegisterHandler(prefix string, handler ComponentHandler) {
	cm.mutex.Lock()
	cm.handlers[prefix] = handler
	cm.mutex.Unlock()
}

// HandleInteraction dispatches a component interaction to its handler
func (cm *ComponentManager) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	customID := i.MessageComponentData().CustomID
	prefix, _ := SplitCustomID(customID)

	cm.mutex.RLock()
	handler, exists := cm.handlers[prefix]
	cm.mutex.RUnlock()
	if !exists {
		return fmt.Errorf("no handler registered for component: %s", customID)
	}

	return handler(s, i)
}

// SplitCustomID separates the routing prefix from its colon-separated arguments
func SplitCustomID(customID string) (string, []string) {
	parts := strings.Split(customID, ":")
	return parts[0], parts[1:]
}

// CreateActionRow creates an action row with buttons
func CreateActionRow(buttons ...discordgo.MessageComponent) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: buttons,
	}
}

// CreateButton creates a button component
func CreateButton(customID, label string, style discordgo.ButtonStyle, disabled bool, emoji *discordgo.ComponentEmoji) discordgo.MessageComponent {
	button := discordgo.Button{
		CustomID: customID,
		Label:    label,
		Style:    style,
		Disabled: disabled,
	}

	if emoji != nil {
		button.Emoji = emoji
	}

	return button
}

// PaginationView creates a view for paginated content
func PaginationView(prevID, nextID string, currentPage, totalPages int) []discordgo.MessageComponent {
	prevDisabled := currentPage <= 1
	nextDisabled := currentPage >= totalPages

	return []discordgo.MessageComponent{
		CreateActionRow(
			CreateButton(
				prevID,
				"Précédent",
				discordgo.SecondaryButton,
				prevDisabled,
				&discordgo.ComponentEmoji{Name: "⬅️"},
			),
			CreateButton(
				"page_info",
				fmt.Sprintf("%d/%d", currentPage, totalPages),
				discordgo.SecondaryButton,
				true, // Always disabled - just for info
				nil,
			),
			CreateButton(
				nextID,
				"Suivant",
				discordgo.SecondaryButton,
				nextDisabled,
				&discordgo.ComponentEmoji{Name: "➡️"},
			),
		),
	}
}

// SendInteractionResponse sends an interaction response with embed and components
func SendInteractionResponse(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)},
		Components: components,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	err := DiscordOpt.Do(context.Background(), "SendInteractionResponse", func() error {
		return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
	})
	if err != nil {
		BotLogf("DISCORD_API", "SendInteractionResponse failed: %v", err)
	}
	return err
}

// RespondText answers an interaction with plain content
func RespondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// DeferInteractionResponse defers an interaction response
func DeferInteractionResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	}

	return s.InteractionRespond(i.Interaction, response)
}

// EditOriginalInteraction edits the original interaction response (slash command message)
func EditOriginalInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	edit := &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)},
		Components: &components,
	}
	// Edits are idempotent, so transient failures are retried
	return DiscordOpt.DoWithRetry(context.Background(), "EditOriginalInteraction", 2, func() error {
		_, err := s.InteractionResponseEdit(i.Interaction, edit)
		return err
	})
}

// EditOriginalText replaces the content of a deferred response
func EditOriginalText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	if err != nil && isWebhookExpiredError(err) {
		BotLogf("DISCORD_API", "Interaction token expired, dropping edit")
	}
	return err
}

// UpdateComponentInteraction updates the message a component belongs to
func UpdateComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)},
			Components: components,
		},
	}

	return s.InteractionRespond(i.Interaction, response)
}

// SendFollowupMessage sends a followup message
func SendFollowupMessage(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) error {
	params := &discordgo.WebhookParams{
		Embeds:     []*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)},
		Components: components,
	}
	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}

	return DiscordOpt.Do(context.Background(), "SendFollowupMessage", func() error {
		_, err := s.FollowupMessageCreate(i.Interaction, true, params)
		return err
	})
}

// TryEphemeralFollowup attempts to send a small ephemeral notice if an update failed.
// It ignores errors (e.g., if the token interaction no longer valid).
func TryEphemeralFollowup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	params := &discordgo.WebhookParams{Content: content, Flags: discordgo.MessageFlagsEphemeral}
	if _, err := s.FollowupMessageCreate(i.Interaction, true, params); err != nil && !isWebhookExpiredError(err) {
		BotLogf("DISCORD_API", "Ephemeral followup failed: %v", err)
	}
}

// isNonRetryableError checks if an error should not be retried
func isNonRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsUnknownMessageError(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Unknown Webhook") ||
		strings.Contains(msg, "\"code\": 10015") ||
		strings.Contains(msg, "Unknown interaction") ||
		strings.Contains(msg, "400") // Bad request won't get better with retry
}

// isWebhookExpiredError checks if the error indicates an expired webhook
func isWebhookExpiredError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Unknown Webhook") ||
		strings.Contains(msg, "\"code\": 10015") ||
		strings.Contains(msg, "404") ||
		strings.Contains(msg, "Unknown interaction")
}

// IsUnknownMessageError reports whether Discord says the message no longer exists
func IsUnknownMessageError(err error) bool {
	if err == nil {
		return false
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
			return true
		}
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return true
		}
	}
	return strings.Contains(err.Error(), "Unknown Message") ||
		strings.Contains(err.Error(), "\"code\": 10008")
}

// BotLogf provides centralized formatted logging tagged with a functional area
func BotLogf(area string, format string, args ...interface{}) {
	slog.Info(fmt.Sprintf(format, args...), "area", area)
}

// BotErrorf logs a failure tagged with a functional area
func BotErrorf(area string, format string, args ...interface{}) {
	slog.Error(fmt.Sprintf(format, args...), "area", area)
}

// OptimizeEmbedPayload ensures embed payload is minimal and efficiently structured
func OptimizeEmbedPayload(embed *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	if embed == nil {
		return embed
	}

	// Create optimized copy
	optimized := &discordgo.MessageEmbed{
		Title:       strings.TrimSpace(embed.Title),
		Description: strings.TrimSpace(embed.Description),
		Color:       embed.Color,
		Timestamp:   embed.Timestamp,
	}

	// Only include footer if it has content
	if embed.Footer != nil && strings.TrimSpace(embed.Footer.Text) != "" {
		optimized.Footer = &discordgo.MessageEmbedFooter{
			Text:    strings.TrimSpace(embed.Footer.Text),
			IconURL: embed.Footer.IconURL,
		}
	}

	// Only include thumbnail if URL is present
	if embed.Thumbnail != nil && embed.Thumbnail.URL != "" {
		optimized.Thumbnail = embed.Thumbnail
	}

	// Only include image if URL is present
	if embed.Image != nil && embed.Image.URL != "" {
		optimized.Image = embed.Image
	}

	// Optimize fields - remove empty ones and trim whitespace
	for _, field := range embed.Fields {
		if field != nil && strings.TrimSpace(field.Name) != "" && strings.TrimSpace(field.Value) != "" {
			optimized.Fields = append(optimized.Fields, &discordgo.MessageEmbedField{
				Name:   strings.TrimSpace(field.Name),
				Value:  strings.TrimSpace(field.Value),
				Inline: field.Inline,
			})
		}
	}

	return optimized
}
