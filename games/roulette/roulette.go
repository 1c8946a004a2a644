package roulette

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"arki-bot/utils"
)

const (
	// animatedFrames bounds the number of edits of one spin, interaction edits are rate limited
	animatedFrames = 10
	frameDelay     = 400 * time.Millisecond
)

// RegisterRouletteCommands returns the wheel slash commands
func RegisterRouletteCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "roulette", Description: "Lance la roue de la chance Arki (Admin et Modo)"},
		{
			Name:        "set-choices",
			Description: "Modifie le titre et les choix de la roulette (Admin et Modo)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "title",
					Description: fmt.Sprintf("Le titre au centre (max %d caractères)", MaxTitleLength),
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "choices",
					Description: "Les choix séparés par des virgules (ex: Choix1,Choix2,Choix3)",
					Required:    true,
				},
			},
		},
		{Name: "show-choices", Description: "Affiche les choix actuels de la roulette"},
	}
}

// Animate spins the wheel in the deferred interaction response and returns the winning index
func Animate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, title string, choices []string, footer string) (int, error) {
	wheel, err := NewWheel(choices)
	if err != nil {
		return -1, err
	}
	winner := wheel.PickWinner()
	frames := SampleFrames(wheel.Spin(winner), animatedFrames)

	for n, f := range frames {
		embed := utils.CreateBrandedEmbed("🎰 Roulette "+title, wheel.RenderFrame(title, f), utils.ColorRoulette)
		if f.Settled {
			embed.Title = "🎰 Roulette " + title + " ─ Résultat"
			embed.Description += fmt.Sprintf("\n\n🎉 **Résultat :** %s", choices[winner])
			embed.Color = utils.ColorSuccess
			if footer != "" {
				embed.Footer.Text = footer
			}
		}
		if err := utils.EditOriginalInteraction(s, i, embed, nil); err != nil {
			return winner, fmt.Errorf("failed to draw frame %d: %w", n, err)
		}
		if f.Settled {
			break
		}
		select {
		case <-time.After(frameDelay):
		case <-ctx.Done():
			return winner, ctx.Err()
		}
	}
	return winner, nil
}

func interactionUser(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return "?"
}

// HandleRouletteCommand spins the configured wheel
func HandleRouletteCommand(s *discordgo.Session, i *discordgo.InteractionCreate, configs *ConfigStore) {
	ctx := context.Background()
	cfg, err := configs.Load(ctx)
	if err != nil {
		utils.BotErrorf("ROULETTE", "%v", err)
	}
	if err := ValidateChoices(cfg.Choices); err != nil {
		if err := utils.SendInteractionResponse(s, i, utils.ErrorEmbed("La roulette a besoin de 2 à 12 choix, utilise /set-choices."), nil, true); err != nil {
			utils.BotLogf("DISCORD_API", "SendInteractionResponse failed: %v", err)
		}
		return
	}

	if err := utils.DeferInteractionResponse(s, i, false); err != nil {
		utils.BotErrorf("ROULETTE", "Failed to defer: %v", err)
		return
	}

	user := interactionUser(i)
	winner, err := Animate(ctx, s, i, cfg.Title, cfg.Choices, "Lancé par "+user)
	if err != nil {
		utils.BotErrorf("ROULETTE", "Spin failed: %v", err)
		if err := utils.EditOriginalText(s, i, "❌ Une erreur est survenue lors de la roulette."); err != nil {
			utils.BotLogf("DISCORD_API", "EditOriginalText failed: %v", err)
		}
		return
	}
	utils.BotLogf("ROULETTE", "Spun by %s, result: %s", user, cfg.Choices[winner])
}

// HandleSetChoicesCommand replaces the title and choices
func HandleSetChoicesCommand(s *discordgo.Session, i *discordgo.InteractionCreate, configs *ConfigStore) {
	var title, raw string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "title":
			title = opt.StringValue()
		case "choices":
			raw = opt.StringValue()
		}
	}

	cfg, err := configs.Load(context.Background())
	if err != nil {
		utils.BotErrorf("ROULETTE", "%v", err)
	}
	cfg.Title = title
	cfg.Choices = ParseChoices(raw, ",")

	cfg, err = configs.Save(context.Background(), cfg)
	if err != nil {
		if err := utils.SendInteractionResponse(s, i, utils.ErrorEmbed(ConfigErrorMessage(err)), nil, true); err != nil {
			utils.BotLogf("DISCORD_API", "SendInteractionResponse failed: %v", err)
		}
		return
	}

	embed := utils.SuccessEmbed("✅ Choix mis à jour",
		fmt.Sprintf("**%s**\n**%d nouveaux choix :**\n%s", cfg.Title, len(cfg.Choices), numberedList(cfg.Choices)))
	if err := utils.SendInteractionResponse(s, i, embed, nil, false); err != nil {
		utils.BotLogf("DISCORD_API", "SendInteractionResponse failed: %v", err)
	}
}

// HandleShowChoicesCommand lists the current choices
func HandleShowChoicesCommand(s *discordgo.Session, i *discordgo.InteractionCreate, configs *ConfigStore) {
	cfg, err := configs.Load(context.Background())
	if err != nil {
		utils.BotErrorf("ROULETTE", "%v", err)
	}
	description := numberedList(cfg.Choices)
	if description == "" {
		description = "Aucun choix configuré."
	}
	embed := utils.CreateBrandedEmbed("📋 Choix actuels de la roulette ─ "+cfg.Title, description, utils.ColorRoulette)
	embed.Footer.Text = fmt.Sprintf("%d choix au total", len(cfg.Choices))
	if err := utils.SendInteractionResponse(s, i, embed, nil, false); err != nil {
		utils.BotLogf("DISCORD_API", "SendInteractionResponse failed: %v", err)
	}
}

func numberedList(items []string) string {
	lines := make([]string, len(items))
	for n, c := range items {
		lines[n] = fmt.Sprintf("%d. %s", n+1, c)
	}
	return strings.Join(lines, "\n")
}

// ConfigErrorMessage turns a validation error into the French user message
func ConfigErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrTooFewChoices):
		return fmt.Sprintf("Vous devez fournir au moins %d choix !", MinChoices)
	case errors.Is(err, ErrTooManyChoices):
		return fmt.Sprintf("Maximum %d choix autorisés !", MaxChoices)
	case errors.Is(err, ErrEmptyTitle):
		return "Le titre ne peut pas être vide."
	case errors.Is(err, ErrTitleTooLong):
		return fmt.Sprintf("Le titre ne doit pas dépasser %d caractères.", MaxTitleLength)
	}
	return "Impossible d'enregistrer la configuration."
}
