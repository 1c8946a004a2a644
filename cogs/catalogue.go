package cogs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"arki-bot/catalogue"
	"arki-bot/utils"
)

const publishTimeout = 5 * time.Minute

// RegisterCatalogueCommands returns the catalogue publishing commands
func RegisterCatalogueCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "publish-dinos",
			Description: "Publie la liste des prix des dinos (Admin et Modo)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "letter",
					Description: "Une seule lettre à republier (ex: A, ou MODDED)",
					Required:    false,
				},
			},
		},
		{
			Name:        "publish-shop",
			Description: "Publie le shop (Admin et Modo)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "category",
					Description: "Une seule catégorie à republier (ex: packs)",
					Required:    false,
				},
			},
		},
	}
}

// PublishResultEmbed summarizes a publish run
func PublishResultEmbed(title string, results []catalogue.GroupResult) *discordgo.MessageEmbed {
	if len(results) == 0 {
		return utils.CreateBrandedEmbed(title, "Rien à publier.", utils.ColorWarning)
	}

	lines := make([]string, 0, len(results))
	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			lines = append(lines, fmt.Sprintf("❌ **%s** ─ %s", catalogue.GroupLabel(r.GroupKey), r.ErrText()))
		case r.Removed:
			lines = append(lines, fmt.Sprintf("🗑️ **%s** ─ supprimé", catalogue.GroupLabel(r.GroupKey)))
		case r.Messages == 0:
			lines = append(lines, fmt.Sprintf("▫️ **%s** ─ vide", catalogue.GroupLabel(r.GroupKey)))
		default:
			lines = append(lines, fmt.Sprintf("✅ **%s** ─ %d message(s)", catalogue.GroupLabel(r.GroupKey), r.Messages))
		}
	}

	color := utils.ColorSuccess
	if failed > 0 {
		color = utils.ColorWarning
	}
	embed := utils.CreateBrandedEmbed(title, strings.Join(lines, "\n"), color)
	embed.Footer.Text = fmt.Sprintf("%s ─ %d groupe(s), %d échec(s)", utils.BrandName, len(results), failed)
	return embed
}

// PublishErrorMessage maps a publish failure to the message shown to the user
func PublishErrorMessage(err error) string {
	switch {
	case errors.Is(err, catalogue.ErrNoChannel):
		return "❌ Aucun salon de publication n'est configuré, règle-le depuis le dashboard."
	case errors.Is(err, catalogue.ErrItemNotFound):
		return "❌ Catégorie introuvable."
	}
	return "❌ La publication a échoué."
}

func (b *Bot) pageBudget(ctx context.Context) int {
	return catalogue.PageBudget(b.settings.Load(ctx))
}

func (b *Bot) handlePublishDinos(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := utils.DeferInteractionResponse(s, i, true); err != nil {
		utils.BotErrorf("CATALOGUE", "Failed to defer: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	var results []catalogue.GroupResult
	var err error
	if letter := strings.ToUpper(strings.TrimSpace(optionString(i, "letter"))); letter != "" {
		var result catalogue.GroupResult
		result, err = b.dinos.PublishGroup(ctx, letter, b.pageBudget(ctx))
		results = []catalogue.GroupResult{result}
	} else {
		results, err = b.dinos.PublishAll(ctx, b.pageBudget(ctx))
	}
	if err != nil {
		utils.BotErrorf("CATALOGUE", "Dino publish failed: %v", err)
		if err := utils.EditOriginalText(s, i, PublishErrorMessage(err)); err != nil {
			utils.BotLogf("DISCORD_API", "EditOriginalText failed: %v", err)
		}
		return
	}
	utils.BotLogf("CATALOGUE", "Dinos published by %s", interactionUser(i))
	if err := utils.EditOriginalInteraction(s, i, PublishResultEmbed("🦖 Publication des dinos", results), nil); err != nil {
		utils.BotLogf("DISCORD_API", "EditOriginalInteraction failed: %v", err)
	}
}

func (b *Bot) handlePublishShop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := utils.DeferInteractionResponse(s, i, true); err != nil {
		utils.BotErrorf("CATALOGUE", "Failed to defer: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	var results []catalogue.GroupResult
	var err error
	if category := strings.TrimSpace(optionString(i, "category")); category != "" {
		var result catalogue.GroupResult
		result, err = b.shop.PublishGroup(ctx, category, b.pageBudget(ctx))
		results = []catalogue.GroupResult{result}
	} else {
		results, err = b.shop.PublishAll(ctx, b.pageBudget(ctx))
	}
	if err != nil {
		utils.BotErrorf("CATALOGUE", "Shop publish failed: %v", err)
		if err := utils.EditOriginalText(s, i, PublishErrorMessage(err)); err != nil {
			utils.BotLogf("DISCORD_API", "EditOriginalText failed: %v", err)
		}
		return
	}
	utils.BotLogf("CATALOGUE", "Shop published by %s", interactionUser(i))
	if err := utils.EditOriginalInteraction(s, i, PublishResultEmbed("🛒 Publication du shop", results), nil); err != nil {
		utils.BotLogf("DISCORD_API", "EditOriginalInteraction failed: %v", err)
	}
}
