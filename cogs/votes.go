package cogs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"arki-bot/games/roulette"
	"arki-bot/models"
	"arki-bot/utils"
	"arki-bot/votes"
)

const (
	fullListPrefix     = "votes_full"
	fullListPagePrefix = "votes_page"
	fullListPerPage    = 20

	// a run credits players one by one, the interaction token lasts 15 minutes
	voteRunTimeout = 10 * time.Minute
	dinoChoices    = 10
)

// RegisterVotesCommands returns the vote slash commands
func RegisterVotesCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "votes", Description: "Affiche le classement des votes du mois dernier (Admin et Modo)"},
		{Name: "test-votes", Description: "Simule la distribution des votes sans rien créditer (Admin et Modo)"},
		{Name: "pay-votes", Description: "Crédite les diamants des votes sans annonce publique (Admin et Modo)"},
		{Name: "publish-votes", Description: "Crédite les diamants et publie les résultats des votes (Admin et Modo)"},
		{Name: "dino-roulette", Description: "Tire le Dino Shiny parmi le top 10 des votants (Admin et Modo)"},
	}
}

// RankingEmbed shows the top of the ranking with the diamonds each rank would earn
func RankingEmbed(ranking []models.RankingEntry, cfg votes.RewardConfig, displayTop int) *discordgo.MessageEmbed {
	if displayTop <= 0 {
		displayTop = 10
	}
	lines := make([]string, 0, displayTop)
	for n, entry := range ranking {
		if n >= displayTop {
			break
		}
		amount := cfg.AmountFor(n+1, entry.Votes)
		lines = append(lines, fmt.Sprintf("**%d.** %s ─ %d votes ─ %s 💎", n+1, entry.PlayerName, entry.Votes, utils.FormatNumber(amount)))
	}
	description := strings.Join(lines, "\n")
	if description == "" {
		description = "Aucun vote enregistré."
	}
	embed := utils.CreateBrandedEmbed("🗳️ Classement des votes", description, utils.ColorVotes)
	embed.Footer.Text = fmt.Sprintf("%s ─ %d votants", utils.BrandName, len(ranking))
	return embed
}

// ReportEmbed summarizes a vote run
func ReportEmbed(report *votes.Report) *discordgo.MessageEmbed {
	description := votes.AdminSummary(report.MonthName, report.Distribution)
	if len(report.Warnings) > 0 {
		description += "\n\n⚠️ " + strings.Join(report.Warnings, "\n⚠️ ")
	}
	color := utils.ColorSuccess
	switch {
	case report.Mode == votes.ModePreview:
		color = utils.ColorVotes
	case len(report.Warnings) > 0 || report.Distribution.Summary.Failed > 0:
		color = utils.ColorWarning
	}
	description = utils.TruncateRunes(description, utils.MaxEmbedDescription)
	return utils.CreateBrandedEmbed("🗳️ Votes ─ "+report.MonthName, description, color)
}

// ReportFallbackText is the plain outcome sent when the report embed cannot be shown
func ReportFallbackText(report *votes.Report) string {
	summary := report.Distribution.Summary
	return fmt.Sprintf("Distribution %s terminée : ✅ %d ❌ %d ❓ %d. Le détail est dans le log admin.",
		report.Mode, summary.Success, summary.Failed, len(summary.NotFoundNames))
}

// ReportComponents holds the full list button of a report
func ReportComponents(scope string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		utils.CreateActionRow(utils.CreateButton(
			fullListPrefix+":"+scope,
			"Liste complète",
			discordgo.PrimaryButton,
			false,
			&discordgo.ComponentEmoji{Name: "📋"},
		)),
	}
}

// FullListView renders one page of the full list; page is 1-based and clamped
func FullListView(report *votes.Report, scope string, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	pages := votes.FullListPages(report, fullListPerPage)
	if len(pages) == 0 {
		return utils.CreateBrandedEmbed("📋 Liste complète ─ "+report.MonthName, "Aucun votant.", utils.ColorVotes), nil
	}
	page = max(1, min(page, len(pages)))

	embed := utils.CreateBrandedEmbed("📋 Liste complète ─ "+report.MonthName, pages[page-1], utils.ColorVotes)
	embed.Footer.Text = fmt.Sprintf("%s ─ Page %d/%d", utils.BrandName, page, len(pages))
	components := utils.PaginationView(
		fmt.Sprintf("%s:%s:%d", fullListPagePrefix, scope, page-1),
		fmt.Sprintf("%s:%s:%d", fullListPagePrefix, scope, page+1),
		page,
		len(pages),
	)
	return embed, components
}

// UpstreamErrorMessage maps a run failure to the message shown to the user
func UpstreamErrorMessage(err error) string {
	switch {
	case errors.Is(err, votes.ErrRankingUnavailable):
		return utils.RankingUnavailableMessage
	case errors.Is(err, votes.ErrRosterUnavailable):
		return utils.RosterUnavailableMessage
	}
	return "❌ Une erreur est survenue pendant la distribution des votes."
}

func (b *Bot) handleVotesCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := utils.DeferInteractionResponse(s, i, false); err != nil {
		utils.BotErrorf("VOTES", "Failed to defer: %v", err)
		return
	}
	ctx := context.Background()
	ranking, err := b.runner.Ranking(ctx)
	if err != nil {
		utils.BotErrorf("VOTES", "%v", err)
		if err := utils.EditOriginalText(s, i, UpstreamErrorMessage(err)); err != nil {
			utils.BotLogf("DISCORD_API", "EditOriginalText failed: %v", err)
		}
		return
	}
	settings := b.settings.Load(ctx)
	embed := RankingEmbed(ranking, votes.RewardConfigFromSettings(settings), settings.Rewards.DisplayTop)
	if err := utils.EditOriginalInteraction(s, i, embed, nil); err != nil {
		utils.BotLogf("DISCORD_API", "EditOriginalInteraction failed: %v", err)
	}
}

func (b *Bot) handleVoteRun(s *discordgo.Session, i *discordgo.InteractionCreate, mode votes.Mode) {
	if err := utils.DeferInteractionResponse(s, i, false); err != nil {
		utils.BotErrorf("VOTES", "Failed to defer: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), voteRunTimeout)
	defer cancel()

	utils.BotLogf("VOTES", "%s started by %s", mode, interactionUser(i))
	scope := i.ChannelID
	report, err := b.runner.Run(ctx, mode, scope)
	if err != nil {
		utils.BotErrorf("VOTES", "Run %s failed: %v", mode, err)
		if err := utils.EditOriginalText(s, i, UpstreamErrorMessage(err)); err != nil {
			utils.BotLogf("DISCORD_API", "EditOriginalText failed: %v", err)
		}
		return
	}
	if err := utils.EditOriginalInteraction(s, i, ReportEmbed(report), ReportComponents(scope)); err != nil {
		utils.BotLogf("DISCORD_API", "Vote report edit failed: %v", err)
		utils.TryEphemeralFollowup(s, i, ReportFallbackText(report))
	}
}

func (b *Bot) handleFullList(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, args := utils.SplitCustomID(i.MessageComponentData().CustomID)
	if len(args) < 1 {
		return fmt.Errorf("malformed custom id %q", i.MessageComponentData().CustomID)
	}
	report, ok := b.runner.Reports().Get(args[0])
	if !ok {
		return utils.RespondText(s, i, utils.ReportExpiredMessage, true)
	}
	embed, components := FullListView(report, args[0], 1)
	return utils.SendInteractionResponse(s, i, embed, components, true)
}

func (b *Bot) handleFullListPage(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	_, args := utils.SplitCustomID(i.MessageComponentData().CustomID)
	if len(args) < 2 {
		return fmt.Errorf("malformed custom id %q", i.MessageComponentData().CustomID)
	}
	page, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad page in %q: %w", i.MessageComponentData().CustomID, err)
	}
	report, ok := b.runner.Reports().Get(args[0])
	if !ok {
		return utils.RespondText(s, i, utils.ReportExpiredMessage, true)
	}
	embed, components := FullListView(report, args[0], page)
	if err := utils.UpdateComponentInteraction(s, i, embed, components); err != nil {
		utils.TryEphemeralFollowup(s, i, "Impossible de changer de page, relance la commande.")
		return err
	}
	return nil
}

// DinoChoices keeps the first names of the ranking as wheel choices
func DinoChoices(ranking []models.RankingEntry, n int) []string {
	choices := make([]string, 0, n)
	for _, entry := range ranking {
		if len(choices) >= n {
			break
		}
		choices = append(choices, entry.PlayerName)
	}
	return choices
}

func (b *Bot) handleDinoRoulette(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := utils.DeferInteractionResponse(s, i, false); err != nil {
		utils.BotErrorf("ROULETTE", "Failed to defer: %v", err)
		return
	}
	ctx := context.Background()
	ranking, err := b.runner.Ranking(ctx)
	if err != nil {
		utils.BotErrorf("ROULETTE", "%v", err)
		if err := utils.EditOriginalText(s, i, UpstreamErrorMessage(err)); err != nil {
			utils.BotLogf("DISCORD_API", "EditOriginalText failed: %v", err)
		}
		return
	}
	choices := DinoChoices(ranking, dinoChoices)
	if len(choices) < roulette.MinChoices {
		if err := utils.EditOriginalText(s, i, "❌ Pas assez de votants pour tirer le Dino Shiny."); err != nil {
			utils.BotLogf("DISCORD_API", "EditOriginalText failed: %v", err)
		}
		return
	}

	settings := b.settings.Load(ctx)
	winner, err := roulette.Animate(ctx, s, i, settings.Message.DinoTitle, choices, "Lancé par "+interactionUser(i))
	if err != nil {
		utils.BotErrorf("ROULETTE", "Dino spin failed: %v", err)
		if err := utils.EditOriginalText(s, i, "❌ Une erreur est survenue lors de la roulette."); err != nil {
			utils.BotLogf("DISCORD_API", "EditOriginalText failed: %v", err)
		}
		return
	}

	utils.BotLogf("ROULETTE", "Dino shiny won by %s", choices[winner])
	embed := utils.SuccessEmbed("🦖 Dino Shiny", fmt.Sprintf("**%s**\n%s", choices[winner], settings.Message.DinoWinText))
	if err := utils.SendFollowupMessage(s, i, embed, nil, false); err != nil {
		utils.BotLogf("DISCORD_API", "SendFollowupMessage failed: %v", err)
	}
}
