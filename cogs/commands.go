package cogs

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"arki-bot/catalogue"
	"arki-bot/games/roulette"
	"arki-bot/utils"
	"arki-bot/votes"
)

// Bot holds everything the slash commands need
type Bot struct {
	settings   *utils.SettingsManager
	runner     *votes.Runner
	dinos      *catalogue.DinoCatalogue
	shop       *catalogue.ShopCatalogue
	roulette   *roulette.ConfigStore
	components *utils.ComponentManager
}

// NewBot creates the command handlers and registers the component routes
func NewBot(settings *utils.SettingsManager, runner *votes.Runner, dinos *catalogue.DinoCatalogue, shop *catalogue.ShopCatalogue, rouletteConfigs *roulette.ConfigStore) *Bot {
	b := &Bot{
		settings:   settings,
		runner:     runner,
		dinos:      dinos,
		shop:       shop,
		roulette:   rouletteConfigs,
		components: utils.NewComponentManager(),
	}
	b.components.RegisterHandler(fullListPrefix, b.handleFullList)
	b.components.RegisterHandler(fullListPagePrefix, b.handleFullListPage)
	return b
}

// Commands returns every slash command of the bot
func Commands() []*discordgo.ApplicationCommand {
	commands := roulette.RegisterRouletteCommands()
	commands = append(commands, RegisterVotesCommands()...)
	commands = append(commands, RegisterCatalogueCommands()...)
	return commands
}

// RegisterCommands creates the commands on the guild, or globally when guildID is empty.
// appID falls back to the logged in user.
func (b *Bot) RegisterCommands(s *discordgo.Session, appID, guildID string) error {
	if appID == "" {
		appID = s.State.User.ID
	}
	commands := Commands()
	for _, command := range commands {
		if _, err := s.ApplicationCommandCreate(appID, guildID, command); err != nil {
			return fmt.Errorf("failed to create command %s: %w", command.Name, err)
		}
	}
	utils.BotLogf("DISCORD_API", "Successfully registered %d slash commands", len(commands))
	return nil
}

// publicCommands can be used by every member
var publicCommands = map[string]bool{
	"show-choices": true,
}

// IsStaff reports whether a member is an administrator or holds the moderator role
func IsStaff(member *discordgo.Member, modoRoleID string) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if modoRoleID == "" {
		return false
	}
	for _, role := range member.Roles {
		if role == modoRoleID {
			return true
		}
	}
	return false
}

// OnInteractionCreate routes slash commands and components
func (b *Bot) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.onCommand(s, i)
	case discordgo.InteractionMessageComponent:
		if err := b.components.HandleInteraction(s, i); err != nil {
			utils.BotErrorf("DISCORD_API", "Component %s failed: %v", i.MessageComponentData().CustomID, err)
		}
	}
}

func (b *Bot) onCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	if !publicCommands[name] {
		settings := b.settings.Load(context.Background())
		if !IsStaff(i.Member, settings.Guild.ModoRoleID) {
			if err := utils.RespondText(s, i, utils.NotAuthorizedMessage, true); err != nil {
				utils.BotLogf("DISCORD_API", "RespondText failed: %v", err)
			}
			return
		}
	}

	switch name {
	case "roulette":
		roulette.HandleRouletteCommand(s, i, b.roulette)
	case "set-choices":
		roulette.HandleSetChoicesCommand(s, i, b.roulette)
	case "show-choices":
		roulette.HandleShowChoicesCommand(s, i, b.roulette)
	case "votes":
		b.handleVotesCommand(s, i)
	case "test-votes":
		b.handleVoteRun(s, i, votes.ModePreview)
	case "pay-votes":
		b.handleVoteRun(s, i, votes.ModePay)
	case "publish-votes":
		b.handleVoteRun(s, i, votes.ModePublish)
	case "dino-roulette":
		b.handleDinoRoulette(s, i)
	case "publish-dinos":
		b.handlePublishDinos(s, i)
	case "publish-shop":
		b.handlePublishShop(s, i)
	default:
		utils.BotLogf("DISCORD_API", "Unknown command %s", name)
	}
}

func optionString(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
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
