package votes

import (
	"fmt"
	"strings"

	"arki-bot/models"
)

// LotRanks is how many top places receive physical lots
const LotRanks = 3

const draftBotTemplate = `/admininventaire donner membre:%s objet:"%s" quantité:%d`

// Mention returns a Discord mention for a resolved result, the raw player name otherwise
func Mention(r models.PayoutResult) string {
	if r.MemberID != "" {
		return "<@" + r.MemberID + ">"
	}
	return r.PlayerName
}

// FormatLot renders a lot as "item xqty, item xqty"
func FormatLot(items []models.LotItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s x%d", it.Item, it.Quantity)
	}
	return strings.Join(parts, ", ")
}

// DraftBotCommands lists the inventory commands an admin pastes to hand out the lots
// of the top places, one command per item
func DraftBotCommands(results []models.PayoutResult, lots map[int][]models.LotItem) []string {
	var commands []string
	for _, r := range results {
		if r.Rank > LotRanks {
			break
		}
		for _, it := range lots[r.Rank] {
			commands = append(commands, fmt.Sprintf(draftBotTemplate, Mention(r), it.Item, it.Quantity))
		}
	}
	return commands
}
