package votes

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"arki-bot/catalogue"
	"arki-bot/models"
	"arki-bot/utils"
)

var monthsFR = [12]string{
	"JANVIER", "FÉVRIER", "MARS", "AVRIL", "MAI", "JUIN",
	"JUILLET", "AOÛT", "SEPTEMBRE", "OCTOBRE", "NOVEMBRE", "DÉCEMBRE",
}

// MonthName returns the upper-case French name of a month
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return "INCONNU"
	}
	return monthsFR[m-1]
}

// PreviousMonthName names the month the ranking covers: the one before now in loc
func PreviousMonthName(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return MonthName(first.AddDate(0, -1, 0).Month())
}

// LoadLocation resolves the settings timezone, falling back to UTC
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		utils.BotErrorf("VOTES", "Unknown timezone %q, using UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

func placeIcon(style models.StyleSettings, rank int) string {
	if rank-1 < len(style.PlaceIcons) {
		return style.PlaceIcons[rank-1]
	}
	return fmt.Sprintf("**%d.**", rank)
}

func packText(msg models.MessageSettings, rank int) string {
	switch rank {
	case 1:
		return msg.Pack1Text
	case 2:
		return msg.Pack2Text
	case 3:
		return msg.Pack3Text
	}
	return ""
}

// BuildAnnouncement renders the public results message, split into chunks Discord accepts
func BuildAnnouncement(settings models.Settings, month string, d Distribution) []string {
	style, msg := settings.Style, settings.Message

	var lines []string
	if style.EveryonePing {
		lines = append(lines, "@everyone")
	}
	lines = append(lines,
		fmt.Sprintf("%s **RÉSULTATS DES VOTES DU MOIS DE %s** %s", style.Logo, month, style.Logo),
		"",
	)
	if msg.IntroText != "" {
		lines = append(lines, msg.IntroText, "")
	}

	top := settings.Rewards.DisplayTop
	if top <= 0 || top > len(d.Results) {
		top = len(d.Results)
	}
	lines = append(lines, fmt.Sprintf("%s **TOP %d VOTANTS** %s", style.Fireworks, top, style.Fireworks), "")

	for _, r := range d.Results[:top] {
		lines = append(lines, fmt.Sprintf("%s %s ─ **%d votes** %s %s %s",
			placeIcon(style, r.Rank), Mention(r), r.Votes, style.Arrow, utils.FormatNumber(r.Amount), style.Sparkly))
		if lot := settings.Rewards.TopLots[r.Rank]; len(lot) > 0 && r.Rank <= LotRanks {
			detail := FormatLot(lot)
			if p := packText(msg, r.Rank); p != "" {
				detail = p + " : " + detail
			}
			lines = append(lines, fmt.Sprintf("   %s %s", style.AnimeArrow, detail))
		}
	}
	lines = append(lines, "")

	if msg.CreditText != "" {
		lines = append(lines, msg.CreditText)
	}
	if msg.MemoText != "" && style.MemoURL != "" {
		lines = append(lines, fmt.Sprintf("%s [%s](%s)", style.AnimeArrow, msg.MemoText, style.MemoURL))
	}
	if msg.DinoShinyText != "" {
		lines = append(lines, "", msg.DinoShinyText)
	}

	return catalogue.SplitLines(strings.Join(lines, "\n"), utils.MaxMessageLength)
}

// AdminSummary is the short report posted to the admin log and shown to the caller
func AdminSummary(month string, d Distribution) string {
	var b strings.Builder
	title := "Distribution des votes"
	if d.DryRun {
		title = "Simulation des votes"
	}
	fmt.Fprintf(&b, "**%s ─ %s**\n", title, month)
	fmt.Fprintf(&b, "✅ Crédités : %d\n", d.Summary.Success)
	fmt.Fprintf(&b, "❌ Échecs : %d\n", d.Summary.Failed)
	fmt.Fprintf(&b, "❓ Introuvables : %d\n", len(d.Summary.NotFoundNames))
	fmt.Fprintf(&b, "💎 Total versé : %s", utils.FormatNumber(d.TotalPaid()))
	if len(d.Summary.NotFoundNames) > 0 {
		fmt.Fprintf(&b, "\n\nJoueurs non trouvés : %s", joinCapped(d.Summary.NotFoundNames, notFoundBudget))
	}
	return b.String()
}

// notFoundBudget bounds the unresolved names in a summary; the full list view pages the rest
const notFoundBudget = 1500

// joinCapped joins names until budget runes are used and counts the ones left out
func joinCapped(names []string, budget int) string {
	var b strings.Builder
	used := 0
	for n, name := range names {
		cost := utf8.RuneCountInString(name)
		if n > 0 {
			cost += 2
		}
		if used+cost > budget {
			fmt.Fprintf(&b, " … et %d de plus", len(names)-n)
			break
		}
		if n > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		used += cost
	}
	return b.String()
}

func statusIcon(s models.PayoutStatus) string {
	switch s {
	case models.PayoutSuccess:
		return "✅"
	case models.PayoutFailed:
		return "❌"
	default:
		return "❓"
	}
}

// FullListLine renders one result of the full list view
func FullListLine(r models.PayoutResult) string {
	return fmt.Sprintf("%s **%d.** %s ─ %d votes ─ %s 💎", statusIcon(r.Status), r.Rank, Mention(r), r.Votes, utils.FormatNumber(r.Amount))
}

// FullListPages splits every result of a report into pages of perPage lines
func FullListPages(report *Report, perPage int) []string {
	if report == nil || len(report.Distribution.Results) == 0 {
		return nil
	}
	if perPage <= 0 {
		perPage = 20
	}
	results := report.Distribution.Results
	var pages []string
	for start := 0; start < len(results); start += perPage {
		end := min(start+perPage, len(results))
		lines := make([]string, 0, end-start)
		for _, r := range results[start:end] {
			lines = append(lines, FullListLine(r))
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}
