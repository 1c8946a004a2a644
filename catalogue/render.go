package catalogue

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"arki-bot/models"
	"arki-bot/utils"
)

// Page is one message worth of a rendered catalogue group
type Page struct {
	GroupKey string
	Index    int // 0-based
	Total    int
	Content  string
	Color    int
	Footer   string
}

// HeaderFunc returns the header of a page; continuation is true for every page after the first
type HeaderFunc func(continuation bool) string

const blockSeparator = "\n\n"

// runeLen measures text the way the page budget is expressed
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// pageBuilder accumulates one page
type pageBuilder struct {
	text      strings.Builder
	size      int
	hasBlocks bool
}

func (b *pageBuilder) reset(header string) {
	b.text.Reset()
	b.text.WriteString(header)
	b.size = runeLen(header)
	b.hasBlocks = false
}

func (b *pageBuilder) fits(sep, s string, budget int) bool {
	return b.size+runeLen(sep)+runeLen(s) <= budget
}

func (b *pageBuilder) add(sep, s string) {
	if b.size == 0 {
		sep = ""
	}
	b.text.WriteString(sep)
	b.text.WriteString(s)
	b.size += runeLen(sep) + runeLen(s)
	b.hasBlocks = true
}

// Paginate packs item blocks into pages of at most budget runes. Each page starts with
// its header; later pages get the continuation header. A block is never split unless it
// cannot fit on an empty page, in which case it is split between lines. A single line
// longer than a whole page is kept intact on a page of its own.
func Paginate(groupKey string, blocks []string, budget int, header HeaderFunc) []Page {
	if len(blocks) == 0 {
		return nil
	}

	var contents []string
	var cur pageBuilder
	cur.reset(header(false))

	flush := func() {
		contents = append(contents, cur.text.String())
		cur.reset(header(true))
	}

	for _, block := range blocks {
		if cur.fits(blockSeparator, block, budget) {
			cur.add(blockSeparator, block)
			continue
		}

		if cur.hasBlocks {
			flush()
			if cur.fits(blockSeparator, block, budget) {
				cur.add(blockSeparator, block)
				continue
			}
		}

		// Oversized block: spread it over pages at line boundaries
		sep := blockSeparator
		for _, line := range strings.Split(block, "\n") {
			if !cur.fits(sep, line, budget) && cur.hasBlocks {
				flush()
				sep = blockSeparator
			}
			cur.add(sep, line)
			sep = "\n"
		}
	}
	if cur.hasBlocks {
		contents = append(contents, cur.text.String())
	}

	pages := make([]Page, len(contents))
	for i, c := range contents {
		pages[i] = Page{GroupKey: groupKey, Index: i, Total: len(contents), Content: c}
	}
	return pages
}

// SplitLines cuts text into chunks of at most limit runes, breaking between lines.
// A line longer than limit is cut at rune boundaries since it could never be sent whole.
func SplitLines(text string, limit int) []string {
	if limit <= 0 || runeLen(text) <= limit {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	size := 0

	flush := func() {
		if strings.TrimSpace(cur.String()) != "" {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
		}
		cur.Reset()
		size = 0
	}

	for _, line := range strings.Split(text, "\n") {
		for runeLen(line) > limit {
			flush()
			head, rest := splitAtRune(line, limit)
			chunks = append(chunks, head)
			line = rest
		}

		extra := runeLen(line)
		if size > 0 {
			extra++
		}
		if size+extra > limit {
			flush()
			extra = runeLen(line)
		}
		if size > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
		size += extra
	}
	flush()
	return chunks
}

func splitAtRune(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}

// finishPages applies color and footer, numbering pages when a group spans several
func finishPages(pages []Page, color int, footer string) []Page {
	for i := range pages {
		pages[i].Color = color
		pages[i].Footer = footer
		if pages[i].Total > 1 {
			pages[i].Footer = fmt.Sprintf("%s ─ %d/%d", footer, i+1, pages[i].Total)
		}
	}
	return pages
}

// priceLine renders "<diamonds>💎 + <strawberries>🍓"
func priceLine(diamonds, strawberries int64) string {
	return fmt.Sprintf("%s%s + %s%s",
		utils.FormatNumber(diamonds), utils.DiamondEmoji,
		utils.FormatNumber(strawberries), utils.StrawberryEmoji)
}

// DinoBlock renders a dino with its variants and flag annotations
func DinoBlock(d models.Dino) string {
	lines := []string{
		"## " + utils.ToDoubleStruck(d.Name),
		"> " + priceLine(d.PriceDiamonds, d.PriceStrawberries),
	}

	if d.UniquePerTribe {
		lines = append(lines, "> ⚠️ __*Un seul par tribu*__")
	}
	if d.CoupleInventaire {
		lines = append(lines, "> 🦖 *( Un achat via inventaire coûte 🦖 x2 )*")
	}
	for _, v := range d.Variants {
		lines = append(lines, fmt.Sprintf(">   ◦ **%s** : %s", utils.ToDoubleStruck(v.Label), priceLine(v.PriceDiamonds, v.PriceStrawberries)))
	}
	if d.NoReduction {
		lines = append(lines, "> ⛔ *Réductions fondateur ou donateur non applicables*")
	}
	if d.NotAvailableDona {
		lines = append(lines, "> ‼️ *( NON DISPONIBLE AVEC LES PACKS DONA OU LES DINOS INVENTAIRES )*")
	}
	if d.DoubleInventaire {
		lines = append(lines, "> 🦖 *x2 par paiement inventaire*")
	}
	if d.NotAvailableShop {
		lines = append(lines, "> 🚫 *Pas encore disponible au shop*")
	}

	return strings.Join(lines, "\n")
}

// RenderDinoGroup renders the dinos of one letter group. Dinos are expected sorted.
func RenderDinoGroup(groupKey string, dinos []models.Dino, color int, budget int) []Page {
	label := GroupLabel(groupKey)
	blocks := make([]string, len(dinos))
	for i, d := range dinos {
		blocks[i] = DinoBlock(d)
	}

	pages := Paginate(groupKey, blocks, budget, func(continuation bool) string {
		if continuation {
			return fmt.Sprintf("# 🦖 ━━━ 【%s】 ━━━ 🦖 *(suite)*", label)
		}
		return fmt.Sprintf("# 🦖 ━━━ 【%s】 ━━━ 🦖", label)
	})
	return finishPages(pages, color, fmt.Sprintf("%s ─ Prix Dinos ─ %s", utils.BrandName, label))
}

// PackBlock renders one shop pack
func PackBlock(p models.Pack, emoji string) string {
	lines := []string{fmt.Sprintf("## %s %s", emoji, p.Name)}

	var details []string
	if p.PriceDiamonds > 0 || p.PriceStrawberries > 0 {
		var parts []string
		if p.PriceDiamonds > 0 {
			parts = append(parts, utils.FormatNumber(p.PriceDiamonds)+" "+utils.DiamondEmoji)
		}
		if p.PriceStrawberries > 0 {
			parts = append(parts, utils.FormatNumber(p.PriceStrawberries)+" "+utils.StrawberryEmoji)
		}
		details = append(details, "> **Prix :** "+strings.Join(parts, " + "))
	}
	if p.DonationAvailable {
		details = append(details, "> 🎁 **Donation disponible**")
	}
	if !p.Available {
		details = append(details, "> ⚠️ *Pas encore disponible*")
	}
	if p.NoReduction {
		details = append(details, "> ⛔ *Réductions fondateur ou donateur non applicables*")
	}
	lines = append(lines, details...)

	var content []string
	for _, raw := range strings.Split(p.Content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "•"):
			content = append(content, line)
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "*"):
			content = append(content, "• "+strings.TrimSpace(line[1:]))
		default:
			content = append(content, "• "+line)
		}
	}
	if len(content) > 0 {
		if len(details) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, content...)
	}

	if note := strings.TrimSpace(p.Note); note != "" {
		lines = append(lines, "", fmt.Sprintf("> 📝 *%s*", note))
	}

	return strings.Join(lines, "\n")
}

// RenderShopGroup renders the packs of one category
func RenderShopGroup(category models.Category, packs []models.Pack, budget int) []Page {
	blocks := make([]string, len(packs))
	for i, p := range packs {
		blocks[i] = PackBlock(p, category.Emoji)
	}

	pages := Paginate(category.ID, blocks, budget, func(continuation bool) string {
		if continuation {
			return fmt.Sprintf("# %s ━━━ %s ━━━ %s *(suite)*", category.Emoji, category.Name, category.Emoji)
		}
		return fmt.Sprintf("# %s ━━━ %s ━━━ %s", category.Emoji, category.Name, category.Emoji)
	})
	color := utils.ParseHexColor(category.Color, utils.ColorSuccess)
	return finishPages(pages, color, utils.BrandName+" Shop ─ "+category.Name)
}
