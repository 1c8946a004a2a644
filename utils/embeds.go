package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// CreateBrandedEmbed creates a basic embed with bot branding
func CreateBrandedEmbed(title, description string, color int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: BrandName,
		},
	}

	return embed
}

// ErrorEmbed creates a red embed describing a failed action
func ErrorEmbed(description string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed("❌ Erreur", description, ColorError)
}

// SuccessEmbed creates a green embed confirming an action
func SuccessEmbed(title, description string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(title, description, ColorSuccess)
}

// FormatNumber groups thousands with spaces, French style (12 500)
func FormatNumber(num int64) string {
	str := strconv.FormatInt(num, 10)
	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}
	if len(str) <= 3 {
		return sign + str
	}

	var result strings.Builder
	result.WriteString(sign)
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(" ")
		}
		result.WriteRune(r)
	}

	return result.String()
}

// Mathematical double-struck letters; a few live in the Letterlike Symbols block
var (
	doubleStruckUpper = [26]rune{
		0x1D538, 0x1D539, 0x2102, 0x1D53B, 0x1D53C, 0x1D53D, 0x1D53E, 0x210D, 0x1D540,
		0x1D541, 0x1D542, 0x1D543, 0x1D544, 0x2115, 0x1D546, 0x2119, 0x211A, 0x211D,
		0x1D54A, 0x1D54B, 0x1D54C, 0x1D54D, 0x1D54E, 0x1D54F, 0x1D550, 0x2124,
	}
	doubleStruckLower = [26]rune{
		0x1D552, 0x1D553, 0x1D554, 0x1D555, 0x1D556, 0x1D557, 0x1D558, 0x1D559, 0x1D55A,
		0x1D55B, 0x1D55C, 0x1D55D, 0x1D55E, 0x1D55F, 0x1D560, 0x1D561, 0x1D562, 0x1D563,
		0x1D564, 0x1D565, 0x1D566, 0x1D567, 0x1D568, 0x1D569, 0x1D56A, 0x1D56B,
	}
)

// ToDoubleStruck renders ASCII letters as double-struck glyphs, leaving everything else untouched
func ToDoubleStruck(text string) string {
	var b strings.Builder
	b.Grow(len(text) * 4)
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(doubleStruckUpper[r-'A'])
		case r >= 'a' && r <= 'z':
			b.WriteRune(doubleStruckLower[r-'a'])
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseHexColor converts "#rrggbb" to an embed color, returning fallback on bad input
func ParseHexColor(hex string, fallback int) int {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return fallback
	}
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return fallback
	}
	return int(v)
}

// TruncateRunes cuts text to at most limit runes, ending with an ellipsis when shortened
func TruncateRunes(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}
