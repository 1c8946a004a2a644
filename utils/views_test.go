package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestOptimizeEmbedPayload(t *testing.T) {
	if result := OptimizeEmbedPayload(nil); result != nil {
		t.Errorf("Expected nil for nil input, got %v", result)
	}

	report := &discordgo.MessageEmbed{
		Title:       "  🗳️ Votes ─ MARS  ",
		Description: "\n**Distribution des votes ─ MARS**\n✅ Crédités : 12\n",
		Color:       ColorSuccess,
		Footer:      &discordgo.MessageEmbedFooter{Text: "  " + BrandName + "  "},
		Thumbnail:   &discordgo.MessageEmbedThumbnail{},
		Fields: []*discordgo.MessageEmbedField{
			{Name: " Top 1 ", Value: " Alice ─ 50 votes ", Inline: true},
			{Name: "", Value: "sans titre"},
			{Name: "Top 2", Value: "   "},
		},
	}

	result := OptimizeEmbedPayload(report)
	if result.Title != "🗳️ Votes ─ MARS" {
		t.Errorf("Title = %q", result.Title)
	}
	if result.Description != "**Distribution des votes ─ MARS**\n✅ Crédités : 12" {
		t.Errorf("Description = %q", result.Description)
	}
	if result.Color != ColorSuccess {
		t.Errorf("Color = %#x, want %#x", result.Color, ColorSuccess)
	}
	if result.Footer == nil || result.Footer.Text != BrandName {
		t.Errorf("Footer = %v", result.Footer)
	}
	if result.Thumbnail != nil {
		t.Errorf("Expected the empty thumbnail to be dropped, got %v", result.Thumbnail)
	}
	if len(result.Fields) != 1 || result.Fields[0].Name != "Top 1" || result.Fields[0].Value != "Alice ─ 50 votes" {
		t.Errorf("Fields = %+v", result.Fields)
	}

	page := &discordgo.MessageEmbed{Title: "𝔸", Footer: &discordgo.MessageEmbedFooter{Text: "   "}}
	if result := OptimizeEmbedPayload(page); result.Footer != nil {
		t.Errorf("Expected a blank footer to be dropped, got %v", result.Footer)
	}
}

func TestIsNonRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", errors.New("HTTP 429 Too Many Requests"), false},
		{"gateway", errors.New("HTTP 502 Bad Gateway"), false},
		{"timeout", errors.New("context deadline exceeded"), false},
		{"expired interaction", errors.New(`HTTP 404 Not Found, {"message": "Unknown Webhook", "code": 10015}`), true},
		{"embed too long", errors.New(`HTTP 400 Bad Request, {"message": "Invalid Form Body", "code": 50035}`), true},
		{"catalogue message gone", &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusNotFound},
			Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage, Message: "Unknown Message"},
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNonRetryableError(tt.err); got != tt.want {
				t.Errorf("isNonRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsWebhookExpiredError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"vote run outlived the token", errors.New(`HTTP 404 Not Found, {"message": "Unknown Webhook", "code": 10015}`), true},
		{"unknown interaction", errors.New("Unknown interaction"), true},
		{"wrapped", fmt.Errorf("EditOriginalInteraction: %w", errors.New("Unknown Webhook")), true},
		{"rate limited", errors.New("HTTP 429 Too Many Requests"), false},
		{"missing access", errors.New(`HTTP 403 Forbidden, {"message": "Missing Access", "code": 50001}`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWebhookExpiredError(tt.err); got != tt.want {
				t.Errorf("isWebhookExpiredError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"Joueurs", 10, "Joueurs"},
		{"Élasmothérium", 5, "Élas…"},
		{"ℝ𝕖𝕩", 3, "ℝ𝕖𝕩"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateRunes(tt.in, tt.limit); got != tt.want {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestIsUnknownMessageError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rest code 10008", &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusNotFound},
			Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage, Message: "Unknown Message"},
		}, true},
		{"rest 404 without body", &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}, true},
		{"wrapped", fmt.Errorf("delete failed: %w", &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusNotFound},
		}), true},
		{"missing permissions", &discordgo.RESTError{
			Response: &http.Response{StatusCode: http.StatusForbidden},
			Message:  &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions},
		}, false},
		{"plain text", errors.New("Unknown Message"), true},
		{"network", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnknownMessageError(tt.err); got != tt.want {
				t.Errorf("IsUnknownMessageError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSplitCustomID(t *testing.T) {
	prefix, args := SplitCustomID("votes_full:123:2")
	if prefix != "votes_full" || len(args) != 2 || args[0] != "123" || args[1] != "2" {
		t.Errorf("SplitCustomID = %q, %v", prefix, args)
	}

	prefix, args = SplitCustomID("roulette_spin")
	if prefix != "roulette_spin" || len(args) != 0 {
		t.Errorf("SplitCustomID without args = %q, %v", prefix, args)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1 000",
		15000:    "15 000",
		1234567:  "1 234 567",
		-4000:    "-4 000",
		-100:     "-100",
	}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestToDoubleStruck(t *testing.T) {
	if got := ToDoubleStruck("Rex 2"); got != "ℝ𝕖𝕩 2" {
		t.Errorf("ToDoubleStruck(Rex 2) = %q", got)
	}
	if got := ToDoubleStruck("Élan"); got != "É𝕝𝕒𝕟" {
		t.Errorf("non-ASCII letters should be kept, got %q", got)
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"#2ecc71", 0x2ecc71},
		{"e74c3c", 0xe74c3c},
		{"#fff", 42},
		{"#zzzzzz", 42},
		{"", 42},
	}
	for _, tt := range tests {
		if got := ParseHexColor(tt.in, 42); got != tt.want {
			t.Errorf("ParseHexColor(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

// MockError for testing
type MockError struct {
	Message string
}

func (e *MockError) Error() string {
	return e.Message
}