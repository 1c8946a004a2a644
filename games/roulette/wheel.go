package roulette

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"unicode/utf8"

	"arki-bot/models"
	"arki-bot/utils"
)

const (
	MinChoices     = 2
	MaxChoices     = 12
	MaxTitleLength = 20

	// Turns is the number of full rotations before the wheel settles
	Turns = 5
	// FrameCount is the number of eased frames of a spin, the settled frame excluded
	FrameCount = 30

	// pointerAngle is where the pointer sits, the top of the wheel with y pointing down
	pointerAngle = 3 * math.Pi / 2
)

var (
	ErrTooFewChoices  = fmt.Errorf("at least %d choices are required", MinChoices)
	ErrTooManyChoices = fmt.Errorf("at most %d choices are allowed", MaxChoices)
	ErrEmptyTitle     = errors.New("title cannot be empty")
	ErrTitleTooLong   = fmt.Errorf("title cannot exceed %d characters", MaxTitleLength)
)

// DefaultConfig is used until choices are saved
func DefaultConfig() models.RouletteConfig {
	return models.RouletteConfig{Title: "ARKI", Choices: []string{}}
}

// ParseChoices splits a list on sep, trimming entries and dropping empty ones
func ParseChoices(raw, sep string) []string {
	var out []string
	for _, c := range strings.Split(raw, sep) {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// ValidateChoices checks the choice count
func ValidateChoices(choices []string) error {
	switch {
	case len(choices) < MinChoices:
		return ErrTooFewChoices
	case len(choices) > MaxChoices:
		return ErrTooManyChoices
	}
	return nil
}

// NormalizeConfig trims the title and validates the whole configuration
func NormalizeConfig(cfg models.RouletteConfig) (models.RouletteConfig, error) {
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.Title == "" {
		return cfg, ErrEmptyTitle
	}
	if utf8.RuneCountInString(cfg.Title) > MaxTitleLength {
		return cfg, ErrTitleTooLong
	}
	choices := make([]string, 0, len(cfg.Choices))
	for _, c := range cfg.Choices {
		if c = strings.TrimSpace(c); c != "" {
			choices = append(choices, c)
		}
	}
	cfg.Choices = choices
	return cfg, ValidateChoices(cfg.Choices)
}

// ConfigStore persists the wheel configuration under the roulette key
type ConfigStore struct {
	store utils.Store
}

// NewConfigStore creates a config store
func NewConfigStore(store utils.Store) *ConfigStore {
	return &ConfigStore{store: store}
}

// Load returns the saved configuration or the default one
func (c *ConfigStore) Load(ctx context.Context) (models.RouletteConfig, error) {
	cfg := DefaultConfig()
	err := utils.GetJSON(ctx, c.store, utils.KeyRoulette, &cfg)
	if err != nil && !errors.Is(err, utils.ErrNotFound) {
		return DefaultConfig(), fmt.Errorf("failed to load roulette config: %w", err)
	}
	if cfg.Choices == nil {
		cfg.Choices = []string{}
	}
	return cfg, nil
}

// Save validates and stores a configuration
func (c *ConfigStore) Save(ctx context.Context, cfg models.RouletteConfig) (models.RouletteConfig, error) {
	cfg, err := NormalizeConfig(cfg)
	if err != nil {
		return cfg, err
	}
	if err := utils.SetJSON(ctx, c.store, utils.KeyRoulette, cfg); err != nil {
		return cfg, fmt.Errorf("failed to save roulette config: %w", err)
	}
	utils.BotLogf("ROULETTE", "Config saved: %q with %d choices", cfg.Title, len(cfg.Choices))
	return cfg, nil
}

// Wheel is a set of equal sectors, sector 0 starting at angle 0
type Wheel struct {
	Choices []string
}

// NewWheel validates the choices
func NewWheel(choices []string) (*Wheel, error) {
	if err := ValidateChoices(choices); err != nil {
		return nil, err
	}
	return &Wheel{Choices: choices}, nil
}

func (w *Wheel) sectorAngle() float64 {
	return 2 * math.Pi / float64(len(w.Choices))
}

// EaseOutCubic starts fast and settles smoothly
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// FinalAngle is the rotation that leaves the middle of the winning sector under the pointer
func (w *Wheel) FinalAngle(winner int) float64 {
	a := w.sectorAngle()
	return 2*math.Pi*Turns + pointerAngle - (float64(winner)+0.5)*a
}

// SectorAt returns the sector under the pointer for a wheel rotated by angle
func (w *Wheel) SectorAt(angle float64) int {
	a := w.sectorAngle()
	rel := math.Mod(pointerAngle-angle, 2*math.Pi)
	if rel < 0 {
		rel += 2 * math.Pi
	}
	sector := int(rel / a)
	if sector >= len(w.Choices) {
		sector = len(w.Choices) - 1
	}
	return sector
}

// Frame is one step of a spin
type Frame struct {
	Angle   float64
	Sector  int
	Settled bool
}

// Spin computes the eased frames of a spin ending on winner, followed by a settled frame
func (w *Wheel) Spin(winner int) []Frame {
	target := w.FinalAngle(winner)
	frames := make([]Frame, 0, FrameCount+2)
	for i := 0; i <= FrameCount; i++ {
		angle := target * EaseOutCubic(float64(i)/FrameCount)
		frames = append(frames, Frame{Angle: angle, Sector: w.SectorAt(angle)})
	}
	frames = append(frames, Frame{Angle: target, Sector: winner, Settled: true})
	return frames
}

// PickWinner draws a sector uniformly
func (w *Wheel) PickWinner() int {
	return rand.Intn(len(w.Choices))
}

// SampleFrames keeps n frames evenly spread over a spin, always keeping the last one
func SampleFrames(frames []Frame, n int) []Frame {
	if n <= 0 || len(frames) <= n {
		return frames
	}
	out := make([]Frame, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, frames[i*(len(frames)-1)/(n-1)])
	}
	return out
}

// RenderFrame draws a frame as text: the sector under the pointer between its neighbours
func (w *Wheel) RenderFrame(title string, f Frame) string {
	n := len(w.Choices)
	prev := w.Choices[(f.Sector-1+n)%n]
	next := w.Choices[(f.Sector+1)%n]

	var b strings.Builder
	fmt.Fprintf(&b, "🎡 **%s**\n\n", title)
	fmt.Fprintf(&b, "▫️ %s\n", prev)
	if f.Settled {
		fmt.Fprintf(&b, "▶️ **%s** 🎉\n", w.Choices[f.Sector])
	} else {
		fmt.Fprintf(&b, "▶️ **%s**\n", w.Choices[f.Sector])
	}
	fmt.Fprintf(&b, "▫️ %s", next)
	return b.String()
}
