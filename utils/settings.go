package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"arki-bot/models"
)

var (
	// ErrUnknownSection is returned when updating a settings section that does not exist
	ErrUnknownSection = errors.New("unknown settings section")
	// ErrInvalidSettings is returned when an update does not decode into the settings document
	ErrInvalidSettings = errors.New("invalid settings")
)

var settingsSections = map[string]bool{
	"guild": true, "rewards": true, "api": true, "style": true,
	"message": true, "auth": true, "aliases": true, "catalogue": true,
}

// SettingsManager loads and persists the bot settings document
type SettingsManager struct {
	store    Store
	defaults func() models.Settings
	mutex    sync.Mutex
}

// NewSettingsManager creates a manager; defaults supplies the values used for missing fields
func NewSettingsManager(store Store, defaults func() models.Settings) *SettingsManager {
	if defaults == nil {
		defaults = models.DefaultSettings
	}
	return &SettingsManager{store: store, defaults: defaults}
}

// Load returns the defaults with the stored document merged on top.
// A missing or unreadable document yields the defaults.
func (m *SettingsManager) Load(ctx context.Context) models.Settings {
	settings := m.defaults()

	raw, found, err := m.store.Get(ctx, KeySettings)
	if err != nil {
		BotLogf("STORE", "Failed to read settings, using defaults: %v", err)
		return settings
	}
	if !found {
		return settings
	}

	// Unmarshal over the defaults: nested objects merge, scalars and arrays replace
	if err := json.Unmarshal(raw, &settings); err != nil {
		BotLogf("STORE", "Stored settings are invalid, using defaults: %v", err)
		return m.defaults()
	}
	return settings
}

// Save persists the full document
func (m *SettingsManager) Save(ctx context.Context, settings models.Settings) error {
	if err := SetJSON(ctx, m.store, KeySettings, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// UpdateSection changes one top-level section. With replace the section becomes exactly
// data; otherwise the keys of data are merged into the existing section.
func (m *SettingsManager) UpdateSection(ctx context.Context, section string, data json.RawMessage, replace bool) (models.Settings, error) {
	if !settingsSections[section] {
		return models.Settings{}, fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}

	var patch map[string]json.RawMessage
	if err := json.Unmarshal(data, &patch); err != nil {
		return models.Settings{}, fmt.Errorf("%w: section %s must be a JSON object: %w", ErrInvalidSettings, section, err)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	current := m.Load(ctx)
	currentRaw, err := json.Marshal(current)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to encode settings: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(currentRaw, &doc); err != nil {
		return models.Settings{}, fmt.Errorf("failed to encode settings: %w", err)
	}

	if !replace {
		var existing map[string]json.RawMessage
		if err := json.Unmarshal(doc[section], &existing); err != nil || existing == nil {
			existing = make(map[string]json.RawMessage)
		}
		for k, v := range patch {
			existing[k] = v
		}
		patch = existing
	}

	sectionRaw, err := json.Marshal(patch)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to encode section %s: %w", section, err)
	}
	doc[section] = sectionRaw

	merged, err := json.Marshal(doc)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to encode settings: %w", err)
	}

	var next models.Settings
	if err := json.Unmarshal(merged, &next); err != nil {
		return models.Settings{}, fmt.Errorf("%w: bad value in section %s: %w", ErrInvalidSettings, section, err)
	}
	if err := validateRewards(next.Rewards); err != nil {
		return models.Settings{}, err
	}

	if err := m.Save(ctx, next); err != nil {
		return models.Settings{}, err
	}
	BotLogf("STORE", "Settings section %s updated (replace=%v)", section, replace)
	return next, nil
}

// validateRewards rejects values that would turn a payout into a debit
func validateRewards(r models.RewardSettings) error {
	if r.DiamondsPerVote < 0 {
		return fmt.Errorf("%w: diamondsPerVote must not be negative, got %d", ErrInvalidSettings, r.DiamondsPerVote)
	}
	for rank, bonus := range r.TopDiamonds {
		if rank < 1 {
			return fmt.Errorf("%w: topDiamonds rank must start at 1, got %d", ErrInvalidSettings, rank)
		}
		if bonus < 0 {
			return fmt.Errorf("%w: topDiamonds for rank %d must not be negative, got %d", ErrInvalidSettings, rank, bonus)
		}
	}
	return nil
}
