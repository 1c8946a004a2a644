package models

import "time"

// DinoVariant is a priced sub-entry of a dino (colour, mutation, ...)
type DinoVariant struct {
	Label             string `json:"label"`
	PriceDiamonds     int64  `json:"priceDiamonds"`
	PriceStrawberries int64  `json:"priceStrawberries"`
}

// Dino is one entry of the dino price list
type Dino struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	PriceDiamonds     int64         `json:"priceDiamonds"`
	PriceStrawberries int64         `json:"priceStrawberries"`
	UniquePerTribe    bool          `json:"uniquePerTribe"`
	CoupleInventaire  bool          `json:"coupleInventaire"`
	NoReduction       bool          `json:"noReduction"`
	NotAvailableDona  bool          `json:"notAvailableDona"`
	DoubleInventaire  bool          `json:"doubleInventaire"`
	NotAvailableShop  bool          `json:"notAvailableShop"`
	Modded            bool          `json:"modded"`
	Variants          []DinoVariant `json:"variants,omitempty"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// Pack is one shop offer
type Pack struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Category          string    `json:"category"`
	PriceDiamonds     int64     `json:"priceDiamonds"`
	PriceStrawberries int64     `json:"priceStrawberries"`
	DonationAvailable bool      `json:"donationAvailable"`
	Available         bool      `json:"available"`
	NoReduction       bool      `json:"noReduction"`
	Content           string    `json:"content"`
	Note              string    `json:"note"`
	Color             string    `json:"color,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Category groups shop packs
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

// PublishedMessageBinding tracks the live messages rendering one catalogue group
type PublishedMessageBinding struct {
	GroupKey   string    `json:"groupKey"`
	ChannelID  string    `json:"channelId"`
	MessageIDs []string  `json:"messageIds"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// DinoDocument is everything stored under the dinos key
type DinoDocument struct {
	Dinos          []Dino                             `json:"dinos"`
	ChannelID      string                             `json:"dinoChannelId"`
	LetterMessages map[string]PublishedMessageBinding `json:"letterMessages"`
	LetterColors   map[string]string                  `json:"letterColors"`
}

// ShopDocument is everything stored under the shop key
type ShopDocument struct {
	Categories       []Category                         `json:"categories"`
	Packs            []Pack                             `json:"packs"`
	ChannelID        string                             `json:"shopChannelId"`
	CategoryMessages map[string]PublishedMessageBinding `json:"categoryMessages"`
}

// RouletteConfig is the wheel configuration edited from Discord or the dashboard
type RouletteConfig struct {
	Title   string   `json:"rouletteTitle"`
	Choices []string `json:"rouletteChoices"`
}
