package catalogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"arki-bot/models"
	"arki-bot/utils"
)

// DefaultCategories is the category list of a fresh shop
var DefaultCategories = []models.Category{
	{ID: "packs", Name: "Packs", Emoji: "📦", Color: "#e74c3c"},
	{ID: "dinos", Name: "Dinos", Emoji: "🦖", Color: "#2ecc71"},
	{ID: "imprint", Name: "Imprint", Emoji: "⬆️", Color: "#3498db"},
	{ID: "elements", Name: "Éléments", Emoji: "🧪", Color: "#9b59b6"},
	{ID: "chibis", Name: "Chibis & Skins", Emoji: "🎨", Color: "#f39c12"},
	{ID: "mutagene", Name: "Mutagène", Emoji: "☣️", Color: "#1abc9c"},
	{ID: "autres", Name: "Autres", Emoji: "🛒", Color: "#95a5a6"},
}

// ShopCatalogue manages the shop packs stored under the shop key
type ShopCatalogue struct {
	store     utils.Store
	publisher *Publisher
	now       func() time.Time
	mutex     sync.Mutex
}

// NewShopCatalogue creates a catalogue backed by store
func NewShopCatalogue(store utils.Store) *ShopCatalogue {
	return &ShopCatalogue{store: store, now: time.Now}
}

// Load returns the stored document with default categories filled in
func (c *ShopCatalogue) Load(ctx context.Context) (models.ShopDocument, error) {
	var doc models.ShopDocument
	err := utils.GetJSON(ctx, c.store, utils.KeyShop, &doc)
	if err != nil && !errors.Is(err, utils.ErrNotFound) {
		return doc, fmt.Errorf("failed to load shop: %w", err)
	}
	if len(doc.Categories) == 0 {
		doc.Categories = append([]models.Category(nil), DefaultCategories...)
	}
	if doc.Packs == nil {
		doc.Packs = []models.Pack{}
	}
	if doc.CategoryMessages == nil {
		doc.CategoryMessages = make(map[string]models.PublishedMessageBinding)
	}
	return doc, nil
}

func (c *ShopCatalogue) update(ctx context.Context, fn func(doc *models.ShopDocument) error) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	doc, err := c.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	if err := utils.SetJSON(ctx, c.store, utils.KeyShop, doc); err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}
	return nil
}

// FindCategory looks a category up by id
func FindCategory(doc models.ShopDocument, id string) (models.Category, bool) {
	for _, cat := range doc.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return models.Category{}, false
}

// AddCategory creates a category whose id is derived from its name
func (c *ShopCatalogue) AddCategory(ctx context.Context, cat models.Category) (models.Category, error) {
	cat.Name = strings.TrimSpace(cat.Name)
	if cat.Name == "" {
		return models.Category{}, fmt.Errorf("%w: category name is required", ErrInvalidItem)
	}
	base := slug.Make(cat.Name)
	if base == "" {
		return models.Category{}, fmt.Errorf("%w: category name %q has no usable characters", ErrInvalidItem, cat.Name)
	}
	if cat.Color == "" {
		cat.Color = "#95a5a6"
	}

	err := c.update(ctx, func(doc *models.ShopDocument) error {
		cat.ID = base
		for n := 2; ; n++ {
			if _, taken := FindCategory(*doc, cat.ID); !taken {
				break
			}
			cat.ID = fmt.Sprintf("%s-%d", base, n)
		}
		doc.Categories = append(doc.Categories, cat)
		return nil
	})
	if err != nil {
		return models.Category{}, err
	}
	return cat, nil
}

func validatePack(doc models.ShopDocument, p models.Pack) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: pack name is required", ErrInvalidItem)
	}
	if p.PriceDiamonds < 0 || p.PriceStrawberries < 0 {
		return fmt.Errorf("%w: prices cannot be negative", ErrInvalidItem)
	}
	if _, ok := FindCategory(doc, p.Category); !ok {
		return fmt.Errorf("category %s: %w", p.Category, ErrItemNotFound)
	}
	if p.Color != "" && utils.ParseHexColor(p.Color, -1) == -1 {
		return fmt.Errorf("%w: color %q, expected #rrggbb", ErrInvalidItem, p.Color)
	}
	return nil
}

// GetPack returns one pack
func (c *ShopCatalogue) GetPack(ctx context.Context, id string) (models.Pack, error) {
	doc, err := c.Load(ctx)
	if err != nil {
		return models.Pack{}, err
	}
	for _, p := range doc.Packs {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Pack{}, fmt.Errorf("pack %s: %w", id, ErrItemNotFound)
}

// AddPack stores a new pack under a fresh id
func (c *ShopCatalogue) AddPack(ctx context.Context, p models.Pack) (models.Pack, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.ID = uuid.NewString()
	p.CreatedAt = c.now()

	err := c.update(ctx, func(doc *models.ShopDocument) error {
		if err := validatePack(*doc, p); err != nil {
			return err
		}
		doc.Packs = append(doc.Packs, p)
		return nil
	})
	if err != nil {
		return models.Pack{}, err
	}
	utils.BotLogf("CATALOGUE", "Pack %s added to %s (%s)", p.Name, p.Category, p.ID)
	return p, nil
}

// UpdatePack replaces the fields of an existing pack, keeping its id and creation date
func (c *ShopCatalogue) UpdatePack(ctx context.Context, id string, p models.Pack) (models.Pack, error) {
	p.Name = strings.TrimSpace(p.Name)

	var updated models.Pack
	err := c.update(ctx, func(doc *models.ShopDocument) error {
		if err := validatePack(*doc, p); err != nil {
			return err
		}
		for i := range doc.Packs {
			if doc.Packs[i].ID == id {
				p.ID = id
				p.CreatedAt = doc.Packs[i].CreatedAt
				doc.Packs[i] = p
				updated = p
				return nil
			}
		}
		return fmt.Errorf("pack %s: %w", id, ErrItemNotFound)
	})
	return updated, err
}

// DeletePack removes a pack
func (c *ShopCatalogue) DeletePack(ctx context.Context, id string) error {
	return c.update(ctx, func(doc *models.ShopDocument) error {
		for i := range doc.Packs {
			if doc.Packs[i].ID == id {
				doc.Packs = append(doc.Packs[:i], doc.Packs[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("pack %s: %w", id, ErrItemNotFound)
	})
}

// SetChannel records where the shop is published
func (c *ShopCatalogue) SetChannel(ctx context.Context, channelID string) error {
	return c.update(ctx, func(doc *models.ShopDocument) error {
		doc.ChannelID = channelID
		return nil
	})
}

// GroupPacks splits packs by category in insertion order. Packs of a category that
// no longer exists fall back to the first category.
func GroupPacks(doc models.ShopDocument) map[string][]models.Pack {
	groups := make(map[string][]models.Pack)
	for _, p := range doc.Packs {
		key := p.Category
		if _, ok := FindCategory(doc, key); !ok && len(doc.Categories) > 0 {
			key = doc.Categories[0].ID
		}
		groups[key] = append(groups[key], p)
	}
	return groups
}

// RenderAll renders every category that has packs
func (c *ShopCatalogue) RenderAll(doc models.ShopDocument, budget int) map[string][]Page {
	out := make(map[string][]Page)
	for key, packs := range GroupPacks(doc) {
		cat, _ := FindCategory(doc, key)
		out[key] = RenderShopGroup(cat, packs, budget)
	}
	return out
}

// RenderGroup renders one category; an empty or unknown category yields no pages
func (c *ShopCatalogue) RenderGroup(doc models.ShopDocument, categoryID string, budget int) []Page {
	cat, ok := FindCategory(doc, categoryID)
	if !ok {
		return nil
	}
	return RenderShopGroup(cat, GroupPacks(doc)[categoryID], budget)
}

// SaveBinding records the messages of a published category
func (c *ShopCatalogue) SaveBinding(ctx context.Context, binding models.PublishedMessageBinding) error {
	return c.update(ctx, func(doc *models.ShopDocument) error {
		doc.CategoryMessages[binding.GroupKey] = binding
		return nil
	})
}

// RemoveBinding forgets a category's messages
func (c *ShopCatalogue) RemoveBinding(ctx context.Context, groupKey string) error {
	return c.update(ctx, func(doc *models.ShopDocument) error {
		delete(doc.CategoryMessages, groupKey)
		return nil
	})
}
