package catalogue

import (
	"context"
	"errors"
	"fmt"

	"arki-bot/models"
	"arki-bot/utils"
)

var (
	// ErrNoChannel means no publication channel was configured for the catalogue
	ErrNoChannel = errors.New("no publication channel configured")
	// ErrNoPublisher means the catalogue is not connected to Discord
	ErrNoPublisher = errors.New("catalogue is not connected to Discord")
)

// PageBudget returns the configured page size, falling back to the default when it
// would not fit an embed description
func PageBudget(settings models.Settings) int {
	budget := settings.Catalogue.PageCharBudget
	if budget <= 0 || budget > utils.MaxEmbedDescription {
		return models.DefaultPageCharBudget
	}
	return budget
}

// Attach connects the dino catalogue to the channel it publishes through
func (c *DinoCatalogue) Attach(channel MessageChannel) {
	c.publisher = NewPublisher(channel, c)
}

// Attach connects the shop catalogue to the channel it publishes through
func (c *ShopCatalogue) Attach(channel MessageChannel) {
	c.publisher = NewPublisher(channel, c)
}

func publishOne(ctx context.Context, pub *Publisher, key, channelID string, pages []Page, bindings map[string]models.PublishedMessageBinding) GroupResult {
	previous, bound := bindings[key]
	if len(pages) == 0 {
		if !bound {
			return GroupResult{GroupKey: key}
		}
		err := pub.Unpublish(ctx, previous)
		return GroupResult{GroupKey: key, Removed: err == nil, Err: err}
	}

	var prev *models.PublishedMessageBinding
	if bound {
		prev = &previous
	}
	binding, err := pub.Publish(ctx, key, channelID, pages, prev)
	return GroupResult{GroupKey: key, Messages: len(binding.MessageIDs), Err: err}
}

// PublishAll republishes every letter group and removes the ones left empty
func (c *DinoCatalogue) PublishAll(ctx context.Context, budget int) ([]GroupResult, error) {
	if c.publisher == nil {
		return nil, ErrNoPublisher
	}
	doc, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	if doc.ChannelID == "" {
		return nil, fmt.Errorf("dinos: %w", ErrNoChannel)
	}
	return c.publisher.PublishAll(ctx, doc.ChannelID, c.RenderAll(doc, budget), doc.LetterMessages), nil
}

// PublishGroup republishes a single letter group
func (c *DinoCatalogue) PublishGroup(ctx context.Context, group string, budget int) (GroupResult, error) {
	if c.publisher == nil {
		return GroupResult{}, ErrNoPublisher
	}
	doc, err := c.Load(ctx)
	if err != nil {
		return GroupResult{}, err
	}
	if doc.ChannelID == "" {
		return GroupResult{}, fmt.Errorf("dinos: %w", ErrNoChannel)
	}
	pages := c.RenderGroup(doc, group, budget)
	return publishOne(ctx, c.publisher, group, doc.ChannelID, pages, doc.LetterMessages), nil
}

// PublishAll republishes every category and removes the ones left empty
func (c *ShopCatalogue) PublishAll(ctx context.Context, budget int) ([]GroupResult, error) {
	if c.publisher == nil {
		return nil, ErrNoPublisher
	}
	doc, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	if doc.ChannelID == "" {
		return nil, fmt.Errorf("shop: %w", ErrNoChannel)
	}
	return c.publisher.PublishAll(ctx, doc.ChannelID, c.RenderAll(doc, budget), doc.CategoryMessages), nil
}

// PublishGroup republishes a single category
func (c *ShopCatalogue) PublishGroup(ctx context.Context, categoryID string, budget int) (GroupResult, error) {
	if c.publisher == nil {
		return GroupResult{}, ErrNoPublisher
	}
	doc, err := c.Load(ctx)
	if err != nil {
		return GroupResult{}, err
	}
	if doc.ChannelID == "" {
		return GroupResult{}, fmt.Errorf("shop: %w", ErrNoChannel)
	}
	if _, ok := FindCategory(doc, categoryID); !ok {
		return GroupResult{}, fmt.Errorf("category %s: %w", categoryID, ErrItemNotFound)
	}
	pages := c.RenderGroup(doc, categoryID, budget)
	return publishOne(ctx, c.publisher, categoryID, doc.ChannelID, pages, doc.CategoryMessages), nil
}
