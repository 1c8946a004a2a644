package catalogue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"arki-bot/models"
	"arki-bot/utils"
)

// MessageChannel is the minimal Discord surface the publisher needs
type MessageChannel interface {
	Send(ctx context.Context, channelID string, page Page) (string, error)
	Delete(ctx context.Context, channelID, messageID string) error
}

// BindingSaver persists the binding of one group
type BindingSaver interface {
	SaveBinding(ctx context.Context, binding models.PublishedMessageBinding) error
	RemoveBinding(ctx context.Context, groupKey string) error
}

// Publisher replaces the messages of a catalogue group with freshly rendered pages
type Publisher struct {
	channel MessageChannel
	saver   BindingSaver
	now     func() time.Time

	// serializes publishes so two runs cannot interleave deletes and sends
	mutex sync.Mutex
}

// NewPublisher creates a publisher
func NewPublisher(channel MessageChannel, saver BindingSaver) *Publisher {
	return &Publisher{channel: channel, saver: saver, now: time.Now}
}

// deleteAll removes messages best-effort and returns the ids that could not be removed.
// A message that is already gone counts as removed.
func (p *Publisher) deleteAll(ctx context.Context, channelID string, ids []string) []string {
	var kept []string
	for _, id := range ids {
		err := p.channel.Delete(ctx, channelID, id)
		if err == nil || utils.IsUnknownMessageError(err) {
			continue
		}
		utils.BotErrorf("CATALOGUE", "Failed to delete message %s in %s: %v", id, channelID, err)
		kept = append(kept, id)
	}
	return kept
}

// Publish deletes the previous messages of the group, sends pages in order and stores the
// new binding. If a send fails, the messages sent by this call are deleted again and the
// stored binding only keeps those that could not be deleted, so it never points at
// messages from an earlier publish.
func (p *Publisher) Publish(ctx context.Context, groupKey, channelID string, pages []Page, previous *models.PublishedMessageBinding) (models.PublishedMessageBinding, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if previous != nil && len(previous.MessageIDs) > 0 {
		prevChannel := previous.ChannelID
		if prevChannel == "" {
			prevChannel = channelID
		}
		if kept := p.deleteAll(ctx, prevChannel, previous.MessageIDs); len(kept) > 0 {
			utils.BotLogf("CATALOGUE", "Group %s: %d previous messages could not be deleted and are no longer tracked", groupKey, len(kept))
		}
	}

	sent := make([]string, 0, len(pages))
	for i, page := range pages {
		id, err := p.channel.Send(ctx, channelID, page)
		if err != nil {
			sendErr := fmt.Errorf("group %s: failed to send page %d/%d: %w", groupKey, i+1, len(pages), err)
			leftover := p.deleteAll(ctx, channelID, sent)
			binding := models.PublishedMessageBinding{
				GroupKey:   groupKey,
				ChannelID:  channelID,
				MessageIDs: leftover,
				UpdatedAt:  p.now(),
			}
			if leftover == nil {
				binding.MessageIDs = []string{}
			}
			if serr := p.saver.SaveBinding(ctx, binding); serr != nil {
				return binding, errors.Join(sendErr, fmt.Errorf("group %s: failed to save binding: %w", groupKey, serr))
			}
			return binding, sendErr
		}
		sent = append(sent, id)
	}

	binding := models.PublishedMessageBinding{
		GroupKey:   groupKey,
		ChannelID:  channelID,
		MessageIDs: sent,
		UpdatedAt:  p.now(),
	}
	if err := p.saver.SaveBinding(ctx, binding); err != nil {
		return binding, fmt.Errorf("group %s: failed to save binding: %w", groupKey, err)
	}

	utils.BotLogf("CATALOGUE", "Published group %s: %d messages in %s", groupKey, len(sent), channelID)
	return binding, nil
}

// Unpublish deletes the messages of a group that no longer has items and drops its binding
func (p *Publisher) Unpublish(ctx context.Context, binding models.PublishedMessageBinding) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if kept := p.deleteAll(ctx, binding.ChannelID, binding.MessageIDs); len(kept) > 0 {
		utils.BotLogf("CATALOGUE", "Group %s: %d stale messages could not be deleted", binding.GroupKey, len(kept))
	}
	if err := p.saver.RemoveBinding(ctx, binding.GroupKey); err != nil {
		return fmt.Errorf("group %s: failed to remove binding: %w", binding.GroupKey, err)
	}
	utils.BotLogf("CATALOGUE", "Removed empty group %s", binding.GroupKey)
	return nil
}

// GroupResult reports the outcome of one group in a PublishAll run
type GroupResult struct {
	GroupKey string `json:"group"`
	Messages int    `json:"messages"`
	Removed  bool   `json:"removed,omitempty"`
	Err      error  `json:"-"`
}

// ErrText returns the failure text, empty on success
func (r GroupResult) ErrText() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// PublishAll publishes every group independently in key order, then removes the
// messages of bound groups that have no pages anymore
func (p *Publisher) PublishAll(ctx context.Context, channelID string, groups map[string][]Page, bindings map[string]models.PublishedMessageBinding) []GroupResult {
	keys := GroupKeys(groups)

	results := make([]GroupResult, 0, len(keys))
	for _, key := range keys {
		pages := groups[key]
		if len(pages) == 0 {
			continue
		}
		var previous *models.PublishedMessageBinding
		if b, ok := bindings[key]; ok {
			previous = &b
		}
		binding, err := p.Publish(ctx, key, channelID, pages, previous)
		results = append(results, GroupResult{GroupKey: key, Messages: len(binding.MessageIDs), Err: err})
	}

	stale := make([]string, 0)
	for key := range bindings {
		if len(groups[key]) == 0 {
			stale = append(stale, key)
		}
	}
	sort.Strings(stale)
	for _, key := range stale {
		err := p.Unpublish(ctx, bindings[key])
		results = append(results, GroupResult{GroupKey: key, Removed: err == nil, Err: err})
	}

	return results
}
