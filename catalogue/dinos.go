package catalogue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/unidecode"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"arki-bot/models"
	"arki-bot/utils"
)

var (
	// ErrItemNotFound is returned when a dino, pack or category id does not exist
	ErrItemNotFound = errors.New("catalogue item not found")
	// ErrInvalidItem is returned when a dino, pack or category fails validation
	ErrInvalidItem = errors.New("invalid catalogue item")
)

// ModdedGroup collects dinos from mods, published after the letters
const ModdedGroup = "MODDED"

const defaultLetterColor = "#2ecc71"

// DefaultLetterColors gives every letter group its own embed color
var DefaultLetterColors = map[string]string{
	"A": "#e74c3c", "B": "#e67e22", "C": "#f1c40f", "D": "#2ecc71", "E": "#1abc9c",
	"F": "#3498db", "G": "#9b59b6", "H": "#e91e63", "I": "#00bcd4", "J": "#ff5722",
	"K": "#8bc34a", "L": "#ff9800", "M": "#673ab7", "N": "#009688", "O": "#f44336",
	"P": "#2196f3", "Q": "#4caf50", "R": "#ff4081", "S": "#7c4dff", "T": "#00e676",
	"U": "#ffc107", "V": "#e040fb", "W": "#76ff03", "X": "#ff6e40", "Y": "#64ffda",
	"Z": "#ea80fc", ModdedGroup: "#95a5a6",
}

// GroupLabel is the text shown in a group header
func GroupLabel(groupKey string) string {
	if groupKey == ModdedGroup {
		return "MODDÉS"
	}
	return groupKey
}

// DinoGroup returns the group a dino is listed under: its folded first letter,
// "#" for names not starting with a letter, or ModdedGroup
func DinoGroup(d models.Dino) string {
	if d.Modded {
		return ModdedGroup
	}
	folded := strings.ToUpper(strings.TrimSpace(unidecode.Unidecode(d.Name)))
	if folded == "" || folded[0] < 'A' || folded[0] > 'Z' {
		return "#"
	}
	return folded[:1]
}

// SortDinos orders dinos by name with French collation
func SortDinos(dinos []models.Dino) {
	// Collators keep scratch buffers and are not safe for concurrent use
	c := collate.New(language.French, collate.IgnoreCase)
	sort.SliceStable(dinos, func(i, j int) bool {
		return c.CompareString(dinos[i].Name, dinos[j].Name) < 0
	})
}

// GroupDinos splits dinos by group, each group sorted
func GroupDinos(dinos []models.Dino) map[string][]models.Dino {
	groups := make(map[string][]models.Dino)
	for _, d := range dinos {
		key := DinoGroup(d)
		groups[key] = append(groups[key], d)
	}
	for key := range groups {
		SortDinos(groups[key])
	}
	return groups
}

// GroupKeys returns letter groups alphabetically with ModdedGroup last
func GroupKeys[T any](groups map[string][]T) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if (keys[i] == ModdedGroup) != (keys[j] == ModdedGroup) {
			return keys[j] == ModdedGroup
		}
		return keys[i] < keys[j]
	})
	return keys
}

// DinoCatalogue manages the dino price list stored under the dinos key
type DinoCatalogue struct {
	store     utils.Store
	publisher *Publisher
	now       func() time.Time
	mutex     sync.Mutex
}

// NewDinoCatalogue creates a catalogue backed by store
func NewDinoCatalogue(store utils.Store) *DinoCatalogue {
	return &DinoCatalogue{store: store, now: time.Now}
}

// Load returns the stored document, empty when nothing was saved yet
func (c *DinoCatalogue) Load(ctx context.Context) (models.DinoDocument, error) {
	var doc models.DinoDocument
	err := utils.GetJSON(ctx, c.store, utils.KeyDinos, &doc)
	if err != nil && !errors.Is(err, utils.ErrNotFound) {
		return doc, fmt.Errorf("failed to load dinos: %w", err)
	}
	if doc.Dinos == nil {
		doc.Dinos = []models.Dino{}
	}
	if doc.LetterMessages == nil {
		doc.LetterMessages = make(map[string]models.PublishedMessageBinding)
	}
	if doc.LetterColors == nil {
		doc.LetterColors = make(map[string]string)
	}
	return doc, nil
}

func (c *DinoCatalogue) save(ctx context.Context, doc models.DinoDocument) error {
	if err := utils.SetJSON(ctx, c.store, utils.KeyDinos, doc); err != nil {
		return fmt.Errorf("failed to save dinos: %w", err)
	}
	return nil
}

// update runs a read-modify-write cycle under the catalogue lock
func (c *DinoCatalogue) update(ctx context.Context, fn func(doc *models.DinoDocument) error) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	doc, err := c.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(&doc); err != nil {
		return err
	}
	return c.save(ctx, doc)
}

func validateDino(d models.Dino) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: dino name is required", ErrInvalidItem)
	}
	if d.PriceDiamonds < 0 || d.PriceStrawberries < 0 {
		return fmt.Errorf("%w: prices cannot be negative", ErrInvalidItem)
	}
	for _, v := range d.Variants {
		if strings.TrimSpace(v.Label) == "" {
			return fmt.Errorf("%w: variant label is required", ErrInvalidItem)
		}
		if v.PriceDiamonds < 0 || v.PriceStrawberries < 0 {
			return fmt.Errorf("%w: variant prices cannot be negative", ErrInvalidItem)
		}
	}
	return nil
}

// Get returns one dino
func (c *DinoCatalogue) Get(ctx context.Context, id string) (models.Dino, error) {
	doc, err := c.Load(ctx)
	if err != nil {
		return models.Dino{}, err
	}
	for _, d := range doc.Dinos {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Dino{}, fmt.Errorf("dino %s: %w", id, ErrItemNotFound)
}

// Add stores a new dino under a fresh id
func (c *DinoCatalogue) Add(ctx context.Context, d models.Dino) (models.Dino, error) {
	d.Name = strings.TrimSpace(d.Name)
	if err := validateDino(d); err != nil {
		return models.Dino{}, err
	}
	d.ID = uuid.NewString()
	d.CreatedAt = c.now()

	err := c.update(ctx, func(doc *models.DinoDocument) error {
		doc.Dinos = append(doc.Dinos, d)
		return nil
	})
	if err != nil {
		return models.Dino{}, err
	}
	utils.BotLogf("CATALOGUE", "Dino %s added (%s)", d.Name, d.ID)
	return d, nil
}

// Update replaces the fields of an existing dino, keeping its id and creation date
func (c *DinoCatalogue) Update(ctx context.Context, id string, d models.Dino) (models.Dino, error) {
	d.Name = strings.TrimSpace(d.Name)
	if err := validateDino(d); err != nil {
		return models.Dino{}, err
	}

	var updated models.Dino
	err := c.update(ctx, func(doc *models.DinoDocument) error {
		for i := range doc.Dinos {
			if doc.Dinos[i].ID == id {
				d.ID = id
				d.CreatedAt = doc.Dinos[i].CreatedAt
				doc.Dinos[i] = d
				updated = d
				return nil
			}
		}
		return fmt.Errorf("dino %s: %w", id, ErrItemNotFound)
	})
	return updated, err
}

// Delete removes a dino
func (c *DinoCatalogue) Delete(ctx context.Context, id string) error {
	return c.update(ctx, func(doc *models.DinoDocument) error {
		for i := range doc.Dinos {
			if doc.Dinos[i].ID == id {
				doc.Dinos = append(doc.Dinos[:i], doc.Dinos[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("dino %s: %w", id, ErrItemNotFound)
	})
}

// SetChannel records where the price list is published
func (c *DinoCatalogue) SetChannel(ctx context.Context, channelID string) error {
	return c.update(ctx, func(doc *models.DinoDocument) error {
		doc.ChannelID = channelID
		return nil
	})
}

// SetLetterColor overrides the embed color of a group
func (c *DinoCatalogue) SetLetterColor(ctx context.Context, group, color string) error {
	group = strings.ToUpper(strings.TrimSpace(group))
	if utils.ParseHexColor(color, -1) == -1 {
		return fmt.Errorf("%w: color %q, expected #rrggbb", ErrInvalidItem, color)
	}
	return c.update(ctx, func(doc *models.DinoDocument) error {
		doc.LetterColors[group] = color
		return nil
	})
}

// LetterColor resolves the color of a group: override, then default, then green
func LetterColor(doc models.DinoDocument, group string) string {
	if c, ok := doc.LetterColors[group]; ok && c != "" {
		return c
	}
	if c, ok := DefaultLetterColors[group]; ok {
		return c
	}
	return defaultLetterColor
}

// RenderAll renders every group of the document
func (c *DinoCatalogue) RenderAll(doc models.DinoDocument, budget int) map[string][]Page {
	groups := GroupDinos(doc.Dinos)
	out := make(map[string][]Page, len(groups))
	for key, dinos := range groups {
		color := utils.ParseHexColor(LetterColor(doc, key), utils.ColorSuccess)
		out[key] = RenderDinoGroup(key, dinos, color, budget)
	}
	return out
}

// RenderGroup renders a single group; an unknown group yields no pages
func (c *DinoCatalogue) RenderGroup(doc models.DinoDocument, group string, budget int) []Page {
	var dinos []models.Dino
	for _, d := range doc.Dinos {
		if DinoGroup(d) == group {
			dinos = append(dinos, d)
		}
	}
	SortDinos(dinos)
	color := utils.ParseHexColor(LetterColor(doc, group), utils.ColorSuccess)
	return RenderDinoGroup(group, dinos, color, budget)
}

// SaveBinding records the messages of a published group
func (c *DinoCatalogue) SaveBinding(ctx context.Context, binding models.PublishedMessageBinding) error {
	return c.update(ctx, func(doc *models.DinoDocument) error {
		doc.LetterMessages[binding.GroupKey] = binding
		return nil
	})
}

// RemoveBinding forgets a group's messages
func (c *DinoCatalogue) RemoveBinding(ctx context.Context, groupKey string) error {
	return c.update(ctx, func(doc *models.DinoDocument) error {
		delete(doc.LetterMessages, groupKey)
		return nil
	})
}
