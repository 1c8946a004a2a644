package votes

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"arki-bot/models"
)

// Normalize folds a display name to the comparison form shared by every matching rule:
// lower-case, accents stripped, only [0-9a-z ] kept, single spaces, trimmed.
func Normalize(name string) string {
	if name == "" {
		return ""
	}

	// A Chain carries state, so one is built per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(stripMarks, strings.ToLower(name))
	if err != nil {
		folded = strings.ToLower(name)
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case r == ' ':
			pendingSpace = b.Len() > 0
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FuzzyMatch reports whether two names plausibly designate the same player
func FuzzyMatch(a, b string) bool {
	return fuzzyMatchNormalized(Normalize(a), Normalize(b))
}

func fuzzyMatchNormalized(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	aWords, bWords := significantWords(a), significantWords(b)
	for _, aw := range aWords {
		for _, bw := range bWords {
			if strings.HasPrefix(aw, bw) || strings.HasPrefix(bw, aw) {
				return true
			}
		}
	}

	if len(a) >= 3 && strings.HasPrefix(b, a) {
		return true
	}
	if len(b) >= 3 && strings.HasPrefix(a, b) {
		return true
	}
	return false
}

// significantWords keeps the words longer than two characters
func significantWords(s string) []string {
	words := strings.Fields(s)
	out := words[:0]
	for _, w := range words {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

type indexedMember struct {
	id    string
	names []string // normalized, deduplicated
}

// NameIndex maps normalized display names to member ids, remembering roster order
type NameIndex struct {
	byName  map[string][]string
	members []indexedMember
}

// BuildIndex indexes every display name of every member
func BuildIndex(members []models.Member) *NameIndex {
	idx := &NameIndex{
		byName:  make(map[string][]string, len(members)*2),
		members: make([]indexedMember, 0, len(members)),
	}

	for _, m := range members {
		entry := indexedMember{id: m.ID}
		for _, name := range m.DisplayNames {
			key := Normalize(name)
			if key == "" {
				continue
			}
			if !containsString(entry.names, key) {
				entry.names = append(entry.names, key)
			}
			if !containsString(idx.byName[key], m.ID) {
				idx.byName[key] = append(idx.byName[key], m.ID)
			}
		}
		idx.members = append(idx.members, entry)
	}
	return idx
}

// Size returns the number of indexed members
func (idx *NameIndex) Size() int {
	if idx == nil {
		return 0
	}
	return len(idx.members)
}

// Resolve finds the member id for a ranking player name.
// The alias map is consulted on the raw name first. An exact normalized hit shared by
// several members is left unresolved rather than guessed. Without an exact hit the
// roster is scanned in order and the first fuzzy match wins.
func (idx *NameIndex) Resolve(playerName string, aliases map[string]string) (string, bool) {
	if idx == nil {
		return "", false
	}

	name := playerName
	if alias, ok := aliases[playerName]; ok && alias != "" {
		name = alias
	}

	key := Normalize(name)
	if key == "" {
		return "", false
	}

	switch ids := idx.byName[key]; len(ids) {
	case 1:
		return ids[0], true
	case 0:
	default:
		return "", false
	}

	for _, m := range idx.members {
		for _, n := range m.names {
			if fuzzyMatchNormalized(key, n) {
				return m.id, true
			}
		}
	}
	return "", false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
