package votes

import (
	"testing"

	"arki-bot/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"lower case", "ALICE", "alice"},
		{"accents", "Élodie", "elodie"},
		{"cedilla and punctuation", "Ça_va!", "cava"},
		{"collapse spaces", "  Jean   Dupont ", "jean dupont"},
		{"tabs are dropped", "a\tb", "ab"},
		{"digits kept", "Sniper42", "sniper42"},
		{"only symbols", "★彡", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, s := range []string{"Élodie  Dupont", "xX_Dark_Xx", "Zoé 42"} {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize is not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"Alice", "alice", true},
		{"Zoé", "zoe", true},
		{"Jo", "Jonathan", true},
		{"Dark Knight", "knighthood", true},
		{"bob", "alice", false},
		{"", "alice", false},
		{"!!!", "???", false},
		{"ab cd", "xy", false},
	}

	for _, tt := range tests {
		if got := FuzzyMatch(tt.a, tt.b); got != tt.expected {
			t.Errorf("FuzzyMatch(%q, %q) = %v, expected %v", tt.a, tt.b, got, tt.expected)
		}
	}
}

func testRoster() []models.Member {
	return []models.Member{
		models.NewMember("m1", "Alice", "alice_w"),
		models.NewMember("m2", "Bob"),
		models.NewMember("m3", "Bobby"),
		models.NewMember("m4", "Jo"),
		models.NewMember("m5", "jo"),
	}
}

func TestResolve(t *testing.T) {
	idx := BuildIndex(testRoster())
	aliases := map[string]string{"xXSniperXx": "Bobby"}

	tests := []struct {
		name       string
		player     string
		expectedID string
		expectedOK bool
	}{
		{"exact", "alice", "m1", true},
		{"exact case-insensitive", "BOB", "m2", true},
		{"second display name", "Alice W", "m1", true},
		{"ambiguous exact is unresolved", "jo", "", false},
		{"fuzzy first in roster order", "Bobb", "m2", true},
		{"alias on raw name", "xXSniperXx", "m3", true},
		{"unknown", "zzz", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := idx.Resolve(tt.player, aliases)
			if id != tt.expectedID || ok != tt.expectedOK {
				t.Errorf("Resolve(%q) = (%q, %v), expected (%q, %v)", tt.player, id, ok, tt.expectedID, tt.expectedOK)
			}
		})
	}
}

func TestResolveNilIndex(t *testing.T) {
	var idx *NameIndex
	if _, ok := idx.Resolve("alice", nil); ok {
		t.Error("Expected nil index to resolve nothing")
	}
	if idx.Size() != 0 {
		t.Errorf("Expected size 0, got %d", idx.Size())
	}
}

func TestBuildIndexSkipsEmptyNames(t *testing.T) {
	idx := BuildIndex([]models.Member{{ID: "m1", DisplayNames: []string{"★", "Alice"}}})
	if idx.Size() != 1 {
		t.Fatalf("Expected 1 member, got %d", idx.Size())
	}
	if _, ok := idx.byName[""]; ok {
		t.Error("Expected empty normalized names to be skipped")
	}
}

func BenchmarkNormalize(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Normalize("  Élodie_Dupont   du 42 ")
	}
}

func BenchmarkResolveFuzzy(b *testing.B) {
	members := make([]models.Member, 0, 1000)
	for i := 0; i < 1000; i++ {
		members = append(members, models.NewMember(string(rune('a'+i%26))+"member", "Player Number"))
	}
	idx := BuildIndex(members)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.Resolve("zzz", nil)
	}
}
