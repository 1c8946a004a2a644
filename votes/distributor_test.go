package votes

import (
	"context"
	"errors"
	"testing"

	"arki-bot/models"
)

type creditCall struct {
	memberID string
	amount   int64
	reason   string
}

// fakeLedger records credits and fails for the configured members
type fakeLedger struct {
	calls []creditCall
	fail  map[string]bool
}

func (l *fakeLedger) CreditBalance(_ context.Context, memberID string, amount int64, reason string) error {
	l.calls = append(l.calls, creditCall{memberID, amount, reason})
	if l.fail[memberID] {
		return errors.New("ledger unavailable")
	}
	return nil
}

func testRewardConfig() RewardConfig {
	return RewardConfig{
		DiamondsPerVote: 100,
		TopBonusByRank:  map[int]int64{4: 4000, 5: 3000},
		ReasonLabel:     "Récompense votes mensuels",
	}
}

func TestDistribute(t *testing.T) {
	idx := BuildIndex([]models.Member{
		models.NewMember("m1", "Alice"),
		models.NewMember("m2", "Bob"),
		models.NewMember("m3", "Charlie"),
	})
	ranking := []models.RankingEntry{
		{PlayerName: "Alice", Votes: 50},
		{PlayerName: "unknown_player", Votes: 30},
		{PlayerName: "Bob", Votes: 20},
		{PlayerName: "Charlie", Votes: 10},
	}
	ledger := &fakeLedger{fail: map[string]bool{"m2": true}}

	d := Distribute(context.Background(), ranking, idx, testRewardConfig(), ledger)

	expected := []models.PayoutResult{
		{Rank: 1, PlayerName: "Alice", Votes: 50, MemberID: "m1", Status: models.PayoutSuccess, Amount: 5000},
		{Rank: 2, PlayerName: "unknown_player", Votes: 30, Status: models.PayoutNotFound, Amount: 3000},
		{Rank: 3, PlayerName: "Bob", Votes: 20, MemberID: "m2", Status: models.PayoutFailed, Amount: 2000},
		{Rank: 4, PlayerName: "Charlie", Votes: 10, MemberID: "m3", Status: models.PayoutSuccess, Amount: 5000},
	}
	if len(d.Results) != len(expected) {
		t.Fatalf("Expected %d results, got %d", len(expected), len(d.Results))
	}
	for i, want := range expected {
		if d.Results[i] != want {
			t.Errorf("Result %d = %+v, expected %+v", i, d.Results[i], want)
		}
	}

	if d.Summary.Success != 2 || d.Summary.Failed != 1 {
		t.Errorf("Expected 2 success and 1 failed, got %+v", d.Summary)
	}
	if len(d.Summary.NotFoundNames) != 1 || d.Summary.NotFoundNames[0] != "unknown_player" {
		t.Errorf("Expected unknown_player not found, got %v", d.Summary.NotFoundNames)
	}
	if d.Summary.Total() != len(ranking) {
		t.Errorf("Summary total %d does not match ranking length %d", d.Summary.Total(), len(ranking))
	}
	if d.TotalPaid() != 10000 {
		t.Errorf("Expected 10000 paid, got %d", d.TotalPaid())
	}
	if d.DryRun {
		t.Error("Expected a real run")
	}
	if d.RunID == "" {
		t.Error("Expected a run id")
	}

	// One call per resolved player, in ranking order, failures not retried
	wantCalls := []string{"m1", "m2", "m3"}
	if len(ledger.calls) != len(wantCalls) {
		t.Fatalf("Expected %d ledger calls, got %d", len(wantCalls), len(ledger.calls))
	}
	for i, id := range wantCalls {
		if ledger.calls[i].memberID != id {
			t.Errorf("Call %d went to %s, expected %s", i, ledger.calls[i].memberID, id)
		}
		if ledger.calls[i].reason != "Récompense votes mensuels" {
			t.Errorf("Unexpected reason %q", ledger.calls[i].reason)
		}
	}
}

func TestDistributeDryRun(t *testing.T) {
	idx := BuildIndex([]models.Member{models.NewMember("m1", "Alice")})
	ranking := []models.RankingEntry{{PlayerName: "Alice", Votes: 3}}

	d := Distribute(context.Background(), ranking, idx, testRewardConfig(), DryRunLedger{})
	if !d.DryRun {
		t.Error("Expected dry run to be flagged")
	}
	if d.Summary.Success != 1 || d.Results[0].Amount != 300 {
		t.Errorf("Unexpected dry run outcome: %+v", d.Results)
	}
}

func TestDistributeEmptyRanking(t *testing.T) {
	d := Distribute(context.Background(), nil, BuildIndex(nil), testRewardConfig(), &fakeLedger{})
	if d.Summary.Total() != 0 || len(d.Results) != 0 {
		t.Errorf("Expected empty distribution, got %+v", d)
	}
	if d.Summary.NotFoundNames == nil {
		t.Error("Expected an empty, non-nil not found list")
	}
}

func TestAmountFor(t *testing.T) {
	cfg := testRewardConfig()
	tests := []struct {
		rank, votes int
		expected    int64
	}{
		{1, 50, 5000},
		{4, 10, 5000},
		{5, 0, 3000},
		{11, 7, 700},
	}
	for _, tt := range tests {
		if got := cfg.AmountFor(tt.rank, tt.votes); got != tt.expected {
			t.Errorf("AmountFor(%d, %d) = %d, expected %d", tt.rank, tt.votes, got, tt.expected)
		}
	}
}

func TestAmountForNeverNegative(t *testing.T) {
	tests := []struct {
		name  string
		cfg   RewardConfig
		rank  int
		votes int
	}{
		{"negative votes", testRewardConfig(), 11, -5},
		{"negative rate", RewardConfig{DiamondsPerVote: -100}, 1, 12},
		{"negative bonus", RewardConfig{TopBonusByRank: map[int]int64{1: -4000}}, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.AmountFor(tt.rank, tt.votes); got < 0 {
				t.Errorf("AmountFor(%d, %d) = %d, expected >= 0", tt.rank, tt.votes, got)
			}
		})
	}
}

func TestDistributeNeverDebits(t *testing.T) {
	idx := BuildIndex([]models.Member{models.NewMember("m1", "Alice")})
	ranking := []models.RankingEntry{{PlayerName: "Alice", Votes: -5}}
	ledger := &fakeLedger{}

	Distribute(context.Background(), ranking, idx, testRewardConfig(), ledger)

	for _, call := range ledger.calls {
		if call.amount < 0 {
			t.Errorf("credit of %d to %s, expected no debit", call.amount, call.memberID)
		}
	}
}

func TestRewardConfigFromSettings(t *testing.T) {
	s := models.DefaultSettings()
	s.Aliases = map[string]string{"a": "b"}
	cfg := RewardConfigFromSettings(s)
	if cfg.DiamondsPerVote != 100 || cfg.TopBonusByRank[4] != 4000 || cfg.Aliases["a"] != "b" {
		t.Errorf("Unexpected config %+v", cfg)
	}
}
