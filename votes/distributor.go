package votes

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"arki-bot/models"
	"arki-bot/utils"
)

var (
	// ErrRankingUnavailable means the vote ranking could not be fetched
	ErrRankingUnavailable = errors.New("vote ranking unavailable")
	// ErrRosterUnavailable means the guild member list could not be fetched
	ErrRosterUnavailable = errors.New("guild roster unavailable")
)

// Ledger credits in-game currency to a member
type Ledger interface {
	CreditBalance(ctx context.Context, memberID string, amount int64, reason string) error
}

// DryRunLedger accepts every credit without touching any account
type DryRunLedger struct{}

// CreditBalance always succeeds
func (DryRunLedger) CreditBalance(context.Context, string, int64, string) error {
	return nil
}

// RewardConfig holds what a distribution needs from the settings
type RewardConfig struct {
	DiamondsPerVote int64
	TopBonusByRank  map[int]int64
	ReasonLabel     string
	Aliases         map[string]string
}

// RewardConfigFromSettings extracts the reward parameters
func RewardConfigFromSettings(s models.Settings) RewardConfig {
	return RewardConfig{
		DiamondsPerVote: s.Rewards.DiamondsPerVote,
		TopBonusByRank:  s.Rewards.TopDiamonds,
		ReasonLabel:     s.Rewards.ReasonLabel,
		Aliases:         s.Aliases,
	}
}

// AmountFor computes the payout of a 1-based rank. It is never negative: the ledger
// treats a negative credit as a debit.
func (c RewardConfig) AmountFor(rank, votes int) int64 {
	return max(0, int64(max(votes, 0))*max(c.DiamondsPerVote, 0)+max(c.TopBonusByRank[rank], 0))
}

// Summary tallies a distribution. Success+Failed+len(NotFoundNames) equals the ranking length.
type Summary struct {
	Success       int      `json:"success"`
	Failed        int      `json:"failed"`
	NotFoundNames []string `json:"not_found"`
}

// Total returns the number of processed entries
func (s Summary) Total() int {
	return s.Success + s.Failed + len(s.NotFoundNames)
}

// Distribution is the outcome of one payout run
type Distribution struct {
	RunID     string                `json:"run_id"`
	DryRun    bool                  `json:"dry_run"`
	Results   []models.PayoutResult `json:"results"`
	Summary   Summary               `json:"summary"`
	CreatedAt time.Time             `json:"created_at"`
}

// TotalPaid sums the diamonds actually credited
func (d Distribution) TotalPaid() int64 {
	var total int64
	for _, r := range d.Results {
		if r.Paid() {
			total += r.Amount
		}
	}
	return total
}

// Distribute resolves every ranking entry and credits the resolved ones, one ledger call
// at a time in ranking order. A failed credit is recorded and never retried.
func Distribute(ctx context.Context, ranking []models.RankingEntry, index *NameIndex, cfg RewardConfig, ledger Ledger) Distribution {
	_, dryRun := ledger.(DryRunLedger)
	d := Distribution{
		RunID:     uuid.NewString(),
		DryRun:    dryRun,
		Results:   make([]models.PayoutResult, 0, len(ranking)),
		Summary:   Summary{NotFoundNames: []string{}},
		CreatedAt: time.Now(),
	}

	for i, entry := range ranking {
		rank := i + 1
		result := models.PayoutResult{
			Rank:       rank,
			PlayerName: entry.PlayerName,
			Votes:      entry.Votes,
			Amount:     cfg.AmountFor(rank, entry.Votes),
		}

		memberID, ok := index.Resolve(entry.PlayerName, cfg.Aliases)
		if !ok {
			result.Status = models.PayoutNotFound
			d.Summary.NotFoundNames = append(d.Summary.NotFoundNames, entry.PlayerName)
			d.Results = append(d.Results, result)
			continue
		}

		result.MemberID = memberID
		if err := ledger.CreditBalance(ctx, memberID, result.Amount, cfg.ReasonLabel); err != nil {
			utils.BotErrorf("VOTES", "Credit of %d to %s (%s) failed: %v", result.Amount, entry.PlayerName, memberID, err)
			result.Status = models.PayoutFailed
			d.Summary.Failed++
		} else {
			result.Status = models.PayoutSuccess
			d.Summary.Success++
		}
		d.Results = append(d.Results, result)
	}

	utils.BotLogf("VOTES", "Distribution %s done (dry run %v): %d success, %d failed, %d not found",
		d.RunID, d.DryRun, d.Summary.Success, d.Summary.Failed, len(d.Summary.NotFoundNames))
	return d
}
