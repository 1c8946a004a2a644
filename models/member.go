package models

import "strings"

// Member is a guild member as seen by the vote rewards flow
type Member struct {
	ID           string   `json:"id"`
	DisplayNames []string `json:"display_names"`
}

// NewMember builds a member keeping the first occurrence of every non-empty name
func NewMember(id string, names ...string) Member {
	m := Member{ID: id}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		m.DisplayNames = append(m.DisplayNames, n)
	}
	return m
}

// RankingEntry is one player of the monthly top-serveurs ranking
type RankingEntry struct {
	PlayerName string `json:"playername"`
	Votes      int    `json:"votes"`
}

// PayoutStatus is the outcome of a single payout
type PayoutStatus string

const (
	PayoutSuccess  PayoutStatus = "success"
	PayoutFailed   PayoutStatus = "failed"
	PayoutNotFound PayoutStatus = "notFound"
)

// PayoutResult records what happened to one ranking entry during a distribution
type PayoutResult struct {
	Rank       int          `json:"rank"`
	PlayerName string       `json:"player_name"`
	Votes      int          `json:"votes"`
	MemberID   string       `json:"member_id,omitempty"`
	Status     PayoutStatus `json:"status"`
	Amount     int64        `json:"amount"`
}

// Paid reports whether diamonds were actually credited
func (p PayoutResult) Paid() bool {
	return p.Status == PayoutSuccess
}
