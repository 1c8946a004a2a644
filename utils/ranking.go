package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"arki-bot/models"
)

// RankingClient fetches the monthly player ranking from top-serveurs.net
type RankingClient struct {
	client *http.Client
}

// rankingResponse is the payload of the players-ranking endpoint
type rankingResponse struct {
	Players []struct {
		PlayerName string    `json:"playername"`
		Votes      voteCount `json:"votes"`
	} `json:"players"`
}

// MaxVotes caps a single player's count so payouts cannot overflow
const MaxVotes = math.MaxInt32

// voteCount accepts votes encoded either as a number or a numeric string
type voteCount int

func (v *voteCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil && !errors.Is(ferr, strconv.ErrRange) {
			// Unreadable counts rank last rather than failing the whole ranking
			*v = 0
			return nil
		}
		*v = clampVotes(f)
		return nil
	}
	*v = clampVotes(float64(n))
	return nil
}

// clampVotes keeps counts in [0, MaxVotes]; NaN counts as zero
func clampVotes(f float64) voteCount {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= MaxVotes:
		return MaxVotes
	}
	return voteCount(f)
}

// NewRankingClient creates a client with the given timeout
func NewRankingClient(timeout time.Duration) *RankingClient {
	return &RankingClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchRanking returns the players of url sorted by votes, highest first.
// Players with equal votes keep the order the API returned.
func (c *RankingClient) FetchRanking(ctx context.Context, url string) ([]models.RankingEntry, error) {
	if url == "" {
		return nil, fmt.Errorf("ranking URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("top-serveurs API returned status %d", resp.StatusCode)
	}

	var payload rankingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	ranking := make([]models.RankingEntry, 0, len(payload.Players))
	for _, p := range payload.Players {
		ranking = append(ranking, models.RankingEntry{
			PlayerName: p.PlayerName,
			Votes:      int(p.Votes),
		})
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Votes > ranking[j].Votes
	})

	BotLogf("VOTES", "Fetched ranking with %d players", len(ranking))
	return ranking, nil
}
