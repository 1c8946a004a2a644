package votes

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"arki-bot/models"
	"arki-bot/utils"
)

// Report is what the "full list" button shows after a publish run
type Report struct {
	MonthName    string                `json:"month"`
	Mode         Mode                  `json:"mode"`
	Ranking      []models.RankingEntry `json:"ranking"`
	Distribution Distribution          `json:"distribution"`
	Warnings     []string              `json:"warnings,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
}

func (r *Report) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	utils.BotErrorf("VOTES", "%s", msg)
	r.Warnings = append(r.Warnings, msg)
}

// ReportCache keeps the latest report per channel. A new run in the same channel
// replaces the previous report; reports expire after the TTL.
type ReportCache struct {
	cache *utils.TTLCache[string, *Report]
}

// NewReportCache creates an empty cache
func NewReportCache(ttl time.Duration) *ReportCache {
	return &ReportCache{cache: utils.NewTTLCache[string, *Report](ttl)}
}

// Put stores the report for a channel
func (c *ReportCache) Put(channelID string, report *Report) {
	c.cache.Set(channelID, report)
}

// Get returns the live report for a channel
func (c *ReportCache) Get(channelID string) (*Report, bool) {
	return c.cache.Get(channelID)
}

// ScheduleCleanup evicts expired reports periodically
func (c *ReportCache) ScheduleCleanup(s gocron.Scheduler) error {
	return c.cache.ScheduleCleanup(s, "vote-reports", time.Hour)
}
