package votes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"arki-bot/catalogue"
	"arki-bot/models"
	"arki-bot/utils"
)

// Mode selects what a vote run does with its distribution
type Mode string

const (
	// ModePreview credits nothing and publishes nothing
	ModePreview Mode = "preview"
	// ModePay credits diamonds and reports to the admin log only
	ModePay Mode = "pay"
	// ModePublish credits diamonds, posts the public announcement and grants the top voter role
	ModePublish Mode = "publish"
)

// ParseMode accepts the mode names used by commands and the dashboard
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePreview, "test":
		return ModePreview, nil
	case ModePay:
		return ModePay, nil
	case ModePublish:
		return ModePublish, nil
	}
	return "", fmt.Errorf("unknown vote mode %q", s)
}

// RankingSource fetches the monthly ranking
type RankingSource interface {
	FetchRanking(ctx context.Context, url string) ([]models.RankingEntry, error)
}

// RosterProvider lists the guild members
type RosterProvider interface {
	Members(ctx context.Context) ([]models.Member, error)
}

// Announcer delivers the outcome of a run to Discord
type Announcer interface {
	PostMessages(ctx context.Context, channelID string, chunks []string, pingEveryone bool) error
	GrantRole(ctx context.Context, guildID, memberID, roleID string) error
}

// Runner wires ranking, roster, ledger and announcements into one vote run
type Runner struct {
	settings   *utils.SettingsManager
	ranking    RankingSource
	roster     RosterProvider
	ledger     Ledger
	announcer  Announcer
	reports    *ReportCache
	rankingURL string
	now        func() time.Time
}

// NewRunner creates a runner. rankingURL overrides the settings URL when not empty.
func NewRunner(settings *utils.SettingsManager, ranking RankingSource, roster RosterProvider, ledger Ledger, announcer Announcer, reports *ReportCache, rankingURL string) *Runner {
	return &Runner{
		settings:   settings,
		ranking:    ranking,
		roster:     roster,
		ledger:     ledger,
		announcer:  announcer,
		reports:    reports,
		rankingURL: rankingURL,
		now:        time.Now,
	}
}

// Reports exposes the report cache to the full list view
func (r *Runner) Reports() *ReportCache {
	return r.reports
}

// Ranking fetches the ranking the next run would use
func (r *Runner) Ranking(ctx context.Context) ([]models.RankingEntry, error) {
	url := r.rankingURL
	if url == "" {
		url = r.settings.Load(ctx).API.RankingURL
	}
	ranking, err := r.ranking.FetchRanking(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRankingUnavailable, err)
	}
	return ranking, nil
}

// Run performs one vote run and caches its report under scope. Delivery problems after
// the payout are recorded as warnings on the report since the credits already happened.
func (r *Runner) Run(ctx context.Context, mode Mode, scope string) (*Report, error) {
	settings := r.settings.Load(ctx)
	month := PreviousMonthName(r.now(), LoadLocation(settings.API.Timezone))

	ranking, err := r.Ranking(ctx)
	if err != nil {
		return nil, err
	}

	members, err := r.roster.Members(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRosterUnavailable, err)
	}
	index := BuildIndex(members)

	ledger := r.ledger
	if mode == ModePreview {
		ledger = DryRunLedger{}
	}

	utils.BotLogf("VOTES", "Run %s for %s: %d players, %d members", mode, month, len(ranking), index.Size())
	report := &Report{
		MonthName:    month,
		Mode:         mode,
		Ranking:      ranking,
		Distribution: Distribute(ctx, ranking, index, RewardConfigFromSettings(settings), ledger),
		CreatedAt:    r.now(),
	}

	if mode != ModePreview {
		r.deliver(ctx, settings, report)
	}
	if r.reports != nil && scope != "" {
		r.reports.Put(scope, report)
	}
	return report, nil
}

func (r *Runner) deliver(ctx context.Context, settings models.Settings, report *Report) {
	guild := settings.Guild
	d := report.Distribution

	if report.Mode == ModePublish {
		chunks := BuildAnnouncement(settings, report.MonthName, d)
		if err := r.announcer.PostMessages(ctx, guild.ResultsChannelID, chunks, settings.Style.EveryonePing); err != nil {
			report.warn("annonce non publiée : %v", err)
		}
		if len(d.Results) > 0 && d.Results[0].MemberID != "" && guild.TopVoterRoleID != "" {
			if err := r.announcer.GrantRole(ctx, guild.GuildID, d.Results[0].MemberID, guild.TopVoterRoleID); err != nil {
				report.warn("rôle top voteur non attribué : %v", err)
			}
		}
	}

	if guild.AdminLogChannelID == "" {
		return
	}
	log := AdminSummary(report.MonthName, d)
	if commands := DraftBotCommands(d.Results, settings.Rewards.TopLots); len(commands) > 0 {
		log += "\n\n**Commandes DraftBot :**\n" + strings.Join(commands, "\n")
	}
	chunks := catalogue.SplitLines(log, utils.MaxMessageLength)
	if err := r.announcer.PostMessages(ctx, guild.AdminLogChannelID, chunks, false); err != nil {
		report.warn("log admin non envoyé : %v", err)
	}
}
