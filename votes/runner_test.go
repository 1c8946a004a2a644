package votes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"arki-bot/models"
	"arki-bot/utils"
)

type fakeRanking struct {
	entries []models.RankingEntry
	err     error
	url     string
}

func (f *fakeRanking) FetchRanking(_ context.Context, url string) ([]models.RankingEntry, error) {
	f.url = url
	return f.entries, f.err
}

type fakeRoster struct {
	members []models.Member
	err     error
}

func (f *fakeRoster) Members(context.Context) ([]models.Member, error) {
	return f.members, f.err
}

type postedMessages struct {
	channelID string
	chunks    []string
	ping      bool
}

type fakeAnnouncer struct {
	posts   []postedMessages
	roles   []string
	failAll bool
}

func (f *fakeAnnouncer) PostMessages(_ context.Context, channelID string, chunks []string, ping bool) error {
	if f.failAll {
		return errors.New("discord down")
	}
	f.posts = append(f.posts, postedMessages{channelID, chunks, ping})
	return nil
}

func (f *fakeAnnouncer) GrantRole(_ context.Context, _, memberID, roleID string) error {
	if f.failAll {
		return errors.New("discord down")
	}
	f.roles = append(f.roles, memberID+":"+roleID)
	return nil
}

type runnerFixture struct {
	runner    *Runner
	ranking   *fakeRanking
	roster    *fakeRoster
	ledger    *fakeLedger
	announcer *fakeAnnouncer
	reports   *ReportCache
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	store, err := utils.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	f := &runnerFixture{
		ranking: &fakeRanking{entries: []models.RankingEntry{
			{PlayerName: "Alice", Votes: 40},
			{PlayerName: "Ghost", Votes: 20},
		}},
		roster:    &fakeRoster{members: []models.Member{models.NewMember("m1", "Alice")}},
		ledger:    &fakeLedger{},
		announcer: &fakeAnnouncer{},
		reports:   NewReportCache(time.Hour),
	}
	f.runner = NewRunner(utils.NewSettingsManager(store, nil), f.ranking, f.roster, f.ledger, f.announcer, f.reports, "")
	f.runner.now = func() time.Time { return time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC) }
	return f
}

func TestRunPreview(t *testing.T) {
	f := newRunnerFixture(t)

	report, err := f.runner.Run(context.Background(), ModePreview, "chan")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !report.Distribution.DryRun || len(f.ledger.calls) != 0 {
		t.Error("Expected a preview to credit nothing")
	}
	if len(f.announcer.posts) != 0 {
		t.Error("Expected a preview to post nothing")
	}
	if report.MonthName != "MARS" {
		t.Errorf("Expected MARS, got %s", report.MonthName)
	}
	if f.ranking.url != models.DefaultSettings().API.RankingURL {
		t.Errorf("Expected the settings ranking URL, got %q", f.ranking.url)
	}
	if cached, ok := f.reports.Get("chan"); !ok || cached != report {
		t.Error("Expected the report to be cached under its scope")
	}
}

func TestRunPay(t *testing.T) {
	f := newRunnerFixture(t)

	report, err := f.runner.Run(context.Background(), ModePay, "chan")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(f.ledger.calls) != 1 || f.ledger.calls[0].amount != 4000 {
		t.Errorf("Expected one credit of 4000, got %+v", f.ledger.calls)
	}
	if len(f.announcer.posts) != 1 {
		t.Fatalf("Expected only the admin log, got %d posts", len(f.announcer.posts))
	}
	admin := f.announcer.posts[0]
	if admin.channelID != models.DefaultSettings().Guild.AdminLogChannelID || admin.ping {
		t.Errorf("Unexpected admin post %+v", admin)
	}
	if text := strings.Join(admin.chunks, "\n"); !strings.Contains(text, "/admininventaire donner membre:<@m1>") {
		t.Errorf("Expected DraftBot commands in the admin log, got:\n%s", text)
	}
	if len(f.announcer.roles) != 0 {
		t.Error("Expected no role change without publishing")
	}
	if report.Distribution.Summary.Total() != 2 {
		t.Errorf("Unexpected summary %+v", report.Distribution.Summary)
	}
}

func TestRunPublish(t *testing.T) {
	f := newRunnerFixture(t)

	if _, err := f.runner.Run(context.Background(), ModePublish, "chan"); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	settings := models.DefaultSettings()
	if len(f.announcer.posts) != 2 {
		t.Fatalf("Expected announcement and admin log, got %d posts", len(f.announcer.posts))
	}
	if f.announcer.posts[0].channelID != settings.Guild.ResultsChannelID || !f.announcer.posts[0].ping {
		t.Errorf("Unexpected announcement %+v", f.announcer.posts[0])
	}
	if len(f.announcer.roles) != 1 || f.announcer.roles[0] != "m1:"+settings.Guild.TopVoterRoleID {
		t.Errorf("Expected the top voter role for m1, got %v", f.announcer.roles)
	}
}

func TestRunDeliveryFailureIsAWarning(t *testing.T) {
	f := newRunnerFixture(t)
	f.announcer.failAll = true

	report, err := f.runner.Run(context.Background(), ModePublish, "chan")
	if err != nil {
		t.Fatalf("Expected delivery failures not to fail the run, got %v", err)
	}
	if len(report.Warnings) != 3 {
		t.Errorf("Expected 3 warnings, got %v", report.Warnings)
	}
	if len(f.ledger.calls) != 1 {
		t.Error("Expected the payout to happen anyway")
	}
}

func TestRunUpstreamFailures(t *testing.T) {
	f := newRunnerFixture(t)
	f.ranking.err = errors.New("timeout")
	if _, err := f.runner.Run(context.Background(), ModePay, "chan"); !errors.Is(err, ErrRankingUnavailable) {
		t.Errorf("Expected ErrRankingUnavailable, got %v", err)
	}

	f = newRunnerFixture(t)
	f.roster.err = errors.New("missing intent")
	if _, err := f.runner.Run(context.Background(), ModePay, "chan"); !errors.Is(err, ErrRosterUnavailable) {
		t.Errorf("Expected ErrRosterUnavailable, got %v", err)
	}
	if len(f.ledger.calls) != 0 {
		t.Error("Expected nothing credited when the roster is unavailable")
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{"preview": ModePreview, "TEST": ModePreview, " pay ": ModePay, "publish": ModePublish}
	for in, want := range tests {
		if got, err := ParseMode(in); err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("burn"); err == nil {
		t.Error("Expected unknown mode to be rejected")
	}
}
