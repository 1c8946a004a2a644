package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/bwmarrin/discordgo"
	"github.com/go-co-op/gocron/v2"

	"arki-bot/catalogue"
	"arki-bot/cogs"
	"arki-bot/config"
	"arki-bot/games/roulette"
	"arki-bot/models"
	"arki-bot/utils"
	"arki-bot/votes"
	"arki-bot/web"
)

const (
	storeCacheTTL     = 5 * time.Minute
	rankingTimeout    = 15 * time.Second
	perfLogInterval   = 15 * time.Minute
	shutdownTimeout   = 10 * time.Second
	storeCacheCleanup = 10 * time.Minute
)

var botStatus atomic.Value

func status() string {
	if s, ok := botStatus.Load().(string); ok {
		return s
	}
	return "unknown"
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)
	botStatus.Store("starting")

	ctx := context.Background()

	store, closeStore, err := setupStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to set up storage", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	settings := utils.NewSettingsManager(store, func() models.Settings {
		defaults := models.DefaultSettings()
		defaults.API.Timezone = cfg.Timezone
		if cfg.GuildID != "" {
			defaults.Guild.GuildID = cfg.GuildID
		}
		return defaults
	})

	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		slog.Error("Failed to create Discord session", "error", err)
		os.Exit(1)
	}
	// The roster needs the privileged members intent
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	guildID := func(ctx context.Context) string { return settings.Load(ctx).Guild.GuildID }
	ledger := utils.NewUnbelievaBoatClient(cfg.UnbelievaBoatToken, guildID(ctx))
	if !ledger.Configured() {
		utils.BotLogf("VOTES", "UNBELIEVABOAT_TOKEN not set, every payout will fail")
	}

	reports := votes.NewReportCache(cfg.ReportCacheTTL)
	runner := votes.NewRunner(
		settings,
		utils.NewRankingClient(rankingTimeout),
		cogs.NewDiscordRoster(session, guildID),
		ledger,
		cogs.NewDiscordAnnouncer(session),
		reports,
		cfg.RankingURL,
	)

	channel := catalogue.NewDiscordChannel(session)
	dinos := catalogue.NewDinoCatalogue(store)
	dinos.Attach(channel)
	shop := catalogue.NewShopCatalogue(store)
	shop.Attach(channel)
	rouletteConfigs := roulette.NewConfigStore(store)

	bot := cogs.NewBot(settings, runner, dinos, shop, rouletteConfigs)
	session.AddHandler(onReady(bot, cfg.ClientID, guildID))
	session.AddHandler(bot.OnInteractionCreate)
	session.AddHandler(func(s *discordgo.Session, _ *discordgo.Disconnect) {
		botStatus.Store("disconnected")
	})

	// Dashboard and /health
	dashboard, err := web.NewServer(ctx, web.Deps{
		Settings: settings,
		Runner:   runner,
		Dinos:    dinos,
		Shop:     shop,
		Roulette: rouletteConfigs,
		Balances: ledger,
		Status:   status,
	}, web.Options{
		Port:              cfg.Port,
		SessionSecret:     cfg.SessionSecret,
		DashboardPassword: cfg.DashboardPassword,
	})
	if err != nil {
		slog.Error("Failed to create dashboard", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := dashboard.Start(); err != nil {
			slog.Error("Dashboard stopped", "error", err)
		}
	}()

	scheduler, err := startScheduler(store, reports)
	if err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// Open Discord connection; the dashboard keeps running if it fails
	if err := session.Open(); err != nil {
		slog.Error("Failed to open Discord connection", "error", err)
		botStatus.Store("connection_failed")
	} else {
		slog.Info("Bot is now running. Press CTRL+C to exit.")
	}

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	slog.Info("Gracefully shutting down...")
	botStatus.Store("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := dashboard.Shutdown(shutdownCtx); err != nil {
		slog.Error("Dashboard shutdown failed", "error", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		slog.Error("Scheduler shutdown failed", "error", err)
	}
	if err := session.Close(); err != nil {
		slog.Error("Discord close failed", "error", err)
	}
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// setupStore layers PostgreSQL over the data directory when a database is configured,
// and puts a read cache in front. The returned func releases the pool.
func setupStore(ctx context.Context, cfg *config.Config) (*utils.CachedStore, func(), error) {
	fileStore, err := utils.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	var store utils.Store = fileStore
	closeStore := func() {}

	if cfg.UsePostgres() {
		pool, err := utils.SetupDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("Database setup failed, continuing with file storage", "error", err)
		} else {
			pg := utils.NewPGStore(pool)
			store = utils.NewLayeredStore(pg, fileStore)
			closeStore = pg.Close
			slog.Info("Database connected successfully")
		}
	} else {
		utils.BotLogf("STORE", "DATABASE_URL not set, using files in %s", cfg.DataDir)
	}

	return utils.NewCachedStore(store, storeCacheTTL), closeStore, nil
}

func startScheduler(store *utils.CachedStore, reports *votes.ReportCache) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	if err := store.Cache().ScheduleCleanup(scheduler, "store-cache", storeCacheCleanup); err != nil {
		return nil, err
	}
	if err := reports.ScheduleCleanup(scheduler); err != nil {
		return nil, err
	}
	if err := utils.DiscordOpt.SchedulePerformanceMonitoring(scheduler, perfLogInterval); err != nil {
		return nil, err
	}
	scheduler.Start()
	return scheduler, nil
}

func onReady(bot *cogs.Bot, appID string, guildID func(context.Context) string) func(*discordgo.Session, *discordgo.Ready) {
	return func(s *discordgo.Session, event *discordgo.Ready) {
		slog.Info("Discord bot logged in", "user", event.User.Username, "id", event.User.ID)
		botStatus.Store("online")

		if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
			Activities: []*discordgo.Activity{
				{
					Name: "Arki' Family",
					Type: discordgo.ActivityTypeWatching,
				},
			},
			Status: "online",
		}); err != nil {
			slog.Error("Failed to update status", "error", err)
		}

		if err := utils.DiscordOpt.HealthCheck(s); err != nil {
			slog.Error("Discord API health check failed", "error", err)
		}

		// Register slash commands
		if err := bot.RegisterCommands(s, appID, guildID(context.Background())); err != nil {
			slog.Error("Failed to register slash commands", "error", err)
		}
	}
}
