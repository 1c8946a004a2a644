package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"arki-bot/catalogue"
	"arki-bot/games/roulette"
	"arki-bot/utils"
	"arki-bot/votes"
)

// BalanceReader reads a member's UnbelievaBoat account
type BalanceReader interface {
	GetBalance(ctx context.Context, memberID string) (utils.Balance, error)
}

// Deps are the services the dashboard drives
type Deps struct {
	Settings *utils.SettingsManager
	Runner   *votes.Runner
	Dinos    *catalogue.DinoCatalogue
	Shop     *catalogue.ShopCatalogue
	Roulette *roulette.ConfigStore
	Balances BalanceReader
	// Status reports the Discord connection state for /health and the overview
	Status func() string
}

// Options configures the HTTP side of the dashboard
type Options struct {
	Port              string
	SessionSecret     string
	DashboardPassword string
	SecureCookies     bool
	// BcryptCost defaults to bcrypt.DefaultCost
	BcryptCost int
}

// Server is the admin dashboard
type Server struct {
	deps              Deps
	secret            []byte
	dashboardPassword string
	secureCookies     bool
	passwords         *passwords
	engine            *gin.Engine
	http              *http.Server
	started           time.Time
	now               func() time.Time
}

// NewServer hashes the dashboard passwords and builds the router
func NewServer(ctx context.Context, deps Deps, opts Options) (*Server, error) {
	if opts.SessionSecret == "" {
		return nil, errors.New("session secret is required")
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if deps.Status == nil {
		deps.Status = func() string { return "unknown" }
	}

	s := &Server{
		deps:              deps,
		secret:            []byte(opts.SessionSecret),
		dashboardPassword: opts.DashboardPassword,
		secureCookies:     opts.SecureCookies,
		passwords:         &passwords{cost: opts.BcryptCost},
		started:           time.Now(),
		now:               time.Now,
	}

	auth := deps.Settings.Load(ctx).Auth
	if err := s.passwords.set(adminPassword(auth, opts.DashboardPassword), auth.StaffPassword); err != nil {
		return nil, err
	}

	s.engine = s.routes()
	port := opts.Port
	if port == "" {
		port = "5000"
	}
	s.http = &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), noStore())

	r.GET("/health", s.health)
	r.GET("/login", s.loginForm)
	r.POST("/login", s.login)
	r.POST("/logout", s.logout)
	r.GET("/logout", s.logout)

	api := r.Group("/api", s.requireAuth())
	{
		api.GET("/overview", s.overview)

		api.GET("/roulette", s.getRoulette)
		api.POST("/roulette", s.saveRoulette)

		api.GET("/votes/ranking", s.votesRanking)
		api.POST("/votes/run", s.votesRun)
		api.GET("/votes/report", s.votesReport)
		api.GET("/balance/:memberID", s.balance)

		api.GET("/settings", s.getSettings)
		api.GET("/settings/:section", s.getSettingsSection)
		api.PUT("/settings/:section", requireAdmin(), s.updateSettingsSection)

		dinos := api.Group("/dinos")
		dinos.GET("", s.listDinos)
		dinos.POST("", s.addDino)
		dinos.PUT("/channel", s.setDinoChannel)
		dinos.PUT("/colors/:letter", s.setLetterColor)
		dinos.POST("/publish", s.publishDinos)
		dinos.POST("/publish/:letter", s.publishDinoLetter)
		dinos.GET("/:id", s.getDino)
		dinos.PUT("/:id", s.updateDino)
		dinos.DELETE("/:id", s.deleteDino)

		shop := api.Group("/shop")
		shop.GET("", s.getShop)
		shop.PUT("/channel", s.setShopChannel)
		shop.POST("/categories", s.addCategory)
		shop.POST("/packs", s.addPack)
		shop.GET("/packs/:id", s.getPack)
		shop.PUT("/packs/:id", s.updatePack)
		shop.DELETE("/packs/:id", s.deletePack)
		shop.POST("/publish", s.publishShop)
		shop.POST("/publish/:category", s.publishShopCategory)
	}
	return r
}

// Start serves until Shutdown; ErrServerClosed is not an error
func (s *Server) Start() error {
	utils.BotLogf("WEB", "Dashboard listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("dashboard server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for running ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"service":    "arki-bot",
		"bot_status": s.deps.Status(),
		"uptime":     time.Since(s.started).Round(time.Second).String(),
	})
}

// writeError maps domain errors to HTTP statuses
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, catalogue.ErrItemNotFound), errors.Is(err, utils.ErrUnknownSection):
		status = http.StatusNotFound
	case errors.Is(err, catalogue.ErrInvalidItem), errors.Is(err, catalogue.ErrNoChannel),
		errors.Is(err, utils.ErrInvalidSettings):
		status = http.StatusBadRequest
	case errors.Is(err, roulette.ErrTooFewChoices), errors.Is(err, roulette.ErrTooManyChoices),
		errors.Is(err, roulette.ErrEmptyTitle), errors.Is(err, roulette.ErrTitleTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": roulette.ConfigErrorMessage(err)})
		return
	case errors.Is(err, votes.ErrRankingUnavailable), errors.Is(err, votes.ErrRosterUnavailable),
		errors.Is(err, utils.ErrLedgerNotConfigured):
		status = http.StatusBadGateway
	case errors.Is(err, catalogue.ErrNoPublisher):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		utils.BotErrorf("WEB", "%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
