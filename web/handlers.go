package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"arki-bot/catalogue"
	"arki-bot/games/roulette"
	"arki-bot/models"
	"arki-bot/utils"
	"arki-bot/votes"
)

const (
	// dashboardScope is the report cache key of runs triggered from the dashboard
	dashboardScope = "dashboard"
	runTimeout     = 10 * time.Minute
	publishTimeout = 5 * time.Minute
)

func (s *Server) overview(c *gin.Context) {
	ctx := c.Request.Context()
	settings := s.deps.Settings.Load(ctx)

	cfg, err := s.deps.Roulette.Load(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	dinos, err := s.deps.Dinos.Load(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	shop, err := s.deps.Shop.Load(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"role":       c.GetString(roleKey),
		"bot_status": s.deps.Status(),
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"roulette":   cfg,
		"guild":      settings.Guild,
		"rewards":    settings.Rewards,
		"dinos":      len(dinos.Dinos),
		"packs":      len(shop.Packs),
		"discord":    utils.DiscordOpt.GetMetrics(),
	})
}

func (s *Server) getRoulette(c *gin.Context) {
	cfg, err := s.deps.Roulette.Load(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

type rouletteRequest struct {
	Title   string   `json:"title" form:"title"`
	Choices []string `json:"choices" form:"choices"`
	// ChoicesText holds one choice per line, as typed in a textarea
	ChoicesText string `json:"choicesText" form:"choicesText"`
}

func (s *Server) saveRoulette(c *gin.Context) {
	var req rouletteRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	choices := req.Choices
	if req.ChoicesText != "" {
		choices = roulette.ParseChoices(req.ChoicesText, "\n")
	}

	cfg, err := s.deps.Roulette.Save(c.Request.Context(), models.RouletteConfig{Title: req.Title, Choices: choices})
	if err != nil {
		writeError(c, err)
		return
	}
	utils.BotLogf("WEB", "Roulette updated: %s with %d choices", cfg.Title, len(cfg.Choices))
	c.JSON(http.StatusOK, gin.H{"message": "Configuration sauvegardée !", "config": cfg})
}

type rankingRow struct {
	Rank   int    `json:"rank"`
	Player string `json:"player"`
	Votes  int    `json:"votes"`
	Amount int64  `json:"amount"`
}

func (s *Server) votesRanking(c *gin.Context) {
	ctx := c.Request.Context()
	ranking, err := s.deps.Runner.Ranking(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	settings := s.deps.Settings.Load(ctx)
	cfg := votes.RewardConfigFromSettings(settings)

	rows := make([]rankingRow, len(ranking))
	for n, entry := range ranking {
		rows[n] = rankingRow{Rank: n + 1, Player: entry.PlayerName, Votes: entry.Votes, Amount: cfg.AmountFor(n+1, entry.Votes)}
	}
	c.JSON(http.StatusOK, gin.H{
		"month":   votes.PreviousMonthName(time.Now(), votes.LoadLocation(settings.API.Timezone)),
		"ranking": rows,
	})
}

type runRequest struct {
	Mode string `json:"mode" form:"mode" binding:"required"`
}

func (s *Server) votesRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode is required"})
		return
	}
	mode, err := votes.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// the run must not stop halfway if the browser goes away
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), runTimeout)
	defer cancel()

	utils.BotLogf("WEB", "Vote run %s triggered by %s", mode, c.GetString(roleKey))
	report, err := s.deps.Runner.Run(ctx, mode, dashboardScope)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) votesReport(c *gin.Context) {
	report, ok := s.deps.Runner.Reports().Get(dashboardScope)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recent report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) balance(c *gin.Context) {
	if s.deps.Balances == nil {
		writeError(c, utils.ErrLedgerNotConfigured)
		return
	}
	balance, err := s.deps.Balances.GetBalance(c.Request.Context(), c.Param("memberID"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// redactSettings never sends passwords to the browser
func redactSettings(settings models.Settings) models.Settings {
	settings.Auth = models.AuthSettings{}
	return settings
}

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, redactSettings(s.deps.Settings.Load(c.Request.Context())))
}

func (s *Server) getSettingsSection(c *gin.Context) {
	section := c.Param("section")
	if section == "auth" {
		c.JSON(http.StatusForbidden, gin.H{"error": "passwords are write-only"})
		return
	}
	raw, err := json.Marshal(redactSettings(s.deps.Settings.Load(c.Request.Context())))
	if err != nil {
		writeError(c, err)
		return
	}
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		writeError(c, err)
		return
	}
	value, ok := sections[section]
	if !ok {
		writeError(c, utils.ErrUnknownSection)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", value)
}

func (s *Server) updateSettingsSection(c *gin.Context) {
	section := c.Param("section")
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	replace := c.Query("replace") == "true"

	settings, err := s.deps.Settings.UpdateSection(c.Request.Context(), section, raw, replace)
	if err != nil {
		writeError(c, err)
		return
	}

	if section == "auth" {
		if err := s.passwords.set(adminPassword(settings.Auth, s.dashboardPassword), settings.Auth.StaffPassword); err != nil {
			writeError(c, err)
			return
		}
	}
	utils.BotLogf("WEB", "Settings section %s updated", section)
	c.JSON(http.StatusOK, redactSettings(settings))
}

func (s *Server) listDinos(c *gin.Context) {
	doc, err := s.deps.Dinos.Load(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	catalogue.SortDinos(doc.Dinos)
	c.JSON(http.StatusOK, doc)
}

func (s *Server) getDino(c *gin.Context) {
	dino, err := s.deps.Dinos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dino)
}

func (s *Server) addDino(c *gin.Context) {
	var dino models.Dino
	if err := c.ShouldBindJSON(&dino); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dino, err := s.deps.Dinos.Add(c.Request.Context(), dino)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dino)
}

func (s *Server) updateDino(c *gin.Context) {
	var dino models.Dino
	if err := c.ShouldBindJSON(&dino); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dino, err := s.deps.Dinos.Update(c.Request.Context(), c.Param("id"), dino)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dino)
}

func (s *Server) deleteDino(c *gin.Context) {
	if err := s.deps.Dinos.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type channelRequest struct {
	ChannelID string `json:"channelId" binding:"required"`
}

func (s *Server) setDinoChannel(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channelId is required"})
		return
	}
	if err := s.deps.Dinos.SetChannel(c.Request.Context(), req.ChannelID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channelId": req.ChannelID})
}

type colorRequest struct {
	Color string `json:"color" binding:"required"`
}

func (s *Server) setLetterColor(c *gin.Context) {
	var req colorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "color is required"})
		return
	}
	letter := strings.ToUpper(c.Param("letter"))
	if err := s.deps.Dinos.SetLetterColor(c.Request.Context(), letter, req.Color); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"letter": letter, "color": req.Color})
}

// publishResponse flattens group results for JSON, errors included
func publishResponse(results []catalogue.GroupResult) gin.H {
	type row struct {
		Group    string `json:"group"`
		Messages int    `json:"messages"`
		Removed  bool   `json:"removed,omitempty"`
		Error    string `json:"error,omitempty"`
	}
	rows := make([]row, len(results))
	failed := 0
	for n, r := range results {
		rows[n] = row{Group: r.GroupKey, Messages: r.Messages, Removed: r.Removed, Error: r.ErrText()}
		if r.Err != nil {
			failed++
		}
	}
	return gin.H{"results": rows, "failed": failed}
}

func (s *Server) publishContext(c *gin.Context) (context.Context, context.CancelFunc, int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), publishTimeout)
	return ctx, cancel, catalogue.PageBudget(s.deps.Settings.Load(ctx))
}

func (s *Server) publishDinos(c *gin.Context) {
	ctx, cancel, budget := s.publishContext(c)
	defer cancel()
	results, err := s.deps.Dinos.PublishAll(ctx, budget)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, publishResponse(results))
}

func (s *Server) publishDinoLetter(c *gin.Context) {
	ctx, cancel, budget := s.publishContext(c)
	defer cancel()
	result, err := s.deps.Dinos.PublishGroup(ctx, strings.ToUpper(c.Param("letter")), budget)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, publishResponse([]catalogue.GroupResult{result}))
}

func (s *Server) getShop(c *gin.Context) {
	doc, err := s.deps.Shop.Load(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) setShopChannel(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channelId is required"})
		return
	}
	if err := s.deps.Shop.SetChannel(c.Request.Context(), req.ChannelID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channelId": req.ChannelID})
}

func (s *Server) addCategory(c *gin.Context) {
	var cat models.Category
	if err := c.ShouldBindJSON(&cat); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cat, err := s.deps.Shop.AddCategory(c.Request.Context(), cat)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (s *Server) getPack(c *gin.Context) {
	pack, err := s.deps.Shop.GetPack(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pack)
}

func (s *Server) addPack(c *gin.Context) {
	var pack models.Pack
	if err := c.ShouldBindJSON(&pack); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pack, err := s.deps.Shop.AddPack(c.Request.Context(), pack)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pack)
}

func (s *Server) updatePack(c *gin.Context) {
	var pack models.Pack
	if err := c.ShouldBindJSON(&pack); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pack, err := s.deps.Shop.UpdatePack(c.Request.Context(), c.Param("id"), pack)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pack)
}

func (s *Server) deletePack(c *gin.Context) {
	if err := s.deps.Shop.DeletePack(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) publishShop(c *gin.Context) {
	ctx, cancel, budget := s.publishContext(c)
	defer cancel()
	results, err := s.deps.Shop.PublishAll(ctx, budget)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, publishResponse(results))
}

func (s *Server) publishShopCategory(c *gin.Context) {
	ctx, cancel, budget := s.publishContext(c)
	defer cancel()
	result, err := s.deps.Shop.PublishGroup(ctx, c.Param("category"), budget)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, publishResponse([]catalogue.GroupResult{result}))
}
