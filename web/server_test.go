package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"arki-bot/catalogue"
	"arki-bot/games/roulette"
	"arki-bot/models"
	"arki-bot/utils"
	"arki-bot/votes"
)

type stubRanking struct{}

func (stubRanking) FetchRanking(context.Context, string) ([]models.RankingEntry, error) {
	return []models.RankingEntry{{PlayerName: "Alice", Votes: 12}, {PlayerName: "Bob", Votes: 3}}, nil
}

type stubRoster struct{}

func (stubRoster) Members(context.Context) ([]models.Member, error) {
	return []models.Member{models.NewMember("m1", "Alice")}, nil
}

type stubAnnouncer struct{}

func (stubAnnouncer) PostMessages(context.Context, string, []string, bool) error { return nil }
func (stubAnnouncer) GrantRole(context.Context, string, string, string) error     { return nil }

type stubLedger struct{}

func (stubLedger) CreditBalance(context.Context, string, int64, string) error { return nil }

type stubChannel struct {
	next int
}

func (c *stubChannel) Send(context.Context, string, catalogue.Page) (string, error) {
	c.next++
	return fmt.Sprintf("msg%d", c.next), nil
}

func (c *stubChannel) Delete(context.Context, string, string) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := utils.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	settings := utils.NewSettingsManager(store, nil)
	dinos := catalogue.NewDinoCatalogue(store)
	dinos.Attach(&stubChannel{})
	shop := catalogue.NewShopCatalogue(store)
	shop.Attach(&stubChannel{})

	deps := Deps{
		Settings: settings,
		Runner:   votes.NewRunner(settings, stubRanking{}, stubRoster{}, stubLedger{}, stubAnnouncer{}, votes.NewReportCache(time.Hour), ""),
		Dinos:    dinos,
		Shop:     shop,
		Roulette: roulette.NewConfigStore(store),
		Status:   func() string { return "online" },
	}
	s, err := NewServer(context.Background(), deps, Options{SessionSecret: "test-secret", BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return s
}

func do(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func login(t *testing.T, s *Server, password string) string {
	t.Helper()
	w := do(t, s, http.MethodPost, "/login", "", fmt.Sprintf(`{"password":%q}`, password))
	if w.Code != http.StatusOK {
		t.Fatalf("Login with %q failed: %d %s", password, w.Code, w.Body.String())
	}
	var resp struct {
		Role  string `json:"role"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Bad login response: %v", err)
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"bot_status":"online"`) {
		t.Errorf("Unexpected body %s", w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Cache-Control"), "no-store") {
		t.Errorf("Expected no-store, got %q", w.Header().Get("Cache-Control"))
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	defaults := models.DefaultSettings().Auth

	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{"admin", fmt.Sprintf(`{"password":%q}`, defaults.AdminPassword), http.StatusOK},
		{"staff", fmt.Sprintf(`{"password":%q}`, defaults.StaffPassword), http.StatusOK},
		{"wrong password", `{"password":"nope"}`, http.StatusUnauthorized},
		{"missing password", `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/login", "", tt.body)
			if w.Code != tt.expected {
				t.Errorf("Expected %d, got %d: %s", tt.expected, w.Code, w.Body.String())
			}
			if tt.expected == http.StatusOK && !strings.Contains(w.Header().Get("Set-Cookie"), sessionCookie+"=") {
				t.Error("Expected a session cookie")
			}
		})
	}
}

func TestLoginForm(t *testing.T) {
	s := newTestServer(t)
	form := url.Values{"password": {models.DefaultSettings().Auth.AdminPassword}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected form login to succeed, got %d", w.Code)
	}
}

func TestDashboardPasswordOverride(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store, _ := utils.NewFileStore(t.TempDir())
	settings := utils.NewSettingsManager(store, nil)
	s, err := NewServer(context.Background(), Deps{Settings: settings}, Options{
		SessionSecret:     "secret",
		DashboardPassword: "from-env",
		BcryptCost:        bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if role, err := s.passwords.check("from-env"); err != nil || role != RoleAdmin {
		t.Errorf("Expected the env password to grant admin, got %q, %v", role, err)
	}
	if _, err := s.passwords.check(models.DefaultSettings().Auth.AdminPassword); err == nil {
		t.Error("Expected the stored admin password to be overridden")
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	if w := do(t, s, http.MethodGet, "/api/overview", "", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without session, got %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/api/overview", "garbage", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a bad token, got %d", w.Code)
	}

	token := login(t, s, models.DefaultSettings().Auth.AdminPassword)
	if w := do(t, s, http.MethodGet, "/api/overview", token, ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with a session, got %d: %s", w.Code, w.Body.String())
	}

	s.now = func() time.Time { return time.Now().Add(sessionTTL + time.Minute) }
	if w := do(t, s, http.MethodGet, "/api/overview", token, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 after expiry, got %d", w.Code)
	}
}

func TestSettingsAccess(t *testing.T) {
	s := newTestServer(t)
	defaults := models.DefaultSettings().Auth
	admin := login(t, s, defaults.AdminPassword)
	staff := login(t, s, defaults.StaffPassword)

	w := do(t, s, http.MethodGet, "/api/settings", staff, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected staff to read settings, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), defaults.AdminPassword) {
		t.Error("Expected passwords to be redacted")
	}

	if w := do(t, s, http.MethodPut, "/api/settings/rewards", staff, `{"diamondsPerVote":150}`); w.Code != http.StatusForbidden {
		t.Errorf("Expected staff to be forbidden, got %d", w.Code)
	}

	tests := []struct {
		name     string
		path     string
		body     string
		expected int
	}{
		{"merge rewards", "/api/settings/rewards", `{"diamondsPerVote":150}`, http.StatusOK},
		{"unknown section", "/api/settings/nope", `{}`, http.StatusNotFound},
		{"not an object", "/api/settings/rewards", `[1,2]`, http.StatusBadRequest},
		{"wrong type", "/api/settings/rewards", `{"diamondsPerVote":"lots"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := do(t, s, http.MethodPut, tt.path, admin, tt.body); w.Code != tt.expected {
				t.Errorf("Expected %d, got %d: %s", tt.expected, w.Code, w.Body.String())
			}
		})
	}

	w = do(t, s, http.MethodGet, "/api/settings/rewards", admin, "")
	if !strings.Contains(w.Body.String(), `"diamondsPerVote":150`) {
		t.Errorf("Expected the merged value, got %s", w.Body.String())
	}
	if w := do(t, s, http.MethodGet, "/api/settings/auth", admin, ""); w.Code != http.StatusForbidden {
		t.Errorf("Expected auth to be write-only, got %d", w.Code)
	}
}

func TestPasswordChangeTakesEffect(t *testing.T) {
	s := newTestServer(t)
	admin := login(t, s, models.DefaultSettings().Auth.AdminPassword)

	if w := do(t, s, http.MethodPut, "/api/settings/auth", admin, `{"staffPassword":"raptor"}`); w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if role, err := s.passwords.check("raptor"); err != nil || role != RoleStaff {
		t.Errorf("Expected the new staff password to work, got %q, %v", role, err)
	}
	if _, err := s.passwords.check(models.DefaultSettings().Auth.StaffPassword); err == nil {
		t.Error("Expected the old staff password to be rejected")
	}
}

func TestRoulette(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, models.DefaultSettings().Auth.AdminPassword)

	w := do(t, s, http.MethodPost, "/api/roulette", token, `{"title":"Dino","choicesText":"Rex\n\nDodo\n"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodGet, "/api/roulette", token, "")
	var cfg models.RouletteConfig
	if err := json.Unmarshal(w.Body.Bytes(), &cfg); err != nil || cfg.Title != "Dino" || len(cfg.Choices) != 2 {
		t.Errorf("Unexpected config %+v, %v", cfg, err)
	}

	w = do(t, s, http.MethodPost, "/api/roulette", token, `{"title":"Dino","choices":["Rex"]}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "au moins 2") {
		t.Errorf("Expected a French validation error, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDinoEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, models.DefaultSettings().Auth.StaffPassword)

	w := do(t, s, http.MethodPost, "/api/dinos", token, `{"name":"Rex","priceDiamonds":100}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var dino models.Dino
	if err := json.Unmarshal(w.Body.Bytes(), &dino); err != nil || dino.ID == "" {
		t.Fatalf("Expected an id, got %+v, %v", dino, err)
	}

	if w := do(t, s, http.MethodPost, "/api/dinos", token, `{"name":" "}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid dino, got %d", w.Code)
	}
	if w := do(t, s, http.MethodPut, "/api/dinos/"+dino.ID, token, `{"name":"Rex","priceDiamonds":200}`); w.Code != http.StatusOK {
		t.Errorf("Expected 200 on update, got %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/api/dinos/missing", token, ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	if w := do(t, s, http.MethodPost, "/api/dinos/publish", token, ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a channel, got %d", w.Code)
	}
	if w := do(t, s, http.MethodPut, "/api/dinos/channel", token, `{"channelId":"123"}`); w.Code != http.StatusOK {
		t.Fatalf("Expected 200 on channel, got %d", w.Code)
	}
	if w := do(t, s, http.MethodPut, "/api/dinos/colors/r", token, `{"color":"#ff0000"}`); w.Code != http.StatusOK {
		t.Errorf("Expected 200 on color, got %d", w.Code)
	}
	w = do(t, s, http.MethodPost, "/api/dinos/publish", token, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"group":"R"`) || !strings.Contains(w.Body.String(), `"failed":0`) {
		t.Errorf("Unexpected publish response %d: %s", w.Code, w.Body.String())
	}

	if w := do(t, s, http.MethodDelete, "/api/dinos/"+dino.ID, token, ""); w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
	w = do(t, s, http.MethodPost, "/api/dinos/publish/r", token, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"removed":true`) {
		t.Errorf("Expected the emptied group to be removed, got %d: %s", w.Code, w.Body.String())
	}
}

func TestShopEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, models.DefaultSettings().Auth.AdminPassword)

	w := do(t, s, http.MethodPost, "/api/shop/categories", token, `{"name":"Skins Été","emoji":"☀️"}`)
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"skins-ete"`) {
		t.Fatalf("Unexpected category response %d: %s", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodPost, "/api/shop/packs", token, `{"name":"Starter","category":"skins-ete","priceDiamonds":5000,"available":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var pack models.Pack
	json.Unmarshal(w.Body.Bytes(), &pack)

	if w := do(t, s, http.MethodPost, "/api/shop/packs", token, `{"name":"Lost","category":"nope"}`); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown category, got %d", w.Code)
	}
	if w := do(t, s, http.MethodGet, "/api/shop/packs/"+pack.ID, token, ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	do(t, s, http.MethodPut, "/api/shop/channel", token, `{"channelId":"456"}`)
	w = do(t, s, http.MethodPost, "/api/shop/publish/skins-ete", token, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"messages":1`) {
		t.Errorf("Unexpected publish response %d: %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodDelete, "/api/shop/packs/"+pack.ID, token, ""); w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
}

func TestVotesEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, models.DefaultSettings().Auth.AdminPassword)

	w := do(t, s, http.MethodGet, "/api/votes/ranking", token, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"player":"Alice"`) {
		t.Errorf("Unexpected ranking %d: %s", w.Code, w.Body.String())
	}

	if w := do(t, s, http.MethodGet, "/api/votes/report", token, ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected no report yet, got %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/api/votes/run", token, `{"mode":"burn"}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown mode, got %d", w.Code)
	}

	w = do(t, s, http.MethodPost, "/api/votes/run", token, `{"mode":"preview"}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"dry_run":true`) {
		t.Errorf("Unexpected run response %d: %s", w.Code, w.Body.String())
	}
	if w := do(t, s, http.MethodGet, "/api/votes/report", token, ""); w.Code != http.StatusOK {
		t.Errorf("Expected the cached report, got %d", w.Code)
	}

	if w := do(t, s, http.MethodGet, "/api/balance/m1", token, ""); w.Code != http.StatusBadGateway {
		t.Errorf("Expected 502 without a ledger, got %d", w.Code)
	}
}
