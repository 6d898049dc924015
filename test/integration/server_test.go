package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shelfly/shelfly-backend/internal/config"
	"github.com/shelfly/shelfly-backend/internal/database"
	"github.com/shelfly/shelfly-backend/internal/http/handler"
	"github.com/shelfly/shelfly-backend/internal/http/router"
	"github.com/shelfly/shelfly-backend/internal/repository"
	"github.com/shelfly/shelfly-backend/internal/security"
	"github.com/shelfly/shelfly-backend/internal/service"
)

const stateSigningKey = "integration-state-key-0123456789"

// fakeOAuthProvider short-circuits the Google round trips. The code value
// selects the outcome so tests can drive both paths.
type fakeOAuthProvider struct {
	info *service.OAuthUserInfo
}

func (p *fakeOAuthProvider) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (p *fakeOAuthProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if code != "good-code" {
		return nil, errors.New("invalid authorization code")
	}
	return &oauth2.Token{AccessToken: "fake-access"}, nil
}

func (p *fakeOAuthProvider) FetchUserInfo(context.Context, *oauth2.Token) (*service.OAuthUserInfo, error) {
	return p.info, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                 "test",
		JWTIssuer:           "shelfly-test",
		JWTAudience:         "shelfly-clients",
		JWTAccessSecret:     "abcdefghijklmnopqrstuvwxyz123456",
		JWTRefreshSecret:    "abcdefghijklmnopqrstuvwxyz654321",
		JWTAccessTTL:        15 * time.Minute,
		JWTRefreshTTL:       24 * time.Hour,
		RefreshTokenPepper:  "integration-pepper-1234",
		StateSigningSecret:  stateSigningKey,
		CookieSecure:        false,
		CookieSameSite:      "lax",
		CORSAllowedOrigins:  []string{"http://localhost:3000"},
		AuthRateLimitPerMin: 1000,
		APIRateLimitPerMin:  1000,
	}
}

func newTestServer(t *testing.T, info *service.OAuthUserInfo) (*httptest.Server, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared&_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := testConfig()
	jwtMgr := security.NewJWTManager(cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	cookieMgr := security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	oauthRepo := repository.NewOAuthRepository(db)
	productRepo := repository.NewProductRepository(db)

	provider := &fakeOAuthProvider{info: info}
	oauthSvc := service.NewOAuthService(provider, userRepo, oauthRepo)
	tokenSvc := service.NewTokenService(jwtMgr, sessionRepo, cfg.RefreshTokenPepper, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	userSvc := service.NewUserService(userRepo)
	authSvc := service.NewAuthService(cfg, oauthSvc, tokenSvc, userSvc)
	productSvc := service.NewProductService(productRepo)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authSvc, cookieMgr, nil, cfg.StateSigningSecret, cfg.JWTRefreshTTL),
		UserHandler:      handler.NewUserHandler(userSvc),
		ProductHandler:   handler.NewProductHandler(productSvc),
		JWTManager:       jwtMgr,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		AuthRateLimitRPM: cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:  cfg.APIRateLimitPerMin,
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, db
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// signIn drives the full login flow and returns the CSRF token for mutations.
func signIn(t *testing.T, srv *httptest.Server, client *http.Client) string {
	t.Helper()

	resp, err := client.Get(srv.URL + "/api/v1/auth/google/login")
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 from login, got %d", resp.StatusCode)
	}
	loc, err := resp.Location()
	if err != nil {
		t.Fatalf("login redirect location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("login redirect carries no state")
	}

	resp, err = client.Get(srv.URL + "/api/v1/auth/google/callback?state=" + state + "&code=good-code")
	if err != nil {
		t.Fatalf("callback request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from callback, got %d", resp.StatusCode)
	}
	var body struct {
		CSRFToken string `json:"csrf_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode callback body: %v", err)
	}
	if body.CSRFToken == "" {
		t.Fatal("callback did not return a csrf token")
	}
	return body.CSRFToken
}

func doJSON(t *testing.T, client *http.Client, method, url, csrf string, payload any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, out.Bytes()
}

func defaultUserInfo() *service.OAuthUserInfo {
	return &service.OAuthUserInfo{
		ProviderUserID: "google-sub-1",
		Email:          "alice@example.com",
		Name:           "Alice",
		EmailVerified:  true,
	}
}
