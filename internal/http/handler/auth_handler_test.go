package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shelfly/shelfly-backend/internal/domain"
	"github.com/shelfly/shelfly-backend/internal/http/middleware"
	"github.com/shelfly/shelfly-backend/internal/security"
	"github.com/shelfly/shelfly-backend/internal/service"
	servicegomock "github.com/shelfly/shelfly-backend/internal/service/gomock"
	"go.uber.org/mock/gomock"
)

const testStateKey = "state-signing-key-for-tests-123456"

func newAuthRouter(t *testing.T) (*servicegomock.MockAuthServiceInterface, chi.Router) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := servicegomock.NewMockAuthServiceInterface(ctrl)
	cookies := security.NewCookieManager("", false, "lax")
	h := NewAuthHandler(svc, cookies, nil, testStateKey, 24*time.Hour)

	r := chi.NewRouter()
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Get("/google/login", h.GoogleLogin)
		r.Get("/google/callback", h.GoogleCallback)
		r.Post("/refresh", h.Refresh)
		r.With(middleware.AuthMiddleware(testJWTManager())).Post("/logout", h.Logout)
	})
	return svc, r
}

func responseCookie(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestGoogleLoginRedirectsWithSignedStateCookie(t *testing.T) {
	svc, r := newAuthRouter(t)
	svc.EXPECT().GoogleLoginURL(gomock.Any()).DoAndReturn(func(state string) string {
		return "https://accounts.google.com/o/oauth2/auth?state=" + url.QueryEscape(state)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/login", nil))
	if rr.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rr.Code)
	}
	loc := rr.Header().Get("Location")
	if !strings.Contains(loc, "accounts.google.com") {
		t.Fatalf("unexpected redirect target %q", loc)
	}

	c := responseCookie(t, rr, "oauth_state")
	if c == nil {
		t.Fatal("oauth_state cookie not set")
	}
	if !c.HttpOnly || c.Path != "/api/v1/auth/google" || c.MaxAge != 300 {
		t.Fatalf("unexpected state cookie attributes: %+v", c)
	}
	state, ok := security.VerifySignedState(c.Value, testStateKey)
	if !ok {
		t.Fatal("state cookie is not signed with the configured key")
	}
	if !strings.Contains(loc, url.QueryEscape(state)) {
		t.Fatalf("redirect state %q does not match cookie state %q", loc, state)
	}
}

func TestGoogleCallbackSuccess(t *testing.T) {
	svc, r := newAuthRouter(t)
	user := &domain.User{ID: 42, Email: "user@example.com"}
	svc.EXPECT().LoginWithGoogleCode("authcode", gomock.Any(), gomock.Any()).Return(&service.LoginResult{
		User:         user,
		AccessToken:  "at",
		RefreshToken: "rt",
		CSRFToken:    "csrf",
		ExpiresAt:    time.Now().Add(15 * time.Minute),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=xyz&code=authcode", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: security.SignState("xyz", testStateKey)})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var env struct {
		User      *domain.User `json:"user"`
		CSRFToken string       `json:"csrf_token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if env.User == nil || env.User.ID != 42 || env.CSRFToken != "csrf" {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}

	if c := responseCookie(t, rr, "access_token"); c == nil || c.Value != "at" {
		t.Fatalf("access_token cookie not set: %+v", c)
	}
	if c := responseCookie(t, rr, "refresh_token"); c == nil || c.Value != "rt" {
		t.Fatalf("refresh_token cookie not set: %+v", c)
	}
	// The one-time state cookie must be invalidated.
	if c := responseCookie(t, rr, "oauth_state"); c == nil || c.MaxAge != -1 {
		t.Fatalf("oauth_state cookie not cleared: %+v", c)
	}
}

func TestGoogleCallbackRejectsTamperedState(t *testing.T) {
	_, r := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=xyz&code=authcode", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: security.SignState("other", testStateKey)})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for mismatched state, got %d", rr.Code)
	}
}

func TestGoogleCallbackMissingCode(t *testing.T) {
	_, r := newAuthRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=xyz", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without code, got %d", rr.Code)
	}
}

func TestGoogleCallbackExchangeFailureIsGeneric(t *testing.T) {
	svc, r := newAuthRouter(t)
	svc.EXPECT().LoginWithGoogleCode("authcode", gomock.Any(), gomock.Any()).
		Return(nil, errors.New("token endpoint returned 500 with secret details"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=xyz&code=authcode", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: security.SignState("xyz", testStateKey)})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on exchange failure, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "secret details") {
		t.Fatalf("provider error leaked to the client: %s", rr.Body.String())
	}
}

func TestRefreshWithoutCookie(t *testing.T) {
	_, r := newAuthRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without refresh cookie, got %d", rr.Code)
	}
}

func TestRefreshRotatesCookies(t *testing.T) {
	svc, r := newAuthRouter(t)
	svc.EXPECT().Refresh("old-refresh", gomock.Any(), gomock.Any()).Return(&service.LoginResult{
		User:         &domain.User{ID: 42},
		AccessToken:  "new-at",
		RefreshToken: "new-rt",
		CSRFToken:    "new-csrf",
		ExpiresAt:    time.Now().Add(15 * time.Minute),
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "old-refresh"})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if c := responseCookie(t, rr, "refresh_token"); c == nil || c.Value != "new-rt" {
		t.Fatalf("refresh cookie not rotated: %+v", c)
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	svc, r := newAuthRouter(t)
	svc.EXPECT().Refresh("stolen", gomock.Any(), gomock.Any()).Return(nil, errors.New("session not found"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "stolen"})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for rejected refresh, got %d", rr.Code)
	}
}

func TestLogoutClearsCookies(t *testing.T) {
	svc, r := newAuthRouter(t)
	svc.EXPECT().ParseUserID("42").Return(uint(42), nil)
	svc.EXPECT().Logout(uint(42)).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+accessTokenForTest(t, 42))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	for _, name := range []string{"access_token", "refresh_token"} {
		c := responseCookie(t, rr, name)
		if c == nil || c.MaxAge != -1 {
			t.Fatalf("%s cookie not cleared: %+v", name, c)
		}
	}
}

func TestLogoutWithoutAuth(t *testing.T) {
	_, r := newAuthRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
}
