package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/launchbase/accounts-api/internal/core/domain"
	"github.com/launchbase/accounts-api/internal/core/token"
	"github.com/launchbase/accounts-api/internal/infrastructure/oauth"
)

type memStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func newMemStateStore() *memStateStore {
	return &memStateStore{states: make(map[string]time.Time)}
}

func (s *memStateStore) Save(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = time.Now().Add(ttl)
	return nil
}

func (s *memStateStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline, ok := s.states[state]
	delete(s.states, state)
	return ok && time.Now().Before(deadline), nil
}

type stubFederation struct {
	resolveFn func(ctx context.Context, provider string, profile domain.ExternalProfile) (*domain.User, error)
}

func (s *stubFederation) Resolve(ctx context.Context, provider string, profile domain.ExternalProfile) (*domain.User, error) {
	return s.resolveFn(ctx, provider, profile)
}

func newOAuthFixture(t *testing.T) (*OAuthHandler, *oauth.Registry, *memStateStore, *stubFederation) {
	t.Helper()
	registry := oauth.NewRegistry(oauth.Config{
		BaseURL:            "http://localhost:8080",
		GoogleClientID:     "gid",
		GoogleClientSecret: "gsecret",
	})
	states := newMemStateStore()
	fed := &stubFederation{
		resolveFn: func(_ context.Context, provider string, profile domain.ExternalProfile) (*domain.User, error) {
			return &domain.User{ID: "u1", Email: profile.Email, Provider: provider}, nil
		},
	}
	h := NewOAuthHandler(registry, fed, token.NewIssuer("secret", time.Hour), states, false, zerolog.Nop())
	return h, registry, states, fed
}

func oauthContext(t *testing.T, path, provider string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	c, rec := newTestContext(t, http.MethodGet, path, "")
	c.SetParamNames("provider")
	c.SetParamValues(provider)
	return c, rec
}

func TestOAuthHandler_Begin(t *testing.T) {
	h, _, states, _ := newOAuthFixture(t)

	c, rec := oauthContext(t, "/oauth/google", "google")
	if err := h.Begin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}

	location := rec.Header().Get(echo.HeaderLocation)
	if !strings.Contains(location, "accounts.google.com") || !strings.Contains(location, "client_id=gid") {
		t.Fatalf("unexpected consent URL: %q", location)
	}
	if !strings.Contains(location, "state=") {
		t.Fatalf("consent URL carries no state: %q", location)
	}
	if len(states.states) != 1 {
		t.Fatalf("expected 1 saved state, got %d", len(states.states))
	}
}

func TestOAuthHandler_Begin_UnknownProvider(t *testing.T) {
	h, _, _, _ := newOAuthFixture(t)

	c, rec := oauthContext(t, "/oauth/gitlab", "gitlab")
	if err := h.Begin(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != "/login?error=unknown_provider" {
		t.Fatalf("unexpected redirect: %q", got)
	}
}

func TestOAuthHandler_Callback_InvalidState(t *testing.T) {
	h, _, _, _ := newOAuthFixture(t)

	for _, qs := range []string{"", "?state=never-saved&code=abc"} {
		c, rec := oauthContext(t, "/oauth/google/callback"+qs, "google")
		if err := h.Callback(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if got := rec.Header().Get(echo.HeaderLocation); got != "/login?error=invalid_state" {
			t.Fatalf("unexpected redirect for %q: %q", qs, got)
		}
	}
}

func TestOAuthHandler_Callback_StateIsSingleUse(t *testing.T) {
	h, _, states, _ := newOAuthFixture(t)
	_ = states.Save(context.Background(), "nonce1", time.Minute)

	// First use consumes the nonce even though the flow then fails on the
	// missing code; the second use must be rejected.
	c, _ := oauthContext(t, "/oauth/google/callback?state=nonce1", "google")
	_ = h.Callback(c)

	c2, rec := oauthContext(t, "/oauth/google/callback?state=nonce1&code=abc", "google")
	if err := h.Callback(c2); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != "/login?error=invalid_state" {
		t.Fatalf("expected replay rejection, got %q", got)
	}
}

func TestOAuthHandler_Callback_ProviderDenied(t *testing.T) {
	h, _, _, _ := newOAuthFixture(t)

	c, rec := oauthContext(t, "/oauth/google/callback?error=access_denied", "google")
	if err := h.Callback(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != "/login?error=auth_failed" {
		t.Fatalf("unexpected redirect: %q", got)
	}
}

func TestOAuthHandler_Callback_Success(t *testing.T) {
	h, registry, states, fed := newOAuthFixture(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"g-42","email":"carol@x.com","name":"Carol"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	// Point the provider at the fake token and userinfo endpoints.
	p, err := registry.Get(domain.ProviderGoogle)
	if err != nil {
		t.Fatalf("get provider: %v", err)
	}
	p.Config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	p.UserInfoURL = srv.URL + "/userinfo"

	var resolvedProvider string
	fed.resolveFn = func(_ context.Context, provider string, profile domain.ExternalProfile) (*domain.User, error) {
		resolvedProvider = provider
		if profile.Email != "carol@x.com" || profile.ID != "g-42" {
			t.Fatalf("unexpected profile: %+v", profile)
		}
		return &domain.User{ID: "u7", Email: profile.Email, Provider: provider}, nil
	}

	_ = states.Save(context.Background(), "nonce2", time.Minute)

	c, rec := oauthContext(t, "/oauth/google/callback?state=nonce2&code=code123", "google")
	if err := h.Callback(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if resolvedProvider != domain.ProviderGoogle {
		t.Fatalf("federation saw provider %q", resolvedProvider)
	}

	location := rec.Header().Get(echo.HeaderLocation)
	if !strings.HasPrefix(location, "/dashboard?auth=success&token=") {
		t.Fatalf("unexpected redirect: %q", location)
	}
	sessionToken := strings.TrimPrefix(location, "/dashboard?auth=success&token=")
	if id, err := token.NewIssuer("secret", time.Hour).Verify(sessionToken); err != nil || id != "u7" {
		t.Fatalf("redirect token does not verify to u7: id=%q err=%v", id, err)
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderSetCookie), "token=") {
		t.Fatalf("expected session cookie on callback")
	}
}
