package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/launchbase/accounts-api/internal/core/domain"
)

func TestRegistry_OnlyConfiguredProviders(t *testing.T) {
	r := NewRegistry(Config{
		BaseURL:            "https://example.com",
		GoogleClientID:     "gid",
		GoogleClientSecret: "gsecret",
	})

	if _, err := r.Get(domain.ProviderGoogle); err != nil {
		t.Fatalf("google should be configured: %v", err)
	}
	if _, err := r.Get(domain.ProviderGitHub); err != domain.ErrUnknownProvider {
		t.Fatalf("expected ErrUnknownProvider for unconfigured github, got %v", err)
	}
	if _, err := r.Get("gitlab"); err != domain.ErrUnknownProvider {
		t.Fatalf("expected ErrUnknownProvider for gitlab, got %v", err)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry(Config{
		BaseURL:            "https://example.com",
		GoogleClientID:     "gid",
		GoogleClientSecret: "gsecret",
		GitHubClientID:     "hid",
		GitHubClientSecret: "hsecret",
	})

	names := r.Names()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "github" || names[1] != "google" {
		t.Fatalf("unexpected providers: %v", names)
	}
}

func TestRegistry_RedirectURLs(t *testing.T) {
	r := NewRegistry(Config{
		BaseURL:            "https://example.com",
		GoogleClientID:     "gid",
		GoogleClientSecret: "gsecret",
	})

	p, _ := r.Get(domain.ProviderGoogle)
	if p.Config.RedirectURL != "https://example.com/oauth/google/callback" {
		t.Fatalf("unexpected redirect URL: %q", p.Config.RedirectURL)
	}
	url := p.Config.AuthCodeURL("state123")
	if !strings.Contains(url, "state=state123") || !strings.Contains(url, "client_id=gid") {
		t.Fatalf("unexpected auth URL: %q", url)
	}
}

func TestNormalizeGoogle(t *testing.T) {
	payload := `{"id":"108","email":"carol@x.com","name":"Carol","picture":"https://img/c.png","verified_email":true}`

	profile, err := normalizeGoogle(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if profile.ID != "108" || profile.Email != "carol@x.com" || profile.Name != "Carol" || profile.Avatar != "https://img/c.png" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	if _, err := normalizeGoogle(strings.NewReader(`{"email":"x@y.com"}`)); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if _, err := normalizeGoogle(strings.NewReader("not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}

func TestNormalizeGitHub(t *testing.T) {
	payload := `{"id":7,"login":"dave","name":"Dave","email":null,"avatar_url":"https://img/d.png"}`

	profile, err := normalizeGitHub(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if profile.ID != "7" || profile.Username != "dave" || profile.Name != "Dave" || profile.Avatar != "https://img/d.png" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.Email != "" {
		t.Fatalf("hidden email must stay empty, got %q", profile.Email)
	}

	if _, err := normalizeGitHub(strings.NewReader(`{"login":"x"}`)); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestProvider_FetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Bearer ") {
			t.Fatalf("expected bearer auth, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"108","email":"carol@x.com","name":"Carol"}`))
	}))
	defer srv.Close()

	p := &Provider{
		Name:        domain.ProviderGoogle,
		Config:      &oauth2.Config{},
		UserInfoURL: srv.URL,
		Normalize:   normalizeGoogle,
	}

	profile, err := p.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "at"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if profile.Email != "carol@x.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestProvider_FetchProfile_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := &Provider{
		Name:        domain.ProviderGitHub,
		Config:      &oauth2.Config{},
		UserInfoURL: srv.URL,
		Normalize:   normalizeGitHub,
	}

	if _, err := p.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "at"}); err == nil {
		t.Fatalf("expected error for non-200 userinfo response")
	}
}
