// Package oauth holds the provider capability table: for each configured
// OAuth provider, the oauth2 endpoint configuration plus a normalizer that
// turns that provider's userinfo payload into a domain.ExternalProfile.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/launchbase/accounts-api/internal/core/domain"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubUserInfoURL = "https://api.github.com/user"
)

// Provider couples an oauth2 client configuration with the provider-specific
// userinfo endpoint and payload normalizer.
type Provider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
	Normalize   func(r io.Reader) (domain.ExternalProfile, error)
}

// FetchProfile retrieves and normalizes the userinfo payload using a client
// authenticated with the exchanged token.
func (p *Provider) FetchProfile(ctx context.Context, tok *oauth2.Token) (domain.ExternalProfile, error) {
	client := p.Config.Client(ctx, tok)

	resp, err := client.Get(p.UserInfoURL)
	if err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("%s userinfo: %w", p.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ExternalProfile{}, fmt.Errorf("%s userinfo: unexpected status %d", p.Name, resp.StatusCode)
	}
	return p.Normalize(resp.Body)
}

// Config carries the per-provider credentials. Empty credentials leave that
// provider out of the registry entirely.
type Config struct {
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
}

// Registry is the capability table mapping provider name to Provider. It is
// populated once at startup from configuration.
type Registry struct {
	providers map[string]*Provider
}

func NewRegistry(cfg Config) *Registry {
	r := &Registry{providers: make(map[string]*Provider)}

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		r.providers[domain.ProviderGoogle] = &Provider{
			Name: domain.ProviderGoogle,
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.BaseURL + "/oauth/google/callback",
				Scopes: []string{
					"openid",
					"https://www.googleapis.com/auth/userinfo.email",
					"https://www.googleapis.com/auth/userinfo.profile",
				},
				Endpoint: google.Endpoint,
			},
			UserInfoURL: googleUserInfoURL,
			Normalize:   normalizeGoogle,
		}
	}

	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		r.providers[domain.ProviderGitHub] = &Provider{
			Name: domain.ProviderGitHub,
			Config: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				RedirectURL:  cfg.BaseURL + "/oauth/github/callback",
				Scopes:       []string{"read:user", "user:email"},
				Endpoint:     github.Endpoint,
			},
			UserInfoURL: githubUserInfoURL,
			Normalize:   normalizeGitHub,
		}
	}

	return r
}

// Get returns the provider entry, or domain.ErrUnknownProvider when the name
// is unknown or not configured.
func (r *Registry) Get(name string) (*Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}
	return p, nil
}

// Names lists the configured providers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func normalizeGoogle(r io.Reader) (domain.ExternalProfile, error) {
	var p googleProfile
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("decode google userinfo: %w", err)
	}
	if p.ID == "" {
		return domain.ExternalProfile{}, fmt.Errorf("google userinfo: missing subject id")
	}
	return domain.ExternalProfile{
		ID:     p.ID,
		Email:  p.Email,
		Name:   p.Name,
		Avatar: p.Picture,
	}, nil
}

type githubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// normalizeGitHub maps a GitHub user payload. Email may be null when the
// account hides it; the federation resolver synthesizes a placeholder from
// Username in that case.
func normalizeGitHub(r io.Reader) (domain.ExternalProfile, error) {
	var p githubProfile
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return domain.ExternalProfile{}, fmt.Errorf("decode github userinfo: %w", err)
	}
	if p.ID == 0 {
		return domain.ExternalProfile{}, fmt.Errorf("github userinfo: missing subject id")
	}
	return domain.ExternalProfile{
		ID:       strconv.FormatInt(p.ID, 10),
		Email:    p.Email,
		Name:     p.Name,
		Username: p.Login,
		Avatar:   p.AvatarURL,
	}, nil
}
