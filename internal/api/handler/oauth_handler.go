package handler

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/launchbase/accounts-api/internal/api/metrics"
	"github.com/launchbase/accounts-api/internal/core/ports"
	"github.com/launchbase/accounts-api/internal/core/token"
	"github.com/launchbase/accounts-api/internal/infrastructure/oauth"
)

const stateTTL = 10 * time.Minute

// OAuthHandler drives the provider redirect and callback legs of federated
// login. It is a browser-facing flow: every failure ends in a redirect back
// to /login with an error tag, never a JSON error.
type OAuthHandler struct {
	registry     *oauth.Registry
	federation   ports.FederationService
	tokens       *token.Issuer
	states       ports.StateStore
	cookieSecure bool
	log          zerolog.Logger
}

func NewOAuthHandler(
	registry *oauth.Registry,
	federation ports.FederationService,
	tokens *token.Issuer,
	states ports.StateStore,
	cookieSecure bool,
	log zerolog.Logger,
) *OAuthHandler {
	return &OAuthHandler{
		registry:     registry,
		federation:   federation,
		tokens:       tokens,
		states:       states,
		cookieSecure: cookieSecure,
		log:          log,
	}
}

// Begin redirects the browser to the provider's consent screen.
//
// @Summary      Start an OAuth login
// @Tags         oauth
// @Param        provider  path  string  true  "google or github"
// @Success      307
// @Router       /oauth/{provider} [get]
func (h *OAuthHandler) Begin(c echo.Context) error {
	name := c.Param("provider")
	provider, err := h.registry.Get(name)
	if err != nil {
		return h.failLogin(c, "unknown_provider")
	}

	state, err := generateState()
	if err != nil {
		h.log.Error().Err(err).Msg("generate oauth state")
		return h.failLogin(c, "internal")
	}
	if err := h.states.Save(c.Request().Context(), state, stateTTL); err != nil {
		h.log.Error().Err(err).Msg("save oauth state")
		return h.failLogin(c, "internal")
	}

	return c.Redirect(http.StatusTemporaryRedirect, provider.Config.AuthCodeURL(state))
}

// Callback handles the provider redirect: validates state, exchanges the
// code, fetches and normalizes the profile, converges it onto a user, and
// opens a session.
//
// @Summary      OAuth provider callback
// @Tags         oauth
// @Param        provider  path   string  true  "google or github"
// @Param        code      query  string  false "authorization code"
// @Param        state     query  string  false "state nonce"
// @Success      302
// @Router       /oauth/{provider}/callback [get]
func (h *OAuthHandler) Callback(c echo.Context) error {
	name := c.Param("provider")
	provider, err := h.registry.Get(name)
	if err != nil {
		return h.failLogin(c, "unknown_provider")
	}

	ctx := c.Request().Context()
	start := time.Now()

	if errParam := c.QueryParam("error"); errParam != "" {
		h.log.Warn().Str("provider", name).Str("error", errParam).Msg("oauth denied by provider")
		metrics.OAuthLoginsTotal.WithLabelValues(name, "denied").Inc()
		return h.failLogin(c, "auth_failed")
	}

	state := c.QueryParam("state")
	if state == "" {
		metrics.OAuthLoginsTotal.WithLabelValues(name, "invalid_state").Inc()
		return h.failLogin(c, "invalid_state")
	}
	ok, err := h.states.Consume(ctx, state)
	if err != nil {
		h.log.Error().Err(err).Str("provider", name).Msg("validate oauth state")
		metrics.OAuthLoginsTotal.WithLabelValues(name, "error").Inc()
		return h.failLogin(c, "internal")
	}
	if !ok {
		metrics.OAuthLoginsTotal.WithLabelValues(name, "invalid_state").Inc()
		return h.failLogin(c, "invalid_state")
	}

	code := c.QueryParam("code")
	if code == "" {
		metrics.OAuthLoginsTotal.WithLabelValues(name, "exchange_failed").Inc()
		return h.failLogin(c, "invalid_code")
	}
	oauthToken, err := provider.Config.Exchange(ctx, code)
	if err != nil {
		h.log.Error().Err(err).Str("provider", name).Msg("exchange oauth code")
		metrics.OAuthLoginsTotal.WithLabelValues(name, "exchange_failed").Inc()
		return h.failLogin(c, "token_exchange")
	}

	profile, err := provider.FetchProfile(ctx, oauthToken)
	if err != nil {
		h.log.Error().Err(err).Str("provider", name).Msg("fetch oauth profile")
		metrics.OAuthLoginsTotal.WithLabelValues(name, "profile_failed").Inc()
		return h.failLogin(c, "user_info")
	}

	user, err := h.federation.Resolve(ctx, name, profile)
	if err != nil {
		h.log.Error().Err(err).Str("provider", name).Msg("resolve federated identity")
		metrics.OAuthLoginsTotal.WithLabelValues(name, "error").Inc()
		return h.failLogin(c, "auth_failed")
	}

	sessionToken, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.log.Error().Err(err).Str("provider", name).Msg("issue session token")
		metrics.OAuthLoginsTotal.WithLabelValues(name, "error").Inc()
		return h.failLogin(c, "internal")
	}

	metrics.OAuthLoginsTotal.WithLabelValues(name, "success").Inc()
	metrics.AuthDuration.WithLabelValues("oauth_callback").Observe(time.Since(start).Seconds())

	h.log.Info().
		Str("provider", name).
		Str("user_id", user.ID).
		Msg("oauth login")

	setTokenCookie(c, sessionToken, h.tokens.TTL(), h.cookieSecure)
	// Token also rides the redirect URL so the client can stash it in
	// localStorage. Known exposure via history/referrer.
	return c.Redirect(http.StatusFound, fmt.Sprintf("/dashboard?auth=success&token=%s", url.QueryEscape(sessionToken)))
}

func (h *OAuthHandler) failLogin(c echo.Context, reason string) error {
	return c.Redirect(http.StatusFound, "/login?error="+url.QueryEscape(reason))
}

func generateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
