package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/launchbase/accounts-api/internal/api/metrics"
	"github.com/launchbase/accounts-api/internal/api/middleware"
	"github.com/launchbase/accounts-api/internal/core/domain"
	"github.com/launchbase/accounts-api/internal/core/ports"
)

// AuthHandler exposes local registration, login and logout.
type AuthHandler struct {
	auth         ports.AuthService
	cookieTTL    time.Duration
	cookieSecure bool
}

func NewAuthHandler(auth ports.AuthService, cookieTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieTTL: cookieTTL, cookieSecure: cookieSecure}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Success bool               `json:"success"`
	Token   string             `json:"token,omitempty"`
	User    *domain.PublicUser `json:"user,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Register creates a new local account and opens a session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  messageResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start := time.Now()
	token, user, err := h.auth.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	metrics.AuthDuration.WithLabelValues("register").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registerOutcome(err)).Inc()
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues("success").Inc()

	setTokenCookie(c, token, h.cookieTTL, h.cookieSecure)
	return c.JSON(http.StatusCreated, authResponse{Success: true, Token: token, User: user.Public()})
}

// Login authenticates a credential pair and opens a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      401   {object}  messageResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	start := time.Now()
	token, user, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	metrics.AuthDuration.WithLabelValues("login").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginOutcome(err)).Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	setTokenCookie(c, token, h.cookieTTL, h.cookieSecure)
	return c.JSON(http.StatusOK, authResponse{Success: true, Token: token, User: user.Public()})
}

// Logout clears the session cookie. Tokens are stateless, so a captured token
// stays valid until its natural expiry.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	clearTokenCookie(c, h.cookieSecure)
	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "logged out successfully"})
}

// LogoutRedirect clears the session cookie and sends the browser home.
// Used for direct links.
//
// @Summary      Logout via redirect
// @Tags         auth
// @Success      302
// @Router       /logout [get]
func (h *AuthHandler) LogoutRedirect(c echo.Context) error {
	clearTokenCookie(c, h.cookieSecure)
	return c.Redirect(http.StatusFound, "/")
}

func registerOutcome(err error) string {
	if err == domain.ErrEmailTaken {
		return "duplicate_email"
	}
	return "error"
}

func loginOutcome(err error) string {
	if err == domain.ErrInvalidCredentials {
		return "invalid_credentials"
	}
	return "error"
}

// setTokenCookie attaches the session token as an httpOnly cookie alongside
// the JSON body, so both SPA (header) and server-rendered (cookie) callers work.
func setTokenCookie(c echo.Context, token string, ttl time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearTokenCookie overwrites the session cookie with one that expires
// immediately.
func clearTokenCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "none",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
