package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/launchbase/accounts-api/internal/api/metrics"
	"github.com/launchbase/accounts-api/internal/core/domain"
	"github.com/launchbase/accounts-api/internal/core/ports"
	"github.com/launchbase/accounts-api/internal/core/token"
)

const userContextKey = "auth.user"

// TokenCookieName is the cookie carrying the session token when no
// Authorization header is present.
const TokenCookieName = "token"

const unauthorizedMessage = "not authorized to access this route"

// Auth is the session gate: it extracts a token from the Authorization header
// or the token cookie, verifies it, loads the user behind it, and attaches
// the user to the request context. Missing token, bad token, and deleted user
// all produce the same 401 so callers learn nothing from the variant.
func Auth(tokens *token.Issuer, repo ports.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := extractToken(c)
			if raw == "" {
				metrics.TokenVerificationsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, unauthorizedMessage)
			}

			userID, err := tokens.Verify(raw)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, unauthorizedMessage)
			}

			user, err := repo.FindByID(c.Request().Context(), userID)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues("unknown_user").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, unauthorizedMessage)
			}

			metrics.TokenVerificationsTotal.WithLabelValues("ok").Inc()
			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// extractToken prefers a bearer Authorization header, then the token cookie.
func extractToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	if cookie, err := c.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// CurrentUser returns the user resolved by the Auth middleware, or nil when
// the request is unauthenticated.
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get(userContextKey).(*domain.User)
	return user
}

// IsAuthenticated reports whether the gate resolved a user for this request.
// Page renderers use it to decide redirect-vs-render.
func IsAuthenticated(c echo.Context) bool {
	return CurrentUser(c) != nil
}

// SetCurrentUser attaches a resolved user to the context. Exposed for tests
// that exercise handlers without running the full gate.
func SetCurrentUser(c echo.Context, user *domain.User) {
	c.Set(userContextKey, user)
}
