package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/launchbase/accounts-api/internal/core/domain"
	"github.com/launchbase/accounts-api/internal/core/token"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	return u, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	return u, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	return nil, nil
}

func gateFixture(t *testing.T) (*echo.Echo, *token.Issuer, *stubUserRepo) {
	t.Helper()
	e := echo.New()
	iss := token.NewIssuer("secret", time.Hour)
	repo := &stubUserRepo{users: map[string]*domain.User{
		"u1": {ID: "u1", Email: "alice@x.com", Role: domain.RoleUser},
	}}
	return e, iss, repo
}

func runGate(e *echo.Echo, iss *token.Issuer, repo *stubUserRepo, req *http.Request) (*httptest.ResponseRecorder, *domain.User) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *domain.User
	handler := Auth(iss, repo)(func(c echo.Context) error {
		seen = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, seen
}

func TestAuth_BearerHeader(t *testing.T) {
	e, iss, repo := gateFixture(t)
	tok, _ := iss.Issue("u1")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	rec, user := runGate(e, iss, repo, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if user == nil || user.ID != "u1" {
		t.Fatalf("expected user u1 attached, got %+v", user)
	}
}

func TestAuth_CookieFallback(t *testing.T) {
	e, iss, repo := gateFixture(t)
	tok, _ := iss.Issue("u1")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: tok})

	rec, user := runGate(e, iss, repo, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if user == nil || user.ID != "u1" {
		t.Fatalf("expected user u1 attached, got %+v", user)
	}
}

func TestAuth_HeaderWinsOverCookie(t *testing.T) {
	e, iss, repo := gateFixture(t)
	repo.users["u2"] = &domain.User{ID: "u2", Email: "bob@x.com", Role: domain.RoleUser}
	headerTok, _ := iss.Issue("u2")
	cookieTok, _ := iss.Issue("u1")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+headerTok)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: cookieTok})

	_, user := runGate(e, iss, repo, req)
	if user == nil || user.ID != "u2" {
		t.Fatalf("expected header token to win, got %+v", user)
	}
}

func TestAuth_Rejections(t *testing.T) {
	e, iss, repo := gateFixture(t)

	forged, _ := token.NewIssuer("other-secret", time.Hour).Issue("u1")
	deleted, _ := iss.Issue("gone")
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("secret"))

	cases := []struct {
		name  string
		setup func(req *http.Request)
	}{
		{"no token", func(*http.Request) {}},
		{"malformed header", func(req *http.Request) { req.Header.Set("Authorization", "Token abc") }},
		{"garbage token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer garbage") }},
		{"wrong signature", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+forged) }},
		{"expired token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+expired) }},
		{"deleted user", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+deleted) }},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		tc.setup(req)
		rec, user := runGate(e, iss, repo, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", tc.name, rec.Code)
		}
		if user != nil {
			t.Fatalf("%s: no user should be attached", tc.name)
		}
	}
}

func TestCurrentUser_Unauthenticated(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if CurrentUser(c) != nil {
		t.Fatalf("expected nil user on bare context")
	}
}
