package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/launchbase/accounts-api/internal/api/middleware"
	"github.com/launchbase/accounts-api/internal/core/domain"
	"github.com/launchbase/accounts-api/internal/core/ports"
)

// UserHandler exposes the current-user surface behind the session gate.
type UserHandler struct {
	auth ports.AuthService
}

func NewUserHandler(auth ports.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

type updateRequest struct {
	Name  string `json:"name" validate:"omitempty,min=1,max=50"`
	Email string `json:"email" validate:"omitempty,email"`
}

type userResponse struct {
	Success bool               `json:"success"`
	User    *domain.PublicUser `json:"user"`
}

type usersResponse struct {
	Success bool                 `json:"success"`
	Users   []*domain.PublicUser `json:"users"`
}

// Me returns the user resolved by the session gate.
//
// @Summary      Current user
// @Tags         user
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  messageResponse
// @Router       /me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}

	// Re-read the row so the response reflects writes that landed after the
	// gate resolved the token.
	fresh, err := h.auth.GetUser(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Success: true, User: fresh.Public()})
}

// Update changes the caller's name and/or email.
//
// @Summary      Update profile
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      updateRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      401   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Router       /update [put]
func (h *UserHandler) Update(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.auth.UpdateProfile(c.Request().Context(), user.ID, req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Success: true, User: updated.Public()})
}

// ListUsers returns every account as a public view. Admin only.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Success      200  {object}  usersResponse
// @Failure      403  {object}  messageResponse
// @Router       /admin/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.auth.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}

	views := make([]*domain.PublicUser, 0, len(users))
	for _, u := range users {
		views = append(views, u.Public())
	}
	return c.JSON(http.StatusOK, usersResponse{Success: true, Users: views})
}
