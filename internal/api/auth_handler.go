package api

import (
	"github.com/labstack/echo/v4"
	"net/http"
	"storefront/internal/service"
	"storefront/internal/validation"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates an account --> POST /api/register
func (h *AuthHandler) Register(c echo.Context) error {
	req := validation.Register{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	res, err := h.authService.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Login --> POST /api/login
func (h *AuthHandler) Login(c echo.Context) error {
	req := validation.Login{}
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	res, err := h.authService.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Logout ends the session the token belongs to --> POST /api/logout
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), claimsOf(c)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed in user --> GET /api/user
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.authService.Me(c.Request().Context(), actorOf(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}
