package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"eshop/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new instance of AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a customer account --> POST /api/register
func (h *AuthHandler) Register(c echo.Context) error {
	req := struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
		Email    string `json:"email" form:"email"`
		Currency string `json:"currency" form:"currency"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	if _, err := h.authService.Register(c.Request().Context(), req.Username, req.Password, req.Email, req.Currency); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "User registered successfully"})
}

// Login exchanges credentials for a token --> POST /api/login
func (h *AuthHandler) Login(c echo.Context) error {
	login := struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}{}
	if err := c.Bind(&login); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}

	token, err := h.authService.Login(c.Request().Context(), login.Username, login.Password)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "token": token})
}
