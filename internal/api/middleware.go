package api

import (
	"errors"
	"fmt"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"eshop/internal/entity"
	"eshop/internal/service"
)

const identityKey = "user"

var (
	errNoToken      = fmt.Errorf("%w: No token", entity.ErrAuth)
	errUnauthorized = fmt.Errorf("%w: Unauthorized", entity.ErrAuth)
)

// Authenticate verifies the bearer token with the auth service and stores
// the resulting entity.Identity under the "user" context key.
func Authenticate(auth *service.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  identityKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return auth.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var extractErr *echojwt.TokenExtractionError
			if errors.As(err, &extractErr) {
				return writeError(c, errNoToken)
			}
			return writeError(c, errUnauthorized)
		},
	})
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !identity(c).IsAdmin {
			return writeError(c, entity.ErrForbidden)
		}
		return next(c)
	}
}

func identity(c echo.Context) entity.Identity {
	id, _ := c.Get(identityKey).(entity.Identity)
	return id
}

// actingUser resolves whose cart or order a request touches. Customers may
// only act for themselves; admins may name any user.
func actingUser(c echo.Context, bodyUserID *int) (int, error) {
	id := identity(c)
	if bodyUserID == nil || *bodyUserID == id.UserID {
		return id.UserID, nil
	}
	if id.IsAdmin {
		return *bodyUserID, nil
	}
	return 0, fmt.Errorf("%w: userId does not match the authenticated user", entity.ErrForbidden)
}
