package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gakuseki/gakuseki/core/user"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// activeUserMiddleware refuses tokens of deleted or deactivated accounts.
func activeUserMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx, svc)
			if err != nil {
				return err
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			return next(ctx)
		}
	}
}
