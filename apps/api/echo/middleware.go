package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-parents/storage/session"
)

// parentMiddleware lets parent tokens through.
func parentMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		if claims.Subject == "" || !claims.isParent() {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

// sessionLockMiddleware serializes the requests of each parent: they all read & write the same session.
func sessionLockMiddleware(locker session.Locker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			unlock, err := locker.Lock(ctx.Request().Context(), claims.Subject)
			if err != nil {
				return errors.Wrap(err, "locking session")
			}
			defer unlock()
			return next(ctx)
		}
	}
}
