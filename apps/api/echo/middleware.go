package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// callerMiddleware turns the claims of the verified JWT into the core.Caller of the request.
func callerMiddleware(tokenKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx, tokenKey)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			caller := claims.Caller()
			if caller.MemberID == "" || caller.OrganizationID == "" {
				return errUnauthorized
			}
			ctx.Set(contextCallerKey, caller)
			return next(ctx)
		}
	}
}
