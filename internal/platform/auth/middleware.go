package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Middleware authenticates requests with a bearer token and places the
// resolved Actor on the request context. Requests without a valid token
// are rejected with 401 before any policy evaluation runs.
func Middleware(ti *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			actor, err := ti.Verify(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := WithActor(c.Request().Context(), actor)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// MustActor returns the actor from the echo context. It is only called
// behind Middleware, so a missing actor is a wiring bug; the request is
// failed with 401 rather than treated as a policy deny.
func MustActor(c echo.Context) (Actor, error) {
	actor, ok := ActorFromContext(c.Request().Context())
	if !ok {
		return Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	}
	return actor, nil
}

// RequireRole returns middleware allowing only the given roles through.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := MustActor(c)
			if err != nil {
				return err
			}
			for _, r := range roles {
				if actor.Role == r {
					return next(c)
				}
			}
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				"required role: "+strings.Join(names, " or "))
		}
	}
}

// Gate evaluates the policy table for the request and returns a 403
// error on deny. Handlers call it before touching the target instance.
func Gate(c echo.Context, action Action, kind Kind, target *Target) error {
	actor, err := MustActor(c)
	if err != nil {
		return err
	}
	if d := Decide(actor, action, kind, target); !d.Allowed {
		return echo.NewHTTPError(http.StatusForbidden, d.Reason)
	}
	return nil
}
