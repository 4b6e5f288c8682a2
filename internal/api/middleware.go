package api

import (
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"net/http"
	"storefront/internal/entity"
	"storefront/internal/service"
	"time"
)

const (
	tokenKey  = "token"
	actorKey  = "actor"
	claimsKey = "claims"
)

// RateLimiter limits each client IP to limit requests per second with the
// given burst.
func RateLimiter(limit float64, burst int) echo.MiddlewareFunc {
	config := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(limit),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			return context.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}
	return middleware.RateLimiterWithConfig(config)
}

// Authenticated verifies the bearer token and checks that its session is
// still live. The caller's Actor is stored on the context.
func Authenticated(auth *service.AuthService) []echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		SigningKey: auth.Secret(),
		ContextKey: tokenKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(entity.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		},
	})

	session := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get(tokenKey).(*jwt.Token)
			if !ok {
				return respondError(c, service.ErrUnauthorized)
			}
			claims, ok := token.Claims.(*entity.Claims)
			if !ok {
				return respondError(c, service.ErrUnauthorized)
			}
			actor, err := auth.Authenticate(c.Request().Context(), claims)
			if err != nil {
				return respondError(c, err)
			}
			c.Set(actorKey, actor)
			c.Set(claimsKey, claims)
			return next(c)
		}
	}

	return []echo.MiddlewareFunc{verify, session}
}

// RequireRole rejects actors whose role is not listed. It must run after
// Authenticated.
func RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor := actorOf(c)
			for _, role := range roles {
				if actor.Role == role {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}
}

func actorOf(c echo.Context) service.Actor {
	actor, _ := c.Get(actorKey).(service.Actor)
	return actor
}

func claimsOf(c echo.Context) *entity.Claims {
	claims, _ := c.Get(claimsKey).(*entity.Claims)
	return claims
}
