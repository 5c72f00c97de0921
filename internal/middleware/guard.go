package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/anonto42/bsg-marketplace/backend/internal/auth"
	"github.com/labstack/echo/v4"
)

const userContextKey = "user"

var bearerPattern = regexp.MustCompile(`Bearer\s(\S+)`)

// TokenValidator validates a bearer token and returns its identity.
type TokenValidator interface {
	Validate(token string) (*auth.Identity, error)
}

// AccountChecker reports whether an account may still act. Tokens outlive
// deactivation, so required-auth routes ask on every request.
type AccountChecker interface {
	IsActive(ctx context.Context, id uint) (bool, error)
}

// Guard resolves the caller identity from the Authorization header.
type Guard struct {
	tokens   TokenValidator
	accounts AccountChecker
}

func NewGuard(tokens TokenValidator) *Guard {
	return &Guard{tokens: tokens}
}

// WithAccountCheck makes RequireAuth and RequireAdmin reject deactivated accounts.
func (g *Guard) WithAccountCheck(accounts AccountChecker) *Guard {
	g.accounts = accounts
	return g
}

// RequireAuth rejects requests without a valid bearer token with 401.
func (g *Guard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := g.authenticate(c)
		if err != nil {
			return err
		}
		c.Set(userContextKey, identity)
		return next(c)
	}
}

// RequireAdmin is RequireAuth plus a 403 for non-admin roles.
func (g *Guard) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, err := g.authenticate(c)
		if err != nil {
			return err
		}
		if !identity.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
		}
		c.Set(userContextKey, identity)
		return next(c)
	}
}

// OptionalAuth attaches the identity when a valid token is present and
// otherwise lets the request through anonymously.
func (g *Guard) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if identity, err := g.identify(c); err == nil {
			c.Set(userContextKey, identity)
		}
		return next(c)
	}
}

// authenticate is identify plus the account check.
func (g *Guard) authenticate(c echo.Context) (*auth.Identity, error) {
	identity, err := g.identify(c)
	if err != nil || g.accounts == nil {
		return identity, err
	}

	active, err := g.accounts.IsActive(c.Request().Context(), identity.ID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Account is deactivated")
	}
	return identity, nil
}

func (g *Guard) identify(c echo.Context) (*auth.Identity, error) {
	token := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if token == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	identity, err := g.tokens.Validate(token)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	return identity, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	m := bearerPattern.FindStringSubmatch(header)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// CurrentUser returns the identity stored by the guard, or nil for anonymous requests.
func CurrentUser(c echo.Context) *auth.Identity {
	identity, _ := c.Get(userContextKey).(*auth.Identity)
	return identity
}

// CurrentUserID returns the caller's id, or 0 for anonymous requests.
func CurrentUserID(c echo.Context) uint {
	if identity := CurrentUser(c); identity != nil {
		return identity.ID
	}
	return 0
}
