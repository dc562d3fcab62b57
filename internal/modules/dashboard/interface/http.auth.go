package transport

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"mesaYaWaitlist/internal/shared/auth"
	"mesaYaWaitlist/internal/shared/httputil"
)

const (
	// StaffCookieName keeps a token that arrived as a query parameter.
	StaffCookieName  = "staff_token"
	claimsContextKey = "staffClaims"
)

var authErrors = httputil.NewErrorMapper().
	WithMapping(auth.ErrMissingToken, http.StatusUnauthorized, "missing token").
	WithMapping(auth.ErrInvalidToken, http.StatusUnauthorized, "invalid token").
	WithMapping(auth.ErrForbiddenRole, http.StatusForbidden, "forbidden").
	WithDefault(http.StatusUnauthorized, "unauthorized")

// StaffAuth requires a valid staff JWT from the Authorization header, the
// token query parameter or the staff cookie. A nil validator lets every
// request through.
func StaffAuth(validator auth.TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if validator == nil {
			return next
		}
		return func(c echo.Context) error {
			token, source := auth.ExtractToken(c.Request(), "token", StaffCookieName)
			if token == "" {
				return authErrors.HTTPError(auth.ErrMissingToken)
			}
			claims, err := validator.Validate(token)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrForbiddenRole) {
					err = errors.Join(auth.ErrInvalidToken, err)
				}
				slog.Warn("staff auth rejected", slog.String("source", string(source)), slog.String("path", c.Path()), slog.String("ip", c.RealIP()), slog.Any("error", err))
				return authErrors.HTTPError(err)
			}
			if source == auth.TokenSourceQuery {
				c.SetCookie(&http.Cookie{
					Name:     StaffCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Secure:   c.IsTLS(),
				})
			}
			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// staffSubject returns the subject of the authenticated staff member, if any.
func staffSubject(c echo.Context) string {
	claims, ok := c.Get(claimsContextKey).(*auth.Claims)
	if !ok || claims == nil {
		return ""
	}
	return claims.Subject
}
