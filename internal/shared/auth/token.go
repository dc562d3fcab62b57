package auth

import (
	"net/http"
	"strings"
)

// ExtractBearerTokenFromHeader extracts the JWT from an Authorization header value.
// Both "Bearer " and "bearer " prefixes are accepted.
func ExtractBearerTokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len("bearer ") {
		return ""
	}
	if strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	return ""
}

// TokenSource names the place a staff token was found in.
type TokenSource string

const (
	TokenSourceNone   TokenSource = ""
	TokenSourceHeader TokenSource = "header"
	TokenSourceQuery  TokenSource = "query"
	TokenSourceCookie TokenSource = "cookie"
)

// ExtractToken looks for a token in order: Authorization header, query
// parameter, cookie. The first non-empty value wins.
func ExtractToken(r *http.Request, queryParam, cookieName string) (string, TokenSource) {
	if r == nil {
		return "", TokenSourceNone
	}
	if token := ExtractBearerTokenFromHeader(r.Header.Get("Authorization")); token != "" {
		return token, TokenSourceHeader
	}
	if queryParam == "" {
		queryParam = "token"
	}
	if r.URL != nil {
		if token := strings.TrimSpace(r.URL.Query().Get(queryParam)); token != "" {
			return token, TokenSourceQuery
		}
	}
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil {
			if token := strings.TrimSpace(cookie.Value); token != "" {
				return token, TokenSourceCookie
			}
		}
	}
	return "", TokenSourceNone
}
