package scheduler

import (
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenSubject = "quickmsg"

// tokenTTL keeps signed requests short lived; client and daemon share a
// clock.
const tokenTTL = time.Minute

// SignToken returns an HS256 token accepted by RequireToken.
func SignToken(secret []byte, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   tokenSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ValidateToken checks a token produced by SignToken.
func ValidateToken(secret []byte, tokenString string) error {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return err
	}
	if !token.Valid || claims.Subject != tokenSubject {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

var errNoToken = errors.New("authorization required")

func bearer(r *http.Request) (string, error) {
	if q := r.URL.Query().Get("token"); q != "" {
		return q, nil
	}
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errNoToken
	}
	token := strings.TrimPrefix(h, "Bearer ")
	if token == h {
		return "", errors.New("invalid authorization format")
	}
	return token, nil
}

// RequireToken rejects requests without a valid token. An empty secret
// disables the check.
func RequireToken(secret []byte, next http.Handler) http.Handler {
	if len(secret) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearer(r)
		if err == nil {
			err = ValidateToken(secret, token)
		}
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, failed(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RejectCrossSite refuses POSTs a web page could send without a CORS
// preflight: bodies that are not application/json, and requests whose Origin
// is another site.
func RejectCrossSite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if !sameOrigin(r) {
				writeJSON(w, http.StatusForbidden, failed(errors.New("cross-origin request refused")))
				return
			}
			if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
				writeJSON(w, http.StatusUnsupportedMediaType, failed(errors.New("content type must be application/json")))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// sameOrigin accepts requests without an Origin header, which is what
// non-browser clients send, and those whose Origin host is the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
