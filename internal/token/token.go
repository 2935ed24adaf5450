// Package token issues and verifies the signed bearer tokens that prove
// a session. Tokens are stateless: validity is determined entirely by the
// HMAC signature and the embedded expiry, there is no server-side session
// table and no revocation.
package token

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrSignerFailure is returned by Issue when the signing backend fails.
// The transports must map it to a generic server error without detail.
var ErrSignerFailure = errors.New("token signing failed")

// ErrInvalidToken is returned by Verify for a missing, malformed,
// badly signed or expired token.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT claim set of a session token. The registered subject
// claim carries the authenticated email.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens and owns the session cookie
// parameters.
type Issuer struct {
	signingSecretKey []byte
	cookieName       string
	tokenTTL         time.Duration
}

// New creates an Issuer with the given HMAC secret, session cookie name
// and token lifetime.
func New(signingSecretKey []byte, cookieName string, tokenTTL time.Duration) *Issuer {
	return &Issuer{
		signingSecretKey: signingSecretKey,
		cookieName:       cookieName,
		tokenTTL:         tokenTTL,
	}
}

// Issue signs a token whose subject is the given email. The expiry is
// the issue time plus the configured TTL.
func (i *Issuer) Issue(email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.tokenTTL)),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingSecretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignerFailure, err)
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString and returns the
// subject email of a valid token.
func (i *Issuer) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	claims := &Claims{}
	parsedToken, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return i.signingSecretKey, nil
		},
	)
	if err != nil || !parsedToken.Valid {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// CookieName returns the name of the session cookie.
func (i *Issuer) CookieName() string {
	return i.cookieName
}

// SetCookie attaches tokenString to the response as the session cookie.
// HttpOnly, Secure and SameSite=None are required attributes for a
// bearer-token cookie and must not be relaxed.
func (i *Issuer) SetCookie(response http.ResponseWriter, tokenString string) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:     i.cookieName,
			Value:    tokenString,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
		},
	)
}

// FromParts picks the token from the transport-level sources in the
// required precedence: explicit body field, then bearer-style
// Authorization header, then session cookie. A present but non-bearer
// Authorization header yields an empty token rather than falling through
// to the cookie.
func (i *Issuer) FromParts(bodyToken, authorizationHeader, cookieValue string) string {
	if bodyToken != "" {
		return bodyToken
	}

	if authorizationHeader != "" {
		parts := strings.SplitN(authorizationHeader, " ", 2)
		if len(parts) != 2 {
			return ""
		}
		return parts[1]
	}

	return cookieValue
}

// FromRequest extracts the token from an HTTP request applying the
// FromParts precedence. The bodyToken argument is the already-assembled
// body field, the request supplies header and cookie.
func (i *Issuer) FromRequest(request *http.Request, bodyToken string) string {
	cookieValue := ""
	if cookie, err := request.Cookie(i.cookieName); err == nil {
		cookieValue = cookie.Value
	}

	return i.FromParts(bodyToken, request.Header.Get("Authorization"), cookieValue)
}
