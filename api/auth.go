package api

import (
	"errors"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"kanban-api/session"
)

var (
	errNoVerifier   = errors.New("token verification not configured")
	errInvalidToken = errors.New("invalid identity token")
)

// Verifier validates optional identity tokens presented on users:identify.
// Verification only attributes actions to a trusted identity; unverified
// clients still participate with their declared name.
type Verifier struct {
	jwks     *keyfunc.JWKS
	audience string
	issuer   string
	parser   *jwt.Parser
}

// NewVerifier creates a Verifier backed by the given JWKS endpoint.
func NewVerifier(jwks *keyfunc.JWKS, audience, issuer string) *Verifier {
	return &Verifier{
		jwks:     jwks,
		audience: audience,
		issuer:   issuer,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})),
	}
}

// IdentityFromToken parses and validates a bearer token and maps its claims
// onto a session identity.
func (v *Verifier) IdentityFromToken(token string) (session.Identity, error) {
	if v == nil || v.jwks == nil {
		return session.Identity{}, errNoVerifier
	}
	parsed, err := v.parser.Parse(token, v.jwks.Keyfunc)
	if err != nil {
		return session.Identity{}, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return session.Identity{}, errInvalidToken
	}

	now := time.Now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return session.Identity{}, errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return session.Identity{}, errors.New("token not valid yet")
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, false) {
		return session.Identity{}, errors.New("invalid audience")
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, false) {
		return session.Identity{}, errors.New("invalid issuer")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return session.Identity{}, errors.New("missing sub")
	}
	username, _ := claims["name"].(string)
	if username == "" {
		username, _ = claims["nickname"].(string)
	}
	email, _ := claims["email"].(string)
	return session.Identity{UserID: sub, Username: username, Email: email}, nil
}
