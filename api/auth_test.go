package api

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

const testKeyID = "test-key"

func newTestVerifier(t *testing.T, audience, issuer string) (*Verifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	jwksDoc := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKeyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(jwksDoc)
	}))
	t.Cleanup(srv.Close)

	jwks, err := keyfunc.Get(srv.URL, keyfunc.Options{})
	if err != nil {
		t.Fatalf("jwks: %v", err)
	}
	t.Cleanup(jwks.EndBackground)
	return NewVerifier(jwks, audience, issuer), key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestIdentityFromToken(t *testing.T) {
	v, key := newTestVerifier(t, "api://board", "https://issuer/")
	signed := signToken(t, key, jwt.MapClaims{
		"sub":   "auth0|u1",
		"name":  "Carol",
		"email": "carol@example.com",
		"aud":   "api://board",
		"iss":   "https://issuer/",
		"exp":   time.Now().Add(5 * time.Minute).Unix(),
		"nbf":   time.Now().Add(-time.Minute).Unix(),
	})

	ident, err := v.IdentityFromToken(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ident.UserID != "auth0|u1" || ident.Username != "Carol" || ident.Email != "carol@example.com" {
		t.Fatalf("unexpected identity: %+v", ident)
	}
}

func TestIdentityFromTokenNicknameFallback(t *testing.T) {
	v, key := newTestVerifier(t, "", "")
	signed := signToken(t, key, jwt.MapClaims{
		"sub":      "u2",
		"nickname": "dana",
		"exp":      time.Now().Add(time.Minute).Unix(),
	})
	ident, err := v.IdentityFromToken(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ident.Username != "dana" {
		t.Fatalf("expected nickname fallback, got %+v", ident)
	}
}

func TestIdentityFromTokenRejections(t *testing.T) {
	v, key := newTestVerifier(t, "api://board", "https://issuer/")
	valid := jwt.MapClaims{
		"sub": "u1",
		"aud": "api://board",
		"iss": "https://issuer/",
		"exp": time.Now().Add(time.Minute).Unix(),
	}

	cases := []struct {
		name   string
		mutate func(jwt.MapClaims)
	}{
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Minute).Unix() }},
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "api://other" }},
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "https://evil/" }},
		{"missing sub", func(c jwt.MapClaims) { delete(c, "sub") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := jwt.MapClaims{}
			for k, val := range valid {
				claims[k] = val
			}
			tc.mutate(claims)
			if _, err := v.IdentityFromToken(signToken(t, key, claims)); err == nil {
				t.Fatal("expected rejection")
			}
		})
	}
}

func TestIdentityFromTokenUnconfigured(t *testing.T) {
	var v *Verifier
	if _, err := v.IdentityFromToken("x.y.z"); err != errNoVerifier {
		t.Fatalf("expected errNoVerifier, got %v", err)
	}
}
