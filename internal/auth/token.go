// Package auth verifies bearer tokens issued by the external identity provider.
//
// Tidemark does not manage identities itself: the server trusts EdDSA-signed
// access tokens whose subject claim carries the user identifier. The matching
// private key is held by the issuer (or by cmd/token for development).
package auth

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
)

// VerifierConfig defines how access tokens are verified.
type VerifierConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Claims captures validated access token claims.
type Claims struct {
	Issuer    string
	Audience  []string
	UserID    string
	ExpiresAt time.Time
	NotBefore time.Time
	IssuedAt  time.Time
}

// Verifier validates access tokens against pinned issuer, audience, and key.
type Verifier struct {
	cfg VerifierConfig
}

// NewVerifier builds a Verifier from a base64-encoded Ed25519 public key.
func NewVerifier(issuer, audience, publicKey string, now func() time.Time) (Verifier, error) {
	issuer = strings.TrimSpace(issuer)
	audience = strings.TrimSpace(audience)
	publicKey = strings.TrimSpace(publicKey)
	if issuer == "" {
		return Verifier{}, fmt.Errorf("token issuer is required")
	}
	if audience == "" {
		return Verifier{}, fmt.Errorf("token audience is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return Verifier{}, fmt.Errorf("decode token public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return Verifier{}, fmt.Errorf("token public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return Verifier{cfg: VerifierConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}}, nil
}

// Verify checks signature, issuer, audience, and validity window, and returns
// the token claims.
func (v Verifier) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperrors.New(apperrors.CodeAuthTokenInvalid, "token is required")
	}
	if v.cfg.Issuer == "" || v.cfg.Audience == "" || len(v.cfg.Key) != ed25519.PublicKeySize {
		return Claims{}, errors.New("token verifier is not configured")
	}
	now := v.cfg.Now
	if now == nil {
		now = time.Now
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(token *jwt.Token) (any, error) {
		return v.cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != v.cfg.Issuer {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeAuthTokenInvalid,
			"token issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !audienceContains(parsed.Audience, v.cfg.Audience) {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeAuthTokenInvalid,
			"token audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return Claims{}, apperrors.New(apperrors.CodeAuthTokenInvalid, "token subject is required")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeAuthTokenInvalid, "token exp is required")
	}

	current := now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(current) {
		return Claims{}, apperrors.New(apperrors.CodeAuthTokenExpired, "token is expired")
	}
	if parsed.NotBefore != nil {
		nbf := parsed.NotBefore.Time.UTC()
		if current.Before(nbf) {
			return Claims{}, apperrors.New(apperrors.CodeAuthTokenInvalid, "token not active yet")
		}
	}

	claims := Claims{
		Issuer:    parsed.Issuer,
		Audience:  []string(parsed.Audience),
		UserID:    parsed.Subject,
		ExpiresAt: exp,
	}
	if parsed.NotBefore != nil {
		claims.NotBefore = parsed.NotBefore.Time.UTC()
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// MintInput describes the fields needed to mint a development token.
type MintInput struct {
	Issuer   string
	Audience string
	UserID   string
	TTL      time.Duration
	Now      func() time.Time
}

// Mint signs a development access token with an Ed25519 private key.
func Mint(key ed25519.PrivateKey, input MintInput) (string, error) {
	if len(key) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if strings.TrimSpace(input.Issuer) == "" {
		return "", fmt.Errorf("issuer is required")
	}
	if strings.TrimSpace(input.Audience) == "" {
		return "", fmt.Errorf("audience is required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return "", fmt.Errorf("user id is required")
	}
	if input.TTL <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	now := input.Now
	if now == nil {
		now = time.Now
	}

	issuedAt := now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    strings.TrimSpace(input.Issuer),
		Audience:  jwt.ClaimStrings{strings.TrimSpace(input.Audience)},
		Subject:   strings.TrimSpace(input.UserID),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(input.TTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeAuthTokenInvalid, "token signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeAuthTokenInvalid, "token alg is invalid")
	}
	return apperrors.New(apperrors.CodeAuthTokenInvalid, "token is invalid")
}

// audienceContains reports whether the audience list contains the given value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

// EncodeKey renders a key as padded base64 for transport through env vars.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}
