package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	apperrors "github.com/tidemark/tidemark/internal/platform/errors"
)

const (
	testIssuer   = "https://id.tidemark.test"
	testAudience = "tidemark-api"
)

func testKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pub, priv
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestMintAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	pub, priv := testKeyPair(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token, err := Mint(priv, MintInput{
		Issuer:   testIssuer,
		Audience: testAudience,
		UserID:   "user-1",
		TTL:      time.Hour,
		Now:      fixedClock(now),
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	verifier, err := NewVerifier(testIssuer, testAudience, EncodeKey(pub), fixedClock(now.Add(time.Minute)))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("user id = %q, want %q", claims.UserID, "user-1")
	}
	if !claims.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires at = %v, want %v", claims.ExpiresAt, now.Add(time.Hour))
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	pub, priv := testKeyPair(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token, err := Mint(priv, MintInput{
		Issuer:   testIssuer,
		Audience: testAudience,
		UserID:   "user-1",
		TTL:      time.Minute,
		Now:      fixedClock(now),
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	verifier, err := NewVerifier(testIssuer, testAudience, EncodeKey(pub), fixedClock(now.Add(2*time.Minute)))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	_, err = verifier.Verify(token)
	if !errors.Is(err, apperrors.New(apperrors.CodeAuthTokenExpired, "")) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	t.Parallel()

	_, priv := testKeyPair(t)
	otherPub, _ := testKeyPair(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token, err := Mint(priv, MintInput{
		Issuer:   testIssuer,
		Audience: testAudience,
		UserID:   "user-1",
		TTL:      time.Hour,
		Now:      fixedClock(now),
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	verifier, err := NewVerifier(testIssuer, testAudience, EncodeKey(otherPub), fixedClock(now))
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	_, err = verifier.Verify(token)
	if !errors.Is(err, apperrors.New(apperrors.CodeAuthTokenInvalid, "")) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}

func TestVerifyRejectsClaimMismatches(t *testing.T) {
	t.Parallel()

	pub, priv := testKeyPair(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		issuer   string
		audience string
	}{
		{name: "issuer mismatch", issuer: "https://other.test", audience: testAudience},
		{name: "audience mismatch", issuer: testIssuer, audience: "other-api"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			token, err := Mint(priv, MintInput{
				Issuer:   tc.issuer,
				Audience: tc.audience,
				UserID:   "user-1",
				TTL:      time.Hour,
				Now:      fixedClock(now),
			})
			if err != nil {
				t.Fatalf("mint: %v", err)
			}

			verifier, err := NewVerifier(testIssuer, testAudience, EncodeKey(pub), fixedClock(now))
			if err != nil {
				t.Fatalf("new verifier: %v", err)
			}
			if _, err := verifier.Verify(token); err == nil {
				t.Fatal("expected verification failure")
			}
		})
	}
}

func TestNewVerifierValidatesInputs(t *testing.T) {
	t.Parallel()

	pub, _ := testKeyPair(t)

	if _, err := NewVerifier("", testAudience, EncodeKey(pub), nil); err == nil {
		t.Fatal("expected error for empty issuer")
	}
	if _, err := NewVerifier(testIssuer, "", EncodeKey(pub), nil); err == nil {
		t.Fatal("expected error for empty audience")
	}
	if _, err := NewVerifier(testIssuer, testAudience, "not-base64!!!", nil); err == nil {
		t.Fatal("expected error for malformed key")
	}
	if _, err := NewVerifier(testIssuer, testAudience, EncodeKey([]byte("short")), nil); err == nil {
		t.Fatal("expected error for wrong key size")
	}
}
