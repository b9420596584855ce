package access

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestIssue_Unset(t *testing.T) {
	i := &Issuer{Lookup: envOf(nil), Now: fixedNow}
	if _, err := i.Issue(); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured, got %v", err)
	}
}

func TestIssue_Disabled(t *testing.T) {
	for _, v := range []string{"false", "0", "", "maybe"} {
		i := &Issuer{Lookup: envOf(map[string]string{"ACCESS_KEY_ISSUING": v}), Now: fixedNow}
		if _, err := i.Issue(); !errors.Is(err, ErrDisabled) {
			t.Errorf("flag %q: expected ErrDisabled, got %v", v, err)
		}
	}
}

func TestIssue_Enabled(t *testing.T) {
	i := &Issuer{Lookup: envOf(map[string]string{"ACCESS_KEY_ISSUING": "true"}), Now: fixedNow}
	g, err := i.Issue()
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !g.IssuedAt.Equal(fixedNow()) {
		t.Errorf("issuedAt = %v", g.IssuedAt)
	}
	if d := g.ExpiresAt.Sub(g.IssuedAt); d != 30*24*time.Hour {
		t.Errorf("expected 30 days validity, got %v", d)
	}
	if d := g.ExpiresAt.Sub(g.RenewAt); d != 5*24*time.Hour {
		t.Errorf("expected renewal 5 days before expiry, got %v", d)
	}
	if g.Token != "" {
		t.Errorf("expected no token without a secret")
	}
}

func TestIssue_LegacyFlag(t *testing.T) {
	i := &Issuer{Lookup: envOf(map[string]string{"ACCESS_LOCKED": "true"}), Now: fixedNow}
	if _, err := i.Issue(); err != nil {
		t.Fatalf("expected legacy flag to enable issuing, got %v", err)
	}

	// the current flag wins over the legacy one
	i.Lookup = envOf(map[string]string{"ACCESS_LOCKED": "true", "ACCESS_KEY_ISSUING": "false"})
	if _, err := i.Issue(); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestIssue_FlagReadPerCall(t *testing.T) {
	vars := map[string]string{"ACCESS_KEY_ISSUING": "true"}
	i := &Issuer{Lookup: envOf(vars), Now: fixedNow}
	if _, err := i.Issue(); err != nil {
		t.Fatalf("first Issue failed: %v", err)
	}
	vars["ACCESS_KEY_ISSUING"] = "false"
	if _, err := i.Issue(); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected flag change to apply immediately, got %v", err)
	}
}

func TestIssue_SignedToken(t *testing.T) {
	i := &Issuer{
		Lookup: envOf(map[string]string{"ACCESS_KEY_ISSUING": "1"}),
		Now:    fixedNow,
		Secret: []byte("test-secret"),
	}
	g, err := i.Issue()
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if g.Token == "" {
		t.Fatal("expected a signed token")
	}

	claims, err := parseToken(g.Token, i.Secret, fixedNow)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if !claims.ExpiresAt.Time.Equal(g.ExpiresAt) {
		t.Errorf("exp claim %v, want %v", claims.ExpiresAt.Time, g.ExpiresAt)
	}

	if _, err := parseToken(g.Token, []byte("other-secret"), fixedNow); err == nil {
		t.Error("expected verification with a different secret to fail")
	}

	late := func() time.Time { return fixedNow().Add(31 * 24 * time.Hour) }
	if _, err := parseToken(g.Token, i.Secret, late); err == nil {
		t.Error("expected expired token to fail verification")
	}
}

func parseToken(tokenString string, secret []byte, now func() time.Time) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(now),
	)
	return claims, err
}
