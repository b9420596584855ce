// Package access issues time-boxed access keys. Keys are computed on every request
// and never stored.
package access

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/broadstream/qgem/pkg/config"
)

const (
	ValidFor    = 30 * 24 * time.Hour
	RenewBefore = 5 * 24 * time.Hour

	tokenIssuer = "qgem"
)

var (
	ErrMisconfigured = errors.New("access key issuing is not configured")
	ErrDisabled      = errors.New("access key issuing is currently locked by administrator")
)

// Grant is one issued key window.
type Grant struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
	RenewAt   time.Time
	// Token is set only when a signing secret is configured.
	Token string
}

// Issuer decides whether keys may be issued and computes their window.
type Issuer struct {
	// Lookup reads environment variables; the flag is re-read on every Issue.
	Lookup func(string) (string, bool)
	Now    func() time.Time
	Secret []byte
}

// NewIssuer reads the flag from the process environment.
func NewIssuer(secret string) *Issuer {
	i := &Issuer{Lookup: os.LookupEnv, Now: time.Now}
	if secret != "" {
		i.Secret = []byte(secret)
	}
	return i
}

// Issue returns a fresh grant, ErrMisconfigured when the flag is unset
// or ErrDisabled when it is not truthy.
func (i *Issuer) Issue() (*Grant, error) {
	raw, ok := config.LookupAccessFlag(i.Lookup)
	if !ok {
		return nil, ErrMisconfigured
	}
	enabled, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil || !enabled {
		return nil, ErrDisabled
	}

	now := i.Now()
	g := &Grant{
		IssuedAt:  now,
		ExpiresAt: now.Add(ValidFor),
	}
	g.RenewAt = g.ExpiresAt.Add(-RenewBefore)

	if len(i.Secret) > 0 {
		token, err := i.sign(g)
		if err != nil {
			return nil, fmt.Errorf("sign access key: %w", err)
		}
		g.Token = token
	}
	return g, nil
}

func (i *Issuer) sign(g *Grant) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(g.IssuedAt),
		NotBefore: jwt.NewNumericDate(g.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(g.ExpiresAt),
	})
	return token.SignedString(i.Secret)
}
