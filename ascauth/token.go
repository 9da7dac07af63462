// Package ascauth mints the short-lived ES256 bearer tokens App Store Connect
// expects on every API request.
//
// Individual keys sign with subject "user"; team keys carry the issuer id
// instead. Tokens are valid for at most 20 minutes.
package ascauth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAudience is the audience App Store Connect checks.
	DefaultAudience = "appstoreconnect-v1"
	// DefaultLifespan is the validity window used when none is configured.
	DefaultLifespan = 10 * time.Minute
	// MaxLifespan is the longest validity the backend accepts.
	MaxLifespan = 20 * time.Minute

	individualSubject = "user"
)

// AuthError reports an unreadable or malformed key, or a signing failure.
type AuthError struct {
	KeyFile string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: key %s: %v", e.KeyFile, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Issuer signs tokens with the private key stored in KeyFile.
type Issuer struct {
	// KeyID goes into the "kid" header.
	KeyID string
	// IssuerID selects a team key when set; empty means an individual key.
	IssuerID string
	// KeyFile is the path to the PEM-encoded .p8 key.
	KeyFile string
	// Lifespan is the validity window (default DefaultLifespan).
	Lifespan time.Duration
	// Audience defaults to DefaultAudience.
	Audience string
	// Now is the clock; nil uses time.Now.
	Now func() time.Time
}

// Issue reads the key and returns a freshly signed token.
func (i *Issuer) Issue() (string, error) {
	if i.KeyID == "" {
		return "", &AuthError{KeyFile: i.KeyFile, Err: errors.New("key id is empty")}
	}

	pemBytes, err := os.ReadFile(i.KeyFile)
	if err != nil {
		return "", &AuthError{KeyFile: i.KeyFile, Err: err}
	}
	key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return "", &AuthError{KeyFile: i.KeyFile, Err: fmt.Errorf("parsing private key: %w", err)}
	}

	now := time.Now
	if i.Now != nil {
		now = i.Now
	}
	issuedAt := now()

	claims := jwt.MapClaims{
		"iat": issuedAt.Unix(),
		"exp": issuedAt.Add(i.lifespan()).Unix(),
		"aud": i.audience(),
	}
	if i.IssuerID != "" {
		claims["iss"] = i.IssuerID
	} else {
		claims["sub"] = individualSubject
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = i.KeyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", &AuthError{KeyFile: i.KeyFile, Err: fmt.Errorf("signing token: %w", err)}
	}
	return signed, nil
}

func (i *Issuer) lifespan() time.Duration {
	switch {
	case i.Lifespan <= 0:
		return DefaultLifespan
	case i.Lifespan > MaxLifespan:
		return MaxLifespan
	}
	return i.Lifespan
}

func (i *Issuer) audience() string {
	if i.Audience != "" {
		return i.Audience
	}
	return DefaultAudience
}
