package ascauth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func writeKey(t *testing.T) (string, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey: %v", err)
	}
	path := filepath.Join(t.TempDir(), "AuthKey_TEST.p8")
	data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path, key
}

func parse(t *testing.T, signed string, key *ecdsa.PrivateKey, at time.Time) *jwt.Token {
	t.Helper()
	token, err := jwt.Parse(signed,
		func(*jwt.Token) (any, error) { return &key.PublicKey, nil },
		jwt.WithValidMethods([]string{"ES256"}),
		jwt.WithAudience(DefaultAudience),
		jwt.WithTimeFunc(func() time.Time { return at }),
	)
	if err != nil {
		t.Fatalf("jwt.Parse: %v", err)
	}
	return token
}

func TestIssueIndividualKey(t *testing.T) {
	path, key := writeKey(t)
	now := time.Unix(1_700_000_000, 0)

	iss := &Issuer{KeyID: "ABC123", KeyFile: path, Lifespan: 600 * time.Second, Now: func() time.Time { return now }}
	signed, err := iss.Issue()
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	token := parse(t, signed, key, now.Add(time.Minute))
	if token.Header["kid"] != "ABC123" {
		t.Fatalf("kid = %v, want ABC123", token.Header["kid"])
	}
	if token.Header["alg"] != "ES256" {
		t.Fatalf("alg = %v, want ES256", token.Header["alg"])
	}

	claims := token.Claims.(jwt.MapClaims)
	if claims["sub"] != "user" {
		t.Fatalf("sub = %v, want user", claims["sub"])
	}
	if _, ok := claims["iss"]; ok {
		t.Fatalf("individual key token carries iss: %v", claims["iss"])
	}
	if iat, _ := claims.GetIssuedAt(); iat == nil || !iat.Time.Equal(now) {
		t.Fatalf("iat = %v, want %v", iat, now)
	}
	if exp, _ := claims.GetExpirationTime(); exp == nil || !exp.Time.Equal(now.Add(600*time.Second)) {
		t.Fatalf("exp = %v, want iat+600s", exp)
	}
}

func TestIssueTeamKey(t *testing.T) {
	path, key := writeKey(t)
	now := time.Now()

	iss := &Issuer{KeyID: "ABC123", IssuerID: "57246542-96fe-1a63", KeyFile: path, Now: func() time.Time { return now }}
	signed, err := iss.Issue()
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	claims := parse(t, signed, key, now).Claims.(jwt.MapClaims)
	if claims["iss"] != "57246542-96fe-1a63" {
		t.Fatalf("iss = %v", claims["iss"])
	}
	if _, ok := claims["sub"]; ok {
		t.Fatalf("team key token carries sub: %v", claims["sub"])
	}
}

func TestIssueLifespanBounds(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, DefaultLifespan},
		{5 * time.Minute, 5 * time.Minute},
		{time.Hour, MaxLifespan},
	}
	for _, tc := range cases {
		i := &Issuer{Lifespan: tc.in}
		if got := i.lifespan(); got != tc.want {
			t.Fatalf("lifespan(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIssueErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.p8")
	if err := os.WriteFile(garbage, []byte("not a key"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	valid, _ := writeKey(t)

	cases := []struct {
		name string
		iss  Issuer
	}{
		{"missing file", Issuer{KeyID: "K", KeyFile: filepath.Join(dir, "missing.p8")}},
		{"malformed key", Issuer{KeyID: "K", KeyFile: garbage}},
		{"empty key id", Issuer{KeyFile: valid}},
	}
	for _, tc := range cases {
		_, err := tc.iss.Issue()
		var ae *AuthError
		if !errors.As(err, &ae) {
			t.Fatalf("%s: Issue() error = %v, want *AuthError", tc.name, err)
		}
	}
}
