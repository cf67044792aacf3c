package token

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/byJim/salinas-api/internal/core/domain"
	"github.com/byJim/salinas-api/internal/infrastructure/keys"
)

func ecPair(t *testing.T) *keys.Pair {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate ec key: %v", err)
	}
	pair, err := keys.NewPair(priv, &priv.PublicKey)
	if err != nil {
		t.Fatalf("new pair: %v", err)
	}
	return pair
}

func rsaPair(t *testing.T) *keys.Pair {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	pair, err := keys.NewPair(priv, &priv.PublicKey)
	if err != nil {
		t.Fatalf("new pair: %v", err)
	}
	return pair
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_760_000_000, 0).UTC()}
}

func TestCodec_SignVerify_RoundTrip(t *testing.T) {
	for name, pair := range map[string]*keys.Pair{"rsa": rsaPair(t), "ecdsa": ecPair(t)} {
		t.Run(name, func(t *testing.T) {
			clock := newClock()
			codec, err := NewCodec(pair, WithClock(clock.Now))
			if err != nil {
				t.Fatalf("NewCodec: %v", err)
			}

			signed, err := codec.Sign(domain.TokenPayload{Subject: "sess-1", Role: domain.RoleAdmin}, 15*time.Minute)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}

			got, err := codec.Verify(signed)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			if got.Subject != "sess-1" || got.Role != domain.RoleAdmin {
				t.Fatalf("unexpected payload: %+v", got)
			}
			if !got.ExpiresAt.Equal(clock.t.Add(15 * time.Minute)) {
				t.Fatalf("unexpected expiry: %v", got.ExpiresAt)
			}
			if !got.IssuedAt.Equal(clock.t) {
				t.Fatalf("unexpected issued at: %v", got.IssuedAt)
			}
		})
	}
}

func TestCodec_AlgorithmFollowsKey(t *testing.T) {
	rc, _ := NewCodec(rsaPair(t))
	ec, _ := NewCodec(ecPair(t))
	if rc.Algorithm() != "RS256" || ec.Algorithm() != "ES256" {
		t.Fatalf("unexpected algorithms: %s %s", rc.Algorithm(), ec.Algorithm())
	}
}

func TestCodec_RefreshPayloadHasNoRole(t *testing.T) {
	codec, _ := NewCodec(ecPair(t))

	signed, err := codec.Sign(domain.TokenPayload{Subject: "sess-1"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	parts := strings.Split(signed, ".")
	raw, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if strings.Contains(string(raw), "role") {
		t.Fatalf("refresh payload must not carry a role: %s", raw)
	}

	got, err := codec.Verify(signed)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !got.IsRefresh() {
		t.Fatalf("expected refresh-shaped payload")
	}
}

func TestCodec_ExpiryBoundary(t *testing.T) {
	clock := newClock()
	codec, _ := NewCodec(ecPair(t), WithClock(clock.Now))
	start := clock.t

	signed, err := codec.Sign(domain.TokenPayload{Subject: "sess-1", Role: domain.RoleUser}, 10*time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	clock.t = start.Add(10*time.Minute - time.Second)
	if _, err := codec.Verify(signed); err != nil {
		t.Fatalf("expected token valid one second before expiry, got %v", err)
	}

	clock.t = start.Add(10 * time.Minute)
	_, err = codec.Verify(signed)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken exactly at expiry, got %v", err)
	}
	if !IsExpired(err) {
		t.Fatalf("expected expiry cause to be preserved, got %v", err)
	}

	clock.t = start.Add(time.Hour)
	if _, err := codec.Verify(signed); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestCodec_TamperedTokenRejected(t *testing.T) {
	codec, _ := NewCodec(ecPair(t))

	signed, err := codec.Sign(domain.TokenPayload{Subject: "sess-1", Role: domain.RoleUser}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	parts := strings.Split(signed, ".")

	for seg := range parts {
		tampered := make([]string, len(parts))
		copy(tampered, parts)
		tampered[seg] = flipMiddle(parts[seg])

		if _, err := codec.Verify(strings.Join(tampered, ".")); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("segment %d: expected ErrInvalidToken, got %v", seg, err)
		}
	}
}

// flipMiddle swaps one character in the middle of a base64url segment for a
// different one from the same alphabet.
func flipMiddle(s string) string {
	b := []byte(s)
	i := len(b) / 2
	if b[i] == 'A' {
		b[i] = 'B'
	} else {
		b[i] = 'A'
	}
	return string(b)
}

func TestCodec_RoleEscalationInPayloadRejected(t *testing.T) {
	codec, _ := NewCodec(ecPair(t))

	signed, _ := codec.Sign(domain.TokenPayload{Subject: "sess-1", Role: domain.RoleUser}, time.Hour)
	parts := strings.Split(signed, ".")

	forged := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "sess-1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	forgedStr, err := forged.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	forgedParts := strings.Split(forgedStr, ".")

	// plausible payload, original signature
	spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]
	if _, err := codec.Verify(spliced); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for spliced payload, got %v", err)
	}

	if _, err := codec.Verify(forgedStr); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg=none, got %v", err)
	}
}

func TestCodec_WrongKeyRejected(t *testing.T) {
	signer, _ := NewCodec(ecPair(t))
	verifier, _ := NewCodec(ecPair(t))

	signed, _ := signer.Sign(domain.TokenPayload{Subject: "sess-1", Role: domain.RoleUser}, time.Hour)
	if _, err := verifier.Verify(signed); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodec_SymmetricAlgorithmRejected(t *testing.T) {
	codec, _ := NewCodec(ecPair(t))

	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "sess-1", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
	signed, err := hs.SignedString([]byte("guessable"))
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}
	if _, err := codec.Verify(signed); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCodec_Malformed(t *testing.T) {
	codec, _ := NewCodec(ecPair(t))

	for _, tok := range []string{"", "not-a-token", "a.b.c", "a.b"} {
		if _, err := codec.Verify(tok); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("%q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestCodec_SignRejectsBadInput(t *testing.T) {
	codec, _ := NewCodec(ecPair(t))

	if _, err := codec.Sign(domain.TokenPayload{}, time.Hour); err == nil {
		t.Fatalf("expected error for empty subject")
	}
	if _, err := codec.Sign(domain.TokenPayload{Subject: "s"}, 0); err == nil {
		t.Fatalf("expected error for zero ttl")
	}
}

func TestNewCodec_NilPair(t *testing.T) {
	if _, err := NewCodec(nil); !errors.Is(err, keys.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
