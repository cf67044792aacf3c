// Package keys loads the asymmetric key pair used to sign and verify tokens.
//
// Each key source may be inline PEM, base64-encoded PEM, or a path to a PEM
// file. RSA (PKCS#1 or PKCS#8) and ECDSA P-256 keys are supported. The pair is
// read once at startup and is safe for concurrent use afterwards.
package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrInvalidKey is returned when a source holds no parseable PEM key.
	ErrInvalidKey = errors.New("keys: invalid key")
	// ErrUnsupportedKey is returned for key types the codec cannot sign with.
	ErrUnsupportedKey = errors.New("keys: unsupported key type")
	// ErrKeyMismatch is returned when the public key does not belong to the private key.
	ErrKeyMismatch = errors.New("keys: public key does not match private key")
)

const (
	AlgRS256 = "RS256"
	AlgES256 = "ES256"
)

// Pair holds the signing key and the verification key.
type Pair struct {
	Private crypto.Signer
	Public  crypto.PublicKey
}

// Load parses both key sources and checks that they form a pair.
func Load(privateSrc, publicSrc string) (*Pair, error) {
	priv, err := ParsePrivateKey(privateSrc)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	pub, err := ParsePublicKey(publicSrc)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	return NewPair(priv, pub)
}

// NewPair validates an already parsed pair.
func NewPair(priv crypto.Signer, pub crypto.PublicKey) (*Pair, error) {
	if priv == nil || pub == nil {
		return nil, ErrInvalidKey
	}
	if Algorithm(pub) == "" {
		return nil, ErrUnsupportedKey
	}
	eq, ok := priv.Public().(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !eq.Equal(pub) {
		return nil, ErrKeyMismatch
	}
	return &Pair{Private: priv, Public: pub}, nil
}

// Algorithm returns the JWS algorithm for the pair.
func (p *Pair) Algorithm() string {
	return Algorithm(p.Public)
}

// Algorithm returns "RS256" for RSA keys and "ES256" for ECDSA P-256 keys; empty otherwise.
func Algorithm(pub crypto.PublicKey) string {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return AlgRS256
	case *ecdsa.PublicKey:
		if k.Curve == elliptic.P256() {
			return AlgES256
		}
	}
	return ""
}

// ParsePrivateKey parses a PEM-encoded RSA or ECDSA private key.
func ParsePrivateKey(src string) (crypto.Signer, error) {
	block, err := decodePEM(src)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		switch k := key.(type) {
		case *rsa.PrivateKey:
			return k, nil
		case *ecdsa.PrivateKey:
			return k, nil
		default:
			return nil, ErrUnsupportedKey
		}
	default:
		return nil, ErrInvalidKey
	}
}

// ParsePublicKey parses a PEM-encoded RSA or ECDSA public key.
func ParsePublicKey(src string) (crypto.PublicKey, error) {
	block, err := decodePEM(src)
	if err != nil {
		return nil, err
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		switch key.(type) {
		case *rsa.PublicKey, *ecdsa.PublicKey:
			return key, nil
		default:
			return nil, ErrUnsupportedKey
		}
	default:
		return nil, ErrInvalidKey
	}
}

func decodePEM(src string) (*pem.Block, error) {
	raw, err := readPEM(src)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, ErrInvalidKey
	}
	return block, nil
}

// readPEM resolves inline PEM, base64 PEM, or a file path, in that order.
func readPEM(src string) ([]byte, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrInvalidKey
	}
	if isPEM(src) {
		// env files often carry the newlines escaped
		return []byte(strings.ReplaceAll(src, `\n`, "\n")), nil
	}
	compact := strings.Join(strings.Fields(src), "")
	if decoded, err := base64.StdEncoding.DecodeString(compact); err == nil && isPEM(string(decoded)) {
		return decoded, nil
	}
	raw, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return raw, nil
}

func isPEM(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "-----BEGIN")
}
