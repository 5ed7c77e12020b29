package services

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// VoucherSigner holds the process-wide ed25519 signing keypair. Loaded once
// at startup; the service must not run without it. The secret key is never
// logged and never leaves this struct.
type VoucherSigner struct {
	priv   ed25519.PrivateKey
	pubB58 string
}

// NewVoucherSignerFromBase58 expects the 64-byte ed25519 secret key the
// wallet tooling exports (seed || public key), base58 encoded.
func NewVoucherSignerFromBase58(secret string) (*VoucherSigner, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("SERVER_SECRET_KEY is not valid base58: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("SERVER_SECRET_KEY must be a %d-byte ed25519 secret key, got %d bytes",
			ed25519.PrivateKeySize, len(raw))
	}
	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)
	return &VoucherSigner{priv: priv, pubB58: base58.Encode(pub)}, nil
}

// NewVoucherSigner wraps an existing private key (tests).
func NewVoucherSigner(priv ed25519.PrivateKey) *VoucherSigner {
	pub := priv.Public().(ed25519.PublicKey)
	return &VoucherSigner{priv: priv, pubB58: base58.Encode(pub)}
}

// Sign produces a detached signature over exactly the given payload bytes.
func (s *VoucherSigner) Sign(payload []byte) []byte {
	return ed25519.Sign(s.priv, payload)
}

func (s *VoucherSigner) PublicKeyBase58() string { return s.pubB58 }
