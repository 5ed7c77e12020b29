package services

import (
	"crypto/ed25519"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// VerifySignature checks a detached ed25519 signature over the exact message
// bytes the wallet signed. Fails closed: malformed base58, wrong key or
// signature length all return false, never an error — a garbage request must
// not abort the pipeline differently from a forged one.
func VerifySignature(message []byte, signatureB58, walletB58 string) bool {
	sig, err := base58.Decode(signatureB58)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	pub, err := base58.Decode(walletB58)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig)
}

// ValidWallet reports whether addr decodes to a 32-byte ed25519 public key.
func ValidWallet(addr string) bool {
	pub, err := base58.Decode(addr)
	return err == nil && len(pub) == ed25519.PublicKeySize
}

// ParseActionMessage splits "<Verb>:<subject>:<unixMillis>". The subject may
// itself contain colons (location names do), so the verb is everything before
// the first colon and the timestamp everything after the last.
func ParseActionMessage(msg string) (verb, subject string, unixMillis int64, ok bool) {
	first := strings.Index(msg, ":")
	last := strings.LastIndex(msg, ":")
	if first < 1 || last <= first || last == len(msg)-1 {
		return "", "", 0, false
	}
	ts, err := strconv.ParseInt(msg[last+1:], 10, 64)
	if err != nil {
		return "", "", 0, false
	}
	return msg[:first], msg[first+1 : last], ts, true
}
