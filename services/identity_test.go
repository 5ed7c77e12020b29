package services

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
)

func TestVerifySignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	wallet := base58.Encode(pub)
	message := []byte("Claim:Rusty Springs:1735689600000")
	sig := ed25519.Sign(priv, message)
	sigB58 := base58.Encode(sig)

	if !VerifySignature(message, sigB58, wallet) {
		t.Fatal("valid signature rejected")
	}

	// Any single flipped byte in the signature must fail.
	for i := 0; i < len(sig); i += 7 {
		mutated := append([]byte(nil), sig...)
		mutated[i] ^= 0x01
		if VerifySignature(message, base58.Encode(mutated), wallet) {
			t.Fatalf("mutated signature (byte %d) accepted", i)
		}
	}

	if VerifySignature([]byte("Claim:Rusty Springs:1735689600001"), sigB58, wallet) {
		t.Fatal("signature accepted for different message")
	}

	otherPub, _, _ := ed25519.GenerateKey(rand.Reader)
	if VerifySignature(message, sigB58, base58.Encode(otherPub)) {
		t.Fatal("signature accepted for different wallet")
	}

	// Malformed inputs fail closed, no panic.
	if VerifySignature(message, "0OIl-not-base58", wallet) {
		t.Fatal("garbage signature accepted")
	}
	if VerifySignature(message, sigB58, "tooShort") {
		t.Fatal("short wallet accepted")
	}
	if VerifySignature(message, base58.Encode(sig[:32]), wallet) {
		t.Fatal("truncated signature accepted")
	}
}

func TestValidWallet(t *testing.T) {
	pub, _, _ := ed25519.GenerateKey(rand.Reader)
	if !ValidWallet(base58.Encode(pub)) {
		t.Fatal("real pubkey rejected")
	}
	for _, bad := range []string{"", "abc", "0OIl", base58.Encode(pub[:31])} {
		if ValidWallet(bad) {
			t.Errorf("ValidWallet(%q) = true", bad)
		}
	}
}

func TestParseActionMessage(t *testing.T) {
	cases := []struct {
		msg     string
		verb    string
		subject string
		ts      int64
		ok      bool
	}{
		{"Claim:Rusty Springs:1735689600000", "Claim", "Rusty Springs", 1735689600000, true},
		{"Claim:Vault 13: Entrance:99", "Claim", "Vault 13: Entrance", 99, true},
		{"Buy:radaway:-5", "Buy", "radaway", -5, true},
		{"Terminal:250:170", "Terminal", "250", 170, true},
		{"noColons", "", "", 0, false},
		{"Claim:", "", "", 0, false},
		{"Claim:loc:", "", "", 0, false},
		{"Claim:loc:abc", "", "", 0, false},
		{":subject:5", "", "", 0, false},
		{"", "", "", 0, false},
	}
	for _, tc := range cases {
		verb, subject, ts, ok := ParseActionMessage(tc.msg)
		if ok != tc.ok || verb != tc.verb || subject != tc.subject || ts != tc.ts {
			t.Errorf("ParseActionMessage(%q) = (%q,%q,%d,%t), want (%q,%q,%d,%t)",
				tc.msg, verb, subject, ts, ok, tc.verb, tc.subject, tc.ts, tc.ok)
		}
	}
}
