package models

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// LootVoucher is the signed attestation a downstream on-chain verifier
// consumes. The payload serialization below is a wire contract with that
// verifier's Borsh deserializer — field order, widths and endianness are
// frozen. Any change is a protocol break, not a refactor.
type LootVoucher struct {
	LootID          uint64    `json:"loot_id"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Timestamp       int64     `json:"timestamp"`
	LocationHint    string    `json:"location_hint"`
	ServerSignature ByteArray `json:"server_signature,omitempty"`
	ServerPubkey    string    `json:"server_pubkey,omitempty"`
}

const voucherFixedLen = 8 + 8 + 8 + 8 + 4

// SerializePayload produces the exact byte sequence the server signs and the
// verifier checks: u64 LE loot id, f64 LE latitude, f64 LE longitude, i64 LE
// timestamp, u32 LE hint length, raw UTF-8 hint bytes. No padding, no
// terminator. The signature and pubkey are not part of the payload.
func (v *LootVoucher) SerializePayload() []byte {
	hint := []byte(v.LocationHint)
	buf := make([]byte, voucherFixedLen, voucherFixedLen+len(hint))
	binary.LittleEndian.PutUint64(buf[0:8], v.LootID)
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(v.Latitude))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(v.Longitude))
	binary.LittleEndian.PutUint64(buf[24:32], uint64(v.Timestamp))
	binary.LittleEndian.PutUint32(buf[32:36], uint32(len(hint)))
	return append(buf, hint...)
}

// DeserializePayload is the inverse of SerializePayload. It rejects short
// buffers and trailing garbage; a round trip is byte-exact.
func DeserializePayload(b []byte) (*LootVoucher, error) {
	if len(b) < voucherFixedLen {
		return nil, fmt.Errorf("voucher payload too short: %d bytes", len(b))
	}
	hintLen := binary.LittleEndian.Uint32(b[32:36])
	if uint64(len(b)) != uint64(voucherFixedLen)+uint64(hintLen) {
		return nil, fmt.Errorf("voucher payload length mismatch: have %d, hint declares %d", len(b), hintLen)
	}
	return &LootVoucher{
		LootID:       binary.LittleEndian.Uint64(b[0:8]),
		Latitude:     math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
		Longitude:    math.Float64frombits(binary.LittleEndian.Uint64(b[16:24])),
		Timestamp:    int64(binary.LittleEndian.Uint64(b[24:32])),
		LocationHint: string(b[voucherFixedLen:]),
	}, nil
}

// ByteArray marshals as a JSON array of numbers (0-255) rather than base64,
// because the minting client feeds it straight into a fixed [u8;64] argument.
type ByteArray []byte

func (b ByteArray) MarshalJSON() ([]byte, error) {
	ints := make([]uint16, len(b))
	for i, v := range b {
		ints[i] = uint16(v)
	}
	return json.Marshal(ints)
}

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte array element out of range: %d", v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// LootMetadata is the off-chain JSON published for each issued voucher so the
// minted token's URI resolves.
type LootMetadata struct {
	LootID      uint64              `json:"loot_id"`
	Name        string              `json:"name"`
	Symbol      string              `json:"symbol"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Attributes  []MetadataAttribute `json:"attributes"`
}

type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}
