// Package hasher turns structured values into short, deterministic digests.
//
// The digest is NOT cryptographic. It is tuned for uniform distribution and
// avalanche over small input changes and must never be used behind a
// security boundary (tokens, signatures, secrets).
package hasher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DigestLength is the length of every digest returned by Hash.
const DigestLength = 16

const (
	lane1Seed = 0xdeadbeef
	lane2Seed = 0x41c6ce57

	lane1Mul = 2654435761
	lane2Mul = 1597334677

	avalancheMul1 = 2246822507
	avalancheMul2 = 3266489909
)

// Canonicalize serializes v to JSON with every object's keys sorted,
// recursively. Arrays keep their order. Numbers are emitted exactly as the
// first encoding pass produced them, so re-encoding never changes precision.
func Canonicalize(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}

	// Structs encode in declaration order; decoding into generic maps and
	// encoding again yields sorted keys at every depth.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Hash folds s into a 64-bit digest rendered as 16 lowercase hex characters.
// Two 32-bit lanes are seeded with the input length, mixed per byte with
// distinct multipliers and finally cross-mixed so every input bit reaches
// every output bit.
func Hash(s string) string {
	n := uint32(len(s))
	h1 := uint32(lane1Seed) ^ n
	h2 := uint32(lane2Seed) ^ n

	for i := 0; i < len(s); i++ {
		b := uint32(s[i])
		h1 = (h1 ^ b) * lane1Mul
		h2 = (h2 ^ b) * lane2Mul
	}

	h1 = (h1 ^ (h1 >> 16)) * avalancheMul1
	h1 ^= (h2 ^ (h2 >> 13)) * avalancheMul2
	h2 = (h2 ^ (h2 >> 16)) * avalancheMul1
	h2 ^= (h1 ^ (h1 >> 13)) * avalancheMul2

	return fmt.Sprintf("%08x%08x", h2, h1)
}

// Sum canonicalizes v and hashes the result.
func Sum(v any) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	return Hash(canonical), nil
}
