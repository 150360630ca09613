// Package hasher provides the URL-safe base64 encoder and the stable
// non-cryptographic 32/64-bit hashes that Transfuse persists in block IDs
// and style-store keys. Two implementations of this package must produce
// identical digests for identical inputs, because these values are written
// to disk (state.sqlite3, content.xml) and read back by a later process.
package hasher

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

const urlAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// XXH32's five primes, declared as vars rather than consts: several of the
// combinations Hash32 builds from them (prime1+prime2, -prime1) wrap around
// uint32 and the Go compiler rejects an out-of-range constant expression
// even when the target type is unsigned and wraparound is intended.
var (
	xxh32Prime1 uint32 = 2654435761
	xxh32Prime2 uint32 = 2246822519
	xxh32Prime3 uint32 = 3266489917
	xxh32Prime4 uint32 = 668265263
	xxh32Prime5 uint32 = 374761393
)

// EncodeURL64 encodes data as unpadded base64 using the URL-safe alphabet
// (A-Z a-z 0-9 - _), bit-exact with the standard base64url-nopad transform:
// the first byte's high six bits map to the first output character, and so
// on across 6-bit groups.
func EncodeURL64(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	out := make([]byte, 0, (len(data)*8+5)/6)
	var acc uint32
	var bits uint
	for _, b := range data {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 6 {
			bits -= 6
			out = append(out, urlAlphabet[(acc>>bits)&0x3F])
		}
	}
	if bits > 0 {
		out = append(out, urlAlphabet[(acc<<(6-bits))&0x3F])
	}
	return string(out)
}

// Hash32 computes a stable 32-bit non-cryptographic hash over data. This is
// the XXH32 algorithm (seed 0), reimplemented directly: github.com/cespare/
// xxhash/v2 is 64-bit only, and block IDs and style hashes are pinned to
// this exact bit-shape, so the algorithm itself is part of the wire
// contract rather than an implementation detail free to substitute.
func Hash32(data []byte) uint32 {
	var h uint32
	n := len(data)
	if n >= 16 {
		v1 := xxh32Prime1 + xxh32Prime2
		v2 := xxh32Prime2
		v3 := uint32(0)
		v4 := uint32(0) - xxh32Prime1
		for len(data) >= 16 {
			v1 = round32(v1, binary.LittleEndian.Uint32(data[0:4]))
			v2 = round32(v2, binary.LittleEndian.Uint32(data[4:8]))
			v3 = round32(v3, binary.LittleEndian.Uint32(data[8:12]))
			v4 = round32(v4, binary.LittleEndian.Uint32(data[12:16]))
			data = data[16:]
		}
		h = rotl32(v1, 1) + rotl32(v2, 7) + rotl32(v3, 12) + rotl32(v4, 18)
	} else {
		h = xxh32Prime5
	}
	h += uint32(n)
	for len(data) >= 4 {
		h += binary.LittleEndian.Uint32(data[0:4]) * xxh32Prime3
		h = rotl32(h, 17) * xxh32Prime4
		data = data[4:]
	}
	for len(data) > 0 {
		h += uint32(data[0]) * xxh32Prime5
		h = rotl32(h, 11) * xxh32Prime1
		data = data[1:]
	}
	h ^= h >> 15
	h *= xxh32Prime2
	h ^= h >> 13
	h *= xxh32Prime3
	h ^= h >> 16
	return h
}

func round32(acc, input uint32) uint32 {
	acc += input * xxh32Prime2
	acc = rotl32(acc, 13)
	acc *= xxh32Prime1
	return acc
}

func rotl32(x uint32, r uint) uint32 {
	return (x << r) | (x >> (32 - r))
}

// Hash64 computes a stable 64-bit non-cryptographic hash over data (XXH64,
// seed 0), via github.com/cespare/xxhash/v2.
func Hash64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// HashSeparated hashes open and close joined by marker.HashSep: equal
// (open, close) pairs must collide to equal hashes, and the separator
// guarantees the hash differs when either fragment differs.
func HashSeparated(open, sep, close_ string) uint32 {
	buf := make([]byte, 0, len(open)+len(sep)+len(close_))
	buf = append(buf, open...)
	buf = append(buf, sep...)
	buf = append(buf, close_...)
	return Hash32(buf)
}

// Uint32Bytes renders a 32-bit hash as its 4-byte little-endian encoding,
// the byte order expected before base64url-encoding a hash value.
func Uint32Bytes(h uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, h)
	return b
}

// Uint64Bytes renders a 64-bit hash as its 8-byte little-endian encoding.
func Uint64Bytes(h uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, h)
	return b
}
