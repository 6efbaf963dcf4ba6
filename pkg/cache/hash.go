package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/vmihailenco/msgpack/v5"
)

// keyVersion is part of every generated key. Bump it when the encoding of
// cached values changes so stale entries are never decoded.
const keyVersion = "v1"

// hashKey returns "<prefix>:<version>:<sha256 of parts>". The parts are
// msgpack encoded, so struct field order is significant.
func hashKey(prefix string, parts ...any) string {
	data, err := msgpack.Marshal(parts)
	if err != nil {
		// Unencodable parts cannot share a key with anything else.
		return prefix + ":" + keyVersion + ":" + err.Error()
	}
	return prefix + ":" + keyVersion + ":" + Hash(data)
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
