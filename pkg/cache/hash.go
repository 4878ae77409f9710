package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
)

// keyVersion is part of every key. Bump it when the encoding of cached
// graphs or layouts changes so stale entries are never decoded.
const keyVersion = 1

// hashKey returns "<kind>:v<keyVersion>:<sha256 of parts as JSON>".
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":v" + strconv.Itoa(keyVersion) + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. Trace text is hashed with it before
// it becomes part of a graph key.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
