package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Fingerprint hashes a request body into a canonical form so that
// retries with reordered JSON keys still match. Bodies that are not
// valid JSON are hashed as-is.
func Fingerprint(body []byte) string {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err == nil {
		// Marshalling a decoded value sorts object keys, which is the
		// canonicalization we rely on.
		if canonical, err := json.Marshal(decoded); err == nil {
			body = canonical
		}
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
