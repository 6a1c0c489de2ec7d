package collector

import (
	"crypto/sha256"
	"encoding/hex"
)

// Anonymizer maps raw author handles to stable opaque references so no raw
// PII reaches the output when enabled.
type Anonymizer struct {
	Enabled bool
}

// Ref returns the author reference to persist. Deleted/empty authors pass
// through unchanged so they stay recognizable in the data.
func (a Anonymizer) Ref(author string) string {
	if !a.Enabled || author == "" || author == "[deleted]" {
		return author
	}
	sum := sha256.Sum256([]byte(author))
	return "u_" + hex.EncodeToString(sum[:8])
}
