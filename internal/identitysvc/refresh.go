package identitysvc

import (
	"crypto/rand"
	"encoding/base64"
)

// newOpaqueToken returns a 256-bit, URL-safe random string (spec §6).
func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
