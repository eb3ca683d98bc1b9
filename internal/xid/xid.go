package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

const maxHeaderLen = 64

// New returns prefix-<unix nanos>-<16 hex chars>.
func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}

// FromHeader keeps a caller supplied request id when it is short and made of
// safe characters, otherwise it mints a new one.
func FromHeader(value string, prefix string) string {
	if value == "" || len(value) > maxHeaderLen {
		return New(prefix)
	}
	for _, c := range value {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
		default:
			return New(prefix)
		}
	}
	return value
}
