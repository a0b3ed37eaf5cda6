package order

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const (
	idTokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idTokenLength   = 6
)

// NewOrderID produces a human-traceable order identifier of the form
// ORD-<millisecond epoch>-<random base36 token>, uppercased.
//
// Uniqueness is best-effort: the timestamp plus a 6-character random token
// makes collisions astronomically unlikely, but the store's primary key
// remains the authoritative check. Callers must treat a duplicate as a
// retryable conflict, not a fatal error.
func NewOrderID() string {
	token := make([]byte, idTokenLength)
	if _, err := rand.Read(token); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("order id token: %v", err))
	}
	for i, b := range token {
		token[i] = idTokenAlphabet[int(b)%len(idTokenAlphabet)]
	}
	return strings.ToUpper(fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), token))
}
