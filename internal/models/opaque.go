package models

import "crypto/subtle"

// OpaqueToken is a raw credential value: an authorization code, access token,
// or refresh token as handed to the client. The server only ever persists its
// hash.
type OpaqueToken string

// Equal compares two tokens in constant time.
func (t OpaqueToken) Equal(other OpaqueToken) bool {
	return subtle.ConstantTimeCompare([]byte(t), []byte(other)) == 1
}

// IsZero reports whether the token is empty.
func (t OpaqueToken) IsZero() bool {
	return t == ""
}
