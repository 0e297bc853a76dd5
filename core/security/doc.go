// Package security provides the signing and random-token primitives used
// by the session and state managers.
//
// A Manager wraps an HMAC-SHA256 secret of at least 32 bytes and exposes
// hex signing, constant-time verification, URL-safe token generation, and
// the client-binding checks used to tie sessions to an IP address or
// User-Agent.
//
//	sec, err := security.NewFromString(secretKey)
//	if err != nil {
//		log.Fatal(err)
//	}
//	sig := sec.Sign(sessionID)
//	ok := sec.Verify(sessionID, sig)
//
// All comparisons are constant time.
package security
