// Package session provides signed-token session management persisted
// through the backend abstraction.
//
// A Manager creates sessions, serialises them into opaque tokens (either
// the compact "id.signature[.issued-at]" form or a JWT), and verifies
// tokens on every read: signature, status, expiry, and the optional
// IP / User-Agent bindings. Sliding expiration renews sessions accessed
// late in their lifetime.
//
// # Usage
//
//	cfg := session.DefaultConfig()
//	cfg.SecretKey = secret
//	mgr, err := session.NewManager(store, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, token, err := mgr.Create(ctx, &session.User{ID: "123"}, ip, ua)
//	...
//	sess, err = mgr.Get(ctx, token, ip, ua)
//
// Read failures are reported with sentinel errors (ErrTokenInvalid,
// ErrNotFound, ErrExpired, ErrInvalidated, ErrSecurityViolation) so HTTP
// layers can map them to 401/403.
package session
