// Package state manages single-use OAuth state tokens with server-side
// metadata.
//
// A token is valid for exactly one consumption: Consume verifies and
// deletes it atomically from the caller's point of view, so a second
// Consume of the same token fails with ErrInvalidState. Validate and
// Metadata are non-destructive readers that tolerate any corrupt stored
// document by reporting the token as invalid instead of failing.
//
//	mgr := state.NewManager(store, sec)
//	token, err := mgr.Create(ctx, map[string]any{"cb": callbackURL}, 0)
//	...
//	data, err := mgr.Consume(ctx, token)
package state
