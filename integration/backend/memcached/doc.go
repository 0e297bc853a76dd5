// Package memcached provides the Memcached cache backend driver.
//
// Entries are stored as the shared JSON payload with the TTL passed as
// the protocol's expiration in whole seconds. The text protocol has no
// key enumeration, so pattern-scoped invalidation is unsupported:
// ClearPath with includeParams and ClearPattern return 0 after logging a
// warning, and ClearPath without params degrades to an exact single-key
// delete. Clear maps to the protocol flush.
//
//	b, err := memcached.NewFromServers([]string{"127.0.0.1:11211"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	backend.SetCurrent(b)
package memcached
