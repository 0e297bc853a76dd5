// Package clientip extracts the real client IP address from HTTP
// requests that arrive through proxies, load balancers, or CDNs.
//
// Proxy headers are consulted in priority order before falling back to
// the socket address:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry of the chain)
//  4. X-Real-IP (nginx and similar)
//  5. RemoteAddr
//
// Every candidate is parsed and normalised with net.ParseIP; malformed
// values and the unspecified address are skipped. GetIP never panics and
// always returns a string, degrading to the raw RemoteAddr when nothing
// parses.
//
// The session layer uses the extracted address for IP binding checks:
//
//	sess, err := manager.Get(ctx, token, clientip.GetIP(r), r.UserAgent())
package clientip
