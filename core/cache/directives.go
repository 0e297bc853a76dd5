package cache

import (
	"strconv"
	"strings"
)

// StaleMode selects which stale directive is advertised alongside the
// stale TTL.
type StaleMode string

const (
	// StaleRevalidate emits stale-while-revalidate.
	StaleRevalidate StaleMode = "revalidate"
	// StaleError emits stale-if-error.
	StaleError StaleMode = "error"
)

// cacheControl accumulates Cache-Control directives in emission order.
type cacheControl struct {
	directives []string
}

func (c *cacheControl) add(directive string) {
	c.directives = append(c.directives, directive)
}

func (c *cacheControl) addValue(directive string, seconds int) {
	c.directives = append(c.directives, directive+"="+strconv.Itoa(seconds))
}

func (c *cacheControl) String() string {
	return strings.Join(c.directives, ", ")
}

// cacheControlHeader assembles the header value for the configured
// directives. Precedence: no-store is exclusive; no-cache combines only
// with must-revalidate; otherwise scope, max-age, must-revalidate, the
// stale directive, and immutable are emitted in that order.
func (c *config) cacheControlHeader() string {
	cc := &cacheControl{}

	if c.noStore {
		cc.add("no-store")
		return cc.String()
	}

	if c.noCache {
		cc.add("no-cache")
		if c.mustRevalidate {
			cc.add("must-revalidate")
		}
		return cc.String()
	}

	if c.public {
		cc.add("public")
	} else if c.private {
		cc.add("private")
	}

	if c.hasTTL {
		cc.addValue("max-age", int(c.ttl.Seconds()))
	}

	if c.mustRevalidate {
		cc.add("must-revalidate")
	}

	switch c.stale {
	case StaleRevalidate:
		cc.addValue("stale-while-revalidate", int(c.staleTTL.Seconds()))
	case StaleError:
		cc.addValue("stale-if-error", int(c.staleTTL.Seconds()))
	}

	if c.immutable {
		cc.add("immutable")
	}

	return cc.String()
}
