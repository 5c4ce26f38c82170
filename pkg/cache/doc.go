// Package cache provides a generic, thread-safe, string-keyed cache with a
// fixed time to live per entry and a bounded capacity.
//
// Entries expire a fixed duration after insertion. Expiry is evaluated lazily
// on Get: an entry is never returned once now >= expiresAt. Sweep can be run
// periodically to bound memory held by entries nobody reads any more.
//
// When the capacity is exceeded the least recently used entry is evicted.
// Both Get and Put count as a use, so the policy is deterministic for a given
// sequence of calls.
//
// # Usage
//
//	c := cache.New[string](time.Minute, cache.WithCapacity[string](500))
//	c.Put("tenants/acme", "token")
//	if v, ok := c.Get("tenants/acme"); ok {
//		// use v
//	}
//	c.Remove("tenants/acme")
//
// # Time
//
// The cache reads time from a github.com/juju/clock Clock. Production code
// uses the wall clock; tests pass a testclock.Clock and advance it explicitly:
//
//	clk := testclock.NewClock(time.Now())
//	c := cache.New[int](time.Second, cache.WithClock[int](clk))
//	clk.Advance(2 * time.Second) // everything stored so far is now expired
package cache
