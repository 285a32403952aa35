// Package resilience provides fault isolation for calls to unreliable
// upstreams: the source site and the public relay endpoints.
//
// The circuitbreaker subpackage wraps github.com/sony/gobreaker. Each fetch
// strategy owns one breaker, so a long-running worker stops calling a relay
// that keeps failing and lets it recover before trying it again.
//
//	cb := circuitbreaker.New(circuitbreaker.RelayFetchConfig("allorigins"))
//	body, err := circuitbreaker.Do(cb, func() ([]byte, error) {
//	    return fetchThroughRelay()
//	})
package resilience
