// Package revenue orchestrates the attribution read path.
//
// The service owns the order of operations: tenant lookup, cache check,
// credential and metric resolution, the channel-report computation, and the
// cache write-back. Concurrent misses for the same key are coalesced into a
// single in-flight computation, and that computation outlives a
// disconnected caller so the cache still gets populated.
//
// The service depends only on interfaces (tenant repository, credential
// resolver, metric resolver, computer, cache store) and should never import
// from internal/api.
package revenue
