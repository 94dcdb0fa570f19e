// Package redirect resolves inbound request paths against the site's
// redirect rules.
//
// The Resolver keeps one immutable Snapshot of the active rules behind an
// atomic pointer together with the time it was loaded. Lookups never block on
// the store unless the snapshot is older than the configured TTL, in which case
// the calling request performs the refresh inline (collapsed through
// singleflight so concurrent requests share one fetch).
//
// A failed refresh leaves both the snapshot and its timestamp untouched: the
// stale rules keep being served and the very next lookup retries. A successful
// refresh that returns zero rules installs an empty snapshot.
//
// Matching tolerates a missing or extra trailing slash, see Snapshot.Match.
// Chains (A->B, B->C) are not followed; the client issues the second request.
package redirect
