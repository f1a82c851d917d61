// Package bubble implements the RecordFetcher port against the Bubble
// Data API: bearer-token auth, cursor pagination, constraint filters,
// bounded retry with backoff and client-side rate limiting.
package bubble
