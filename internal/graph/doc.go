// Package graph provides the Meta Graph API client used by every
// extraction module.
//
// Structure:
//
//	client.go - rate-limited HTTP layer with lazy token resolution
//	call.go   - paginated envelope calls (the workhorse of extraction)
//	errors.go - API error decoding and retry classification
//	types.go  - records, envelopes, time ranges
package graph
