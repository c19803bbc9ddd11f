// Package reconcile resolves catalog identifiers for stored records that lack
// one and persists the results.
//
// Each record runs through an ordered strategy chain (URL extraction, then an
// exact remote search, then a relaxed search without the year). The first
// strategy to produce a candidate wins. Matched records are written inside
// their own transaction so a failed write only affects that record. Every
// record ends in exactly one terminal Status, and the Reporter aggregates the
// outcomes into a Summary that is returned even when the batch is aborted.
//
// Records are processed sequentially. Cancellation is honoured only between
// records so a persist is never interrupted half way.
package reconcile
