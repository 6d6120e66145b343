// Package analytics aggregates per-test CI results into day buckets and
// persists them to a compact, mergeable binary artifact (the TSTA format).
//
// A Writer accumulates counts in memory: every distinct
// (testsuite, name, flag set) key owns a ring of N day buckets, where
// bucket 0 is the ring's anchor day and bucket k holds the aggregate of
// runs seen k days before it. A ring is realigned to the writer's "today"
// only when its test is next inserted or merged, so an untouched ring keeps
// its older anchor. Serialize writes the whole state
// as one artifact; Parse opens an artifact as a read-only View borrowing
// the caller's buffer; Merge combines two Views into a fresh Writer; and
// Rewrite expires stale tests and reshapes the day window in place.
//
// Writers are not safe for concurrent use. Views are immutable and may be
// shared freely as long as the backing buffer outlives them.
package analytics
