// Package sqlite provides the durable relational store for sync
// bookkeeping: per-scope sync state and the chunk-ref mirror of the
// vector index. The store survives process restarts and is safe for one
// writer per scope key.
package sqlite
