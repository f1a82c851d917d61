// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
package driven
