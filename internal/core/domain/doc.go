// Package domain contains the core business entities for document
// synchronisation: source records, documents, chunks, sync state and
// the run report types shared between services and adapters.
package domain
