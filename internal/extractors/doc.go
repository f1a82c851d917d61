// Package extractors provides implementations of the Extractor interface
// for source object types. Each extractor knows which fields of a raw
// record make up its display text and metadata.
//
// Extractors are registered with the Registry at startup; object types
// without a registered extractor fall back to the generic extractor.
package extractors
