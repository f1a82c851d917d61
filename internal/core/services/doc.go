// Package services implements the core synchronisation logic: mapping raw
// records to documents, reconciling chunk batches against the vector index,
// and orchestrating multi-type sync runs.
package services
