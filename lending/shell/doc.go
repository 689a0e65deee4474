// Package shell contains the imperative glue shared by the lending components:
// mapping between domain events and storable events, retry with exponential backoff,
// and logging/metrics helpers.
package shell
