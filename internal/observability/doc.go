// Package observability provides the store's operation journal,
// metrics calculation, and alerting. Events persist as structured JSON
// Lines (JSONL); metrics derive on-demand from the journal, alerts
// from a store snapshot.
package observability
