// Package eventingestion implements the batch ingestion writer inside the
// activity-analytics context.
//
// The module accepts validated batches of user-activity events and persists
// them idempotently into the transactional store in a single round trip,
// deduplicating on the caller-supplied event_id. Infrastructure concerns
// (connection pooling, serialization targets) stay behind ports and adapters.
package eventingestion
