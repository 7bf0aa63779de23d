// Package analytics implements the analytical replica inside the
// activity-analytics context.
//
// The module owns two halves of the replica lifecycle: the synchronization
// worker that periodically rebuilds the replica table from a point-in-time
// snapshot of the transactional store, and the stateless query engine that
// serves daily-active-users, top-events, and weekly cohort retention
// aggregates from whatever the last successful sync left behind.
package analytics
