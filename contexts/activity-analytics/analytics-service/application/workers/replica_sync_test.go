package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"pulse/contexts/activity-analytics/analytics-service/adapters/memory"
	"pulse/contexts/activity-analytics/analytics-service/ports"
)

func TestRunOnceReplacesReplica(t *testing.T) {
	replica := memory.NewReplica()
	source := &memory.Source{}
	source.SetRows([]ports.ReplicaRow{
		{EventID: "a", OccurredAt: time.Now().UTC(), UserID: 1, EventType: "open"},
		{EventID: "b", OccurredAt: time.Now().UTC(), UserID: 2, EventType: "view"},
	})

	sync := ReplicaSync{Source: source, Replica: replica}
	report := sync.RunOnce(context.Background())
	if report.Outcome != ports.SyncOutcomeSynced {
		t.Fatalf("expected synced outcome, got %q", report.Outcome)
	}
	if report.Rows != 2 {
		t.Fatalf("expected 2 replica rows, got %d", report.Rows)
	}

	// The next cycle fully replaces prior contents; nothing accumulates.
	source.SetRows([]ports.ReplicaRow{
		{EventID: "c", OccurredAt: time.Now().UTC(), UserID: 3, EventType: "open"},
	})
	report = sync.RunOnce(context.Background())
	if report.Rows != 1 {
		t.Fatalf("expected full refresh to 1 row, got %d", report.Rows)
	}
}

func TestRunOnceSkipsWhenReplicaLocked(t *testing.T) {
	replica := memory.NewReplica()
	replica.Busy = true
	source := &memory.Source{}

	sync := ReplicaSync{Source: source, Replica: replica}
	report := sync.RunOnce(context.Background())
	if report.Outcome != ports.SyncOutcomeSkipped {
		t.Fatalf("expected skipped outcome on lock conflict, got %q", report.Outcome)
	}
}

func TestRunOnceAbsorbsSnapshotFailure(t *testing.T) {
	replica := memory.NewReplica()
	source := &memory.Source{FailErr: errors.New("transactional store unreachable")}

	sync := ReplicaSync{Source: source, Replica: replica}
	report := sync.RunOnce(context.Background())
	if report.Outcome != ports.SyncOutcomeFailed {
		t.Fatalf("expected failed outcome, got %q", report.Outcome)
	}
	if len(replica.Rows()) != 0 {
		t.Fatalf("failed cycle must not touch the replica")
	}
}

func TestRunOnceAbsorbsReplaceFailure(t *testing.T) {
	replica := memory.NewReplica()
	replica.FailReplace = errors.New("disk full")
	source := &memory.Source{}

	sync := ReplicaSync{Source: source, Replica: replica}
	report := sync.RunOnce(context.Background())
	if report.Outcome != ports.SyncOutcomeFailed {
		t.Fatalf("expected failed outcome, got %q", report.Outcome)
	}
}
