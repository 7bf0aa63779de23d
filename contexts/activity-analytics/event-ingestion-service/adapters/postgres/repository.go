package postgresadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"pulse/contexts/activity-analytics/event-ingestion-service/domain/entities"
	domainerrors "pulse/contexts/activity-analytics/event-ingestion-service/domain/errors"
	"pulse/contexts/activity-analytics/event-ingestion-service/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionProvider is the slice of the connection lifecycle manager this
// adapter needs: a transactional session against the default or a
// caller-specified target store.
type SessionProvider interface {
	Scoped(ctx context.Context, target string, fn func(tx *gorm.DB) error) error
}

type Repository struct {
	sessions SessionProvider
	idgen    ports.IDGenerator
	logger   *slog.Logger
}

func NewRepository(sessions SessionProvider, idgen ports.IDGenerator, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		sessions: sessions,
		idgen:    idgen,
		logger:   logger,
	}
}

// BulkInsert submits the whole batch as a single INSERT with
// ON CONFLICT (event_id) DO NOTHING. No pre-check query is issued; the
// conflict clause is the sole deduplication mechanism. A session that fails
// mid-statement is rolled back and returned to its pool before the error
// surfaces.
func (r *Repository) BulkInsert(
	ctx context.Context,
	target string,
	events []entities.Event,
) (int, error) {
	rows := make([]eventModel, 0, len(events))
	for _, event := range events {
		surrogateID, err := r.idgen.NewID(ctx)
		if err != nil {
			return 0, fmt.Errorf("generate surrogate id: %w", err)
		}
		properties, err := json.Marshal(event.Properties)
		if err != nil {
			return 0, fmt.Errorf("serialize event properties: %w", err)
		}
		rows = append(rows, eventModel{
			SurrogateID: surrogateID,
			EventID:     event.EventID,
			OccurredAt:  event.OccurredAt.UTC(),
			UserID:      event.UserID,
			EventType:   event.EventType,
			Properties:  string(properties),
		})
	}

	ran := false
	err := r.sessions.Scoped(ctx, target, func(tx *gorm.DB) error {
		ran = true
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).Create(&rows).Error
	})
	if err != nil {
		if !ran {
			// Connection failure before any statement executed: the batch is
			// discarded and the caller sees a zero count, not an error.
			r.logger.Error("event store connection failed",
				"event", "event_ingestion_connect_failed",
				"module", "activity-analytics/event-ingestion-service",
				"layer", "adapter",
				"batch_size", len(rows),
				"error", err.Error(),
			)
			return 0, nil
		}
		return 0, fmt.Errorf("insert event batch: %w: %v", domainerrors.ErrStoreUnavailable, err)
	}
	return len(rows), nil
}

// AutoMigrate creates the events table and its composite index on the
// default store. Full migration tooling is out of scope; this covers local
// and test bootstrap.
func AutoMigrate(ctx context.Context, sessions SessionProvider) error {
	return sessions.Scoped(ctx, "", func(tx *gorm.DB) error {
		return tx.AutoMigrate(&eventModel{})
	})
}

type eventModel struct {
	SurrogateID string    `gorm:"column:surrogate_id;primaryKey"`
	EventID     string    `gorm:"column:event_id;uniqueIndex:uq_events_event_id"`
	OccurredAt  time.Time `gorm:"column:occurred_at;index:idx_user_time_type,priority:2"`
	UserID      int64     `gorm:"column:user_id;index:idx_user_time_type,priority:1"`
	EventType   string    `gorm:"column:event_type;index:idx_user_time_type,priority:3"`
	Properties  string    `gorm:"column:properties;type:jsonb"`
}

func (eventModel) TableName() string {
	return "events"
}

var _ ports.EventRepository = (*Repository)(nil)
