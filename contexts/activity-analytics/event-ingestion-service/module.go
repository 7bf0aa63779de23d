package eventingestion

import (
	"log/slog"

	httpadapter "pulse/contexts/activity-analytics/event-ingestion-service/adapters/http"
	"pulse/contexts/activity-analytics/event-ingestion-service/adapters/memory"
	"pulse/contexts/activity-analytics/event-ingestion-service/application"
	"pulse/contexts/activity-analytics/event-ingestion-service/domain/entities"
	"pulse/contexts/activity-analytics/event-ingestion-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Events ports.EventRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Events: deps.Events,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.Event, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Events: store,
		Logger: logger,
	})
	module.Store = store
	return module
}
