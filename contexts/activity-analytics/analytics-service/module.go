package analytics

import (
	"log/slog"

	httpadapter "pulse/contexts/activity-analytics/analytics-service/adapters/http"
	"pulse/contexts/activity-analytics/analytics-service/adapters/memory"
	"pulse/contexts/activity-analytics/analytics-service/application"
	"pulse/contexts/activity-analytics/analytics-service/application/workers"
	"pulse/contexts/activity-analytics/analytics-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Sync    workers.ReplicaSync
	Replica *memory.Replica
	Source  *memory.Source
}

type Dependencies struct {
	Replica ports.ReplicaStore
	Writer  ports.ReplicaWriter
	Source  ports.SnapshotSource
	Logger  *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.QueryService{
		Replica: deps.Replica,
		Logger:  deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Sync: workers.ReplicaSync{
			Source:  deps.Source,
			Replica: deps.Writer,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	replica := memory.NewReplica()
	source := &memory.Source{}
	module := NewModule(Dependencies{
		Replica: replica,
		Writer:  replica,
		Source:  source,
		Logger:  logger,
	})
	module.Replica = replica
	module.Source = source
	return module
}
