package actions

import (
	"context"

	"github.com/relloyd/shipetl/components"
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms"
	"github.com/relloyd/shipetl/rdbms/shared"
	"github.com/relloyd/shipetl/stats"
)

// SourceConnector opens the operational source database.
type SourceConnector func(ctx context.Context, log logger.Logger, d *rdbms.PostgresConnectionDetails) (shared.Connector, error)

// TargetConnector opens a single warehouse session.
type TargetConnector func(ctx context.Context, log logger.Logger, d *rdbms.SnowflakeConnectionDetails) (shared.Connector, error)

// SessionInitialiser sets the warehouse session context.
type SessionInitialiser func(ctx context.Context, log logger.Logger, conn shared.Connector, d *rdbms.SnowflakeConnectionDetails) error

// WarehouseFactory builds the load-stage view of the target connection.
type WarehouseFactory func(log logger.Logger, db shared.Connector, batchSize int, s stats.StatsManager) components.Warehouse

func defaultSourceConnector(ctx context.Context, log logger.Logger, d *rdbms.PostgresConnectionDetails) (shared.Connector, error) {
	return rdbms.NewPostgresConnection(ctx, log, d)
}

func defaultTargetConnector(ctx context.Context, log logger.Logger, d *rdbms.SnowflakeConnectionDetails) (shared.Connector, error) {
	conn, err := rdbms.NewSnowflakeConnection(ctx, log, d)
	if err != nil {
		return nil, err // avoid returning a typed nil.
	}
	return conn, nil
}

func defaultWarehouseFactory(log logger.Logger, db shared.Connector, batchSize int, s stats.StatsManager) components.Warehouse {
	return components.NewSnowflakeWarehouse(log, db, batchSize, s)
}
