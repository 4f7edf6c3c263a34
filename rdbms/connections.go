package rdbms

import (
	"context"
	"fmt"

	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms/shared"
)

// PingSQL is the statement used to prove a connection can execute SQL, not just authenticate.
const PingSQL = "select 1"

// CheckConnection pings db and runs a trivial query against it.
func CheckConnection(ctx context.Context, log logger.Logger, db shared.Connector) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	rows, err := db.QueryContext(ctx, PingSQL)
	if err != nil {
		return fmt.Errorf("error running connectivity check on %v: %w", db.GetType(), err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
	}
	if err = rows.Err(); err != nil {
		return err
	}
	log.Debug("connectivity check passed for ", db.GetType())
	return nil
}

// CloseConnection closes db and logs, rather than returns, any error.
func CloseConnection(log logger.Logger, db shared.Connector) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Warn("error closing ", db.GetType(), " connection: ", err)
	}
}
