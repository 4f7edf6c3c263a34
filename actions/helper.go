package actions

import (
	"github.com/relloyd/shipetl/logger"
	"github.com/relloyd/shipetl/rdbms"
)

// debugLogPostgresDetails dumps the source connection details without the password.
func debugLogPostgresDetails(log logger.Logger, d *rdbms.PostgresConnectionDetails) {
	if d == nil {
		log.Debug("nil pointer supplied for PostgreSQL connection details")
		return
	}
	log.Debug("pgHost=", d.Host)
	log.Debug("pgPort=", d.Port)
	log.Debug("pgDbName=", d.DBName)
	log.Debug("pgSchema=", d.Schema)
	log.Debug("pgUser=", d.User)
	log.Debug("pgPass exists =", d.Password != "") // don't log password!
}

// debugLogSnowflakeDetails dumps the target connection details without the password.
func debugLogSnowflakeDetails(log logger.Logger, d *rdbms.SnowflakeConnectionDetails) {
	if d == nil {
		log.Debug("nil pointer supplied for snowflake connection details")
		return
	}
	log.Debug("snowAccount=", d.Account)
	log.Debug("snowWarehouse=", d.Warehouse)
	log.Debug("snowDbName=", d.DBName)
	log.Debug("snowSchema=", d.Schema)
	log.Debug("snowRole=", d.RoleName)
	log.Debug("snowUser=", d.User)
	log.Debug("snowPass exists =", d.Password != "") // don't log password!
}
