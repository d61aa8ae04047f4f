// Package gormdb opens gorm connections for the SQL backends of the cache and
// query log.
package gormdb

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectMSSQL    Dialect = "mssql"
)

// IsDialect reports whether name is a supported SQL dialect.
func IsDialect(name string) bool {
	switch Dialect(name) {
	case DialectSQLite, DialectPostgres, DialectMySQL, DialectMSSQL:
		return true
	}
	return false
}

// Open connects to dsn with the driver for dialect.
func Open(dialect Dialect, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dialect {
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	case DialectMySQL:
		dialector = mysql.Open(dsn)
	case DialectMSSQL:
		dialector = sqlserver.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql dialect: %s", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dialect, err)
	}
	return db, nil
}
