package db

import "errors"

var (
	ErrParseConfig     = errors.New("db: failed to parse database configuration")
	ErrOpenConnection  = errors.New("db: failed to open database connection")
	ErrSetDialect      = errors.New("db: failed to set migration dialect")
	ErrApplyMigrations = errors.New("db: failed to apply migrations")
)
