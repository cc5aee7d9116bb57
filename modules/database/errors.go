package database

import "errors"

var (
	ErrEmptyDriver          = errors.New("database driver cannot be empty")
	ErrEmptyDSN             = errors.New("database connection string (DSN) cannot be empty")
	ErrDatabaseNotConnected = errors.New("database not connected")
	ErrInvalidTableName     = errors.New("invalid table name: must start with letter/underscore and contain only alphanumeric/underscore characters")
	ErrInvalidMigration     = errors.New("invalid migration")
)
