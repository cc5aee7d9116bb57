package database

// Event types emitted by the database module.
const (
	EventTypeConnected    = "com.sitekit.database.connected"
	EventTypeDisconnected = "com.sitekit.database.disconnected"

	EventTypeMigrationStarted   = "com.sitekit.database.migration.started"
	EventTypeMigrationCompleted = "com.sitekit.database.migration.completed"
	EventTypeMigrationFailed    = "com.sitekit.database.migration.failed"
)
