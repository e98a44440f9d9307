package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./reader-collection.db"

	// DefaultBackendBaseURL is the default base URL of the collection backend
	DefaultBackendBaseURL = "https://books-database-b015f.firebaseio.com"

	// DefaultRemoteConfigBaseURL is where format/state vocabularies are served
	DefaultRemoteConfigBaseURL = "https://books-database-b015f.firebaseio.com/config"

	// DefaultSyncSchedule runs the weekly reconciliation, Sunday at 03:00
	DefaultSyncSchedule = "0 3 * * 0"
)
