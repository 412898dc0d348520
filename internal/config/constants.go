package config

// Default storage locations
const (
	// DefaultDataDir is the directory holding the central database and
	// every embedded unit database file.
	DefaultDataDir = "./instance"

	// DefaultCentralFile is the central database file name inside the
	// data directory.
	DefaultCentralFile = "central.db"

	// DefaultBackupsDir is the subdirectory of the data directory that
	// receives archival copies of removed unit databases.
	DefaultBackupsDir = "backups"
)
