package constants

import "time"

const (
	AppName            = "rollcall"
	DefaultKeyringUser = "remote-connection"
	DefaultConfigPath  = "~/.config/rollcall/rollcall.db"
	Version            = "v0.3.0"

	// DateFormat is the date key format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Local cache
	LocalSnapshotKey = "attendance-app-data-v1"
	LocalSettingsKey = "settings"

	// Document store collections and well-known ids
	CollectionAttendance = "attendance"
	CollectionConfig     = "config"
	ConfigPeopleID       = "people"
	FieldDate            = "date"

	// Remote backends
	RemoteNone     = "none"
	RemoteMongo    = "mongo"
	RemotePostgres = "postgres"

	DefaultMongoDatabase  = "rollcall"
	PostgresNotifyChannel = "rollcall_documents"
	RemoteTimeout         = 10 * time.Second

	// Backup constants
	MaxBackups        = 14
	BackupDirName     = "backups"
	BackupFilePrefix  = "rollcall-"
	BackupFileSuffix  = ".db"
	ExportFilePrefix  = "attendance-backup-"
	ExportFileSuffix  = ".json"
	SpreadsheetSuffix = ".xlsx"

	// HTTP API
	DefaultListenAddr = "127.0.0.1:8088"
)
