package constants

import "time"

const (
	AppName           = "markease"
	DefaultConfigPath = "~/.config/markease/markease.db"
	Version           = "v0.3.0"

	// DateFormat is the per-day record key format (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Record store keys
	NotesKey         = "markease_notes"
	HabitsKey        = "markease_habits_v2"
	HealthKey        = "markease_health_v1"
	ActiveSessionKey = "markease_active_session"
	LanguageKey      = "markease_lang"

	// Keyring accounts
	KeyringAIUser       = "ai-api-key"
	KeyringDatabaseUser = "database-connection"

	// Environment overrides for secrets
	EnvAIKey        = "MARKEASE_AI_API_KEY"
	EnvDBConnection = "MARKEASE_DB_CONNECTION"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "markease-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "markease-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.markease"

	// Habit tracker constants
	TickInterval       = time.Second
	MinSessionMinutes  = 1
	DefaultJournalDays = 14

	// Notes constants
	DefaultAutosaveDelay = 500 * time.Millisecond
	AppendThreshold      = 100

	// AI defaults
	DefaultAIModel   = "gemini-2.5-flash"
	DefaultAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultAITimeout = 60 * time.Second
)
