package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Pool
		Auth
		Maintenance
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		Debug                    bool
		DemoMode                 bool // Read-only instance for public demos
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		DataDir     string
		CentralFile string
		BackupsDir  string
	}

	// Pool bounds the connection pools opened for server-backed units.
	Pool struct {
		MinConns          int32
		MaxConns          int32
		MaxConnLifetime   time.Duration
		HealthCheckPeriod time.Duration
	}

	Auth struct {
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
	}

	Maintenance struct {
		SweepEnabled  bool
		SweepSchedule string // Cron format: "*/15 * * * *" = every 15 minutes
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("debug", false)
	v.SetDefault("demo_mode", false)
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("central_db_file", DefaultCentralFile)
	v.SetDefault("backups_dir", DefaultBackupsDir)

	// Pool defaults for server-backed units
	v.SetDefault("pool_min_conns", 2)
	v.SetDefault("pool_max_conns", 10)
	v.SetDefault("pool_max_conn_lifetime", "30m")
	v.SetDefault("pool_health_check_period", "1m")

	// Auth defaults
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)         // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)    // HTTPS-only cookies

	// Connection sweep defaults
	v.SetDefault("sweep_enabled", true)
	v.SetDefault("sweep_schedule", "*/15 * * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			Debug:                    v.GetBool("DEBUG"),
			DemoMode:                 v.GetBool("DEMO_MODE"),
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			DataDir:     v.GetString("DATA_DIR"),
			CentralFile: v.GetString("CENTRAL_DB_FILE"),
			BackupsDir:  v.GetString("BACKUPS_DIR"),
		},
		Pool: Pool{
			MinConns:          v.GetInt32("POOL_MIN_CONNS"),
			MaxConns:          v.GetInt32("POOL_MAX_CONNS"),
			MaxConnLifetime:   v.GetDuration("POOL_MAX_CONN_LIFETIME"),
			HealthCheckPeriod: v.GetDuration("POOL_HEALTH_CHECK_PERIOD"),
		},
		Auth: Auth{
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
		},
		Maintenance: Maintenance{
			SweepEnabled:  v.GetBool("SWEEP_ENABLED"),
			SweepSchedule: v.GetString("SWEEP_SCHEDULE"),
		},
	}
}
