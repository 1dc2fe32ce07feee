// Package config loads crucible's local configuration from
// ~/.crucible/config.yaml, with credentials in secrets.yaml and
// CRUCIBLE_* environment overrides applied last.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment overrides
const (
	EnvHome           = "CRUCIBLE_HOME"
	EnvStorage        = "CRUCIBLE_STORAGE"
	EnvDatabaseURL    = "CRUCIBLE_DATABASE_URL"
	EnvRedisAddr      = "CRUCIBLE_REDIS_ADDR"
	EnvAMQPURL        = "CRUCIBLE_AMQP_URL"
	EnvCurriculumPath = "CRUCIBLE_CURRICULUM_PATH"
	EnvPort           = "CRUCIBLE_PORT"
	EnvLogLevel       = "CRUCIBLE_LOG_LEVEL"
	EnvTimezone       = "CRUCIBLE_TIMEZONE"
	EnvLearnerID      = "CRUCIBLE_LEARNER_ID"
)

// applyEnv overlays environment variables on cfg
func applyEnv(cfg *LocalConfig) {
	cfg.Storage.Backend = strings.ToLower(getEnv(EnvStorage, cfg.Storage.Backend))
	cfg.Storage.DatabaseURL = getEnv(EnvDatabaseURL, cfg.Storage.DatabaseURL)
	cfg.Storage.Redis.Addr = getEnv(EnvRedisAddr, cfg.Storage.Redis.Addr)
	cfg.Storage.LearnerID = getEnv(EnvLearnerID, cfg.Storage.LearnerID)
	cfg.Curriculum.Path = getEnv(EnvCurriculumPath, cfg.Curriculum.Path)
	cfg.Daemon.Port = getEnvInt(EnvPort, cfg.Daemon.Port)
	cfg.Daemon.LogLevel = getEnv(EnvLogLevel, cfg.Daemon.LogLevel)
	cfg.Progress.Timezone = getEnv(EnvTimezone, cfg.Progress.Timezone)

	if url := getEnv(EnvAMQPURL, ""); url != "" {
		cfg.Events.URL = url
		cfg.Events.Enabled = true
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
