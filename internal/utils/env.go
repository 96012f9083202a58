package utils

import (
	"os"
	"strconv"

	"github.com/asocolnef/epiaki-backend/internal/platform/logger"
)

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		if log != nil {
			log.Debug("Environment variable not set, using default", "default", defaultVal)
		}
		return defaultVal
	}
	return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	if log != nil {
		log = log.With("env_var", key)
	}
	valStr, ok := os.LookupEnv(key)
	if !ok || valStr == "" {
		if log != nil {
			log.Debug("Environment variable not set, using default", "default", defaultVal)
		}
		return defaultVal
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable is not an int, using default", "value", valStr, "default", defaultVal, "error", err)
		}
		return defaultVal
	}
	return i
}
