package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/pitchroom-backend/internal/platform/logger"
)

func lookup(key string, log *logger.Logger) (string, bool) {
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "env_var", key)
		}
		return "", false
	}
	return val, true
}

func String(key, def string, log *logger.Logger) string {
	if v, ok := lookup(key, log); ok {
		return v
	}
	return def
}

func Int(key string, def int, log *logger.Logger) int {
	v, ok := lookup(key, log)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable is not an int, using default", "env_var", key, "value", v, "default", def)
		}
		return def
	}
	return i
}

func Bool(key string, def bool, log *logger.Logger) bool {
	v, ok := lookup(key, log)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	if log != nil {
		log.Warn("Environment variable is not a bool, using default", "env_var", key, "value", v, "default", def)
	}
	return def
}

// Duration accepts Go duration strings ("90s", "1h") or a bare number of seconds.
func Duration(key string, def time.Duration, log *logger.Logger) time.Duration {
	v, ok := lookup(key, log)
	if !ok {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if log != nil {
		log.Warn("Environment variable is not a duration, using default", "env_var", key, "value", v, "default", def)
	}
	return def
}

// List splits a comma-separated value, dropping blanks.
func List(key string, def []string, log *logger.Logger) []string {
	v, ok := lookup(key, log)
	if !ok {
		return def
	}
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
