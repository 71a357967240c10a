package config

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const LogLevelEnv = "STAKEBOARD_LOG_LEVEL"
const LogFormatEnv = "STAKEBOARD_LOG_FORMAT"

var LogFormats = []string{"json", "text", "color-text"}

// ConfigureLogger sets the logrus level and formatter from the environment.
// An explicit level takes precedence over STAKEBOARD_LOG_LEVEL.
func ConfigureLogger(levelMaybe ...string) {
	time.Local = time.FixedZone("UTC", 0)

	level := os.Getenv(LogLevelEnv)
	if len(levelMaybe) > 0 && levelMaybe[0] != "" {
		level = levelMaybe[0]
	}
	logrus.SetLevel(ParseLogLevel(level))

	format := os.Getenv(LogFormatEnv)
	if format == "" {
		format = "color-text"
	}
	switch strings.ToLower(format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
		})
	case "color-text":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors: false,
			ForceColors:   true,
		})
	default:
		logrus.WithFields(logrus.Fields{
			"format":  format,
			"options": LogFormats,
		}).Warn("unknown format")
	}
}

// ParseLogLevel maps a level name to a logrus level, defaulting to info.
func ParseLogLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// LevelFromVerbosity maps a -v count to a level: none is warn, each -v is one step louder.
func LevelFromVerbosity(count int) logrus.Level {
	switch {
	case count <= 0:
		return logrus.WarnLevel
	case count == 1:
		return logrus.InfoLevel
	case count == 2:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}
