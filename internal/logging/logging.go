// Package logging centralizes logrus setup so every component logs through
// the same JSON logger, tagged with a "component" field, the way the wider
// pack's services configure one shared logger at startup. It sets no other
// structured fields (no request id, chain id, venue or stage).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process-wide logger. Level is read from LOG_LEVEL
// (default "info"); format is always JSON, suited to container log
// collection.
func New() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(envOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// Component returns a logger entry scoped to one component name, carrying
// it as a structured field on every subsequent log line.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}
