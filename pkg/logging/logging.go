package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// ConsoleLogger returns a plain-text logger writing to stderr at the given
// level. Used by tests and CLIs that run outside the configured application
// logger.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	return log
}
