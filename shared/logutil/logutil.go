// Package logutil centralizes logrus setup the way every component of the
// commitment engine expects it: one persistent multi-writer, one
// prefix-scoped entry per package.
package logutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// ConfigurePersistentLogging adds a log-to-file writer. File content is
// identical to stdout.
func ConfigurePersistentLogging(logFileName string) error {
	logrus.WithField("logFileName", logFileName).Info("logs will be made persistent")
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	mw := io.MultiWriter(os.Stdout, f)
	logrus.SetOutput(mw)
	logrus.Info("file logging initialized")
	return nil
}

// ForComponent returns the package-scoped logger convention used across the
// core: logrus.WithField("prefix", name).
func ForComponent(name string) *logrus.Entry {
	return logrus.WithField("prefix", name)
}
