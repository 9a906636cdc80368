package logger

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	projectLogger *logrus.Logger
	once          sync.Once
)

// GetProjectLogger returns the logger shared by every euclid package.
func GetProjectLogger() *logrus.Logger {
	once.Do(func() {
		projectLogger = logrus.New()
		projectLogger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	})
	return projectLogger
}

// Configure sets the level and destination of the project logger. An empty level leaves it at Info.
func Configure(level string, out io.Writer) error {
	log := GetProjectLogger()
	if out != nil {
		log.SetOutput(out)
	}
	if level == "" {
		return nil
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}
