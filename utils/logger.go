package utils

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. JSON output uses the field names the
// log pipeline expects; text output is for local runs.
func NewLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	if out == nil {
		out = os.Stdout
	}
	logger := logrus.New()
	logger.SetOutput(out)

	if format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// GinWriter routes gin's own output through logger.
func GinWriter(logger logrus.FieldLogger) io.Writer {
	return &ginLogWriter{log: logger.WithField("source", "gin")}
}

type ginLogWriter struct {
	log logrus.FieldLogger
}

func (w *ginLogWriter) Write(p []byte) (int, error) {
	w.log.Info(string(p))
	return len(p), nil
}
