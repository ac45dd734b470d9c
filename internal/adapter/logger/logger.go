package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type LoggerAdapter struct {
	log *logrus.Logger
}

// NewLoggerAdapter logs JSON in production and text everywhere else.
func NewLoggerAdapter(env string) *LoggerAdapter {
	return NewLoggerAdapterTo(env, os.Stdout)
}

func NewLoggerAdapterTo(env string, out io.Writer) *LoggerAdapter {
	l := logrus.New()
	l.SetOutput(out)
	if env == "production" {
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(logrus.InfoLevel)
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		l.SetLevel(logrus.DebugLevel)
	}
	return &LoggerAdapter{log: l}
}

func (a *LoggerAdapter) Debug(msg string, fields map[string]interface{}) {
	a.log.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (a *LoggerAdapter) Info(msg string, fields map[string]interface{}) {
	a.log.WithFields(logrus.Fields(fields)).Info(msg)
}

func (a *LoggerAdapter) Warn(msg string, fields map[string]interface{}) {
	a.log.WithFields(logrus.Fields(fields)).Warn(msg)
}

func (a *LoggerAdapter) Error(msg string, fields map[string]interface{}) {
	a.log.WithFields(logrus.Fields(fields)).Error(msg)
}
