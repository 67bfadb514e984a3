package logger

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

const timestampFormat = "2006-01-02 15:04:05"

var (
	initOnce sync.Once
	initErr  error
)

type Option struct {
	// Level is the -v count: 0 info, 1 debug, 2+ trace.
	Level int
	// File is the rotating log file; empty disables file logging.
	File string
}

func Init(opt Option) error {
	initOnce.Do(func() {
		initErr = setup(opt)
	})
	return initErr
}

func setup(opt Option) error {
	level := levelFromVerbosity(opt.Level)

	logrus.SetLevel(level)
	logrus.SetOutput(os.Stdout)
	logrus.SetFormatter(&prefixed.TextFormatter{
		ForceColors:      true,
		FullTimestamp:    true,
		QuoteEmptyFields: true,
		TimestampFormat:  timestampFormat,
	})

	if opt.File == "" {
		return nil
	}

	hook, err := NewRotateFileHook(RotateFileConfig{
		Filename:   opt.File,
		MaxSize:    5,
		MaxBackups: 10,
		MaxAge:     90,
		Level:      level,
		Formatter: &prefixed.TextFormatter{
			DisableColors:    true,
			FullTimestamp:    true,
			QuoteEmptyFields: true,
			TimestampFormat:  timestampFormat,
		},
	})
	if err != nil {
		return fmt.Errorf("rotate file hook: %w", err)
	}

	logrus.AddHook(hook)
	return nil
}

func levelFromVerbosity(v int) logrus.Level {
	switch {
	case v <= 0:
		return logrus.InfoLevel
	case v == 1:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

func GetLogger(prefix string) *logrus.Entry {
	return logrus.WithField("prefix", prefix)
}
