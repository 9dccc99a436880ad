// Package log provides loggers for digital output sessions.
package log

import (
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DebugEnv enables debug level of loggers returned by GetLogger.
const DebugEnv = "DIGITAL_DEBUG"

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Silent returns a logger that discards all entries.
func Silent() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// File configures rotation of log files.
type File struct {
	Path string
	// MaxSize in megabytes after which new file is created.
	MaxSize    int
	MaxBackups int
	// MaxAge in days.
	MaxAge   int
	Compress bool
}

// WithFile redirects logger output into rotated file. Returned closer
// must be closed when logger is not used anymore.
func WithFile(l *logrus.Logger, f File) io.Closer {
	w := &lumberjack.Logger{
		Filename:   f.Path,
		MaxSize:    f.MaxSize,
		MaxBackups: f.MaxBackups,
		MaxAge:     f.MaxAge,
		Compress:   f.Compress,
	}
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return w
}
