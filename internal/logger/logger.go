// Package logger builds the leveled logger shared by the HTTP server, the
// scheduling services and the audit consumer.  It wraps gommon/log so the
// same instance can be installed as echo's Logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/labstack/gommon/log"
)

const header = `{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}","file":"${short_file}","line":"${line}"}`

// New returns a logger writing to out (stdout when nil) at the given level.
func New(prefix, level string, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stdout
	}
	l := log.New(prefix)
	l.SetOutput(out)
	l.SetHeader(header)
	l.SetLevel(ParseLevel(level))
	return l
}

// Discard returns a logger that drops everything.  Used by tests and by
// components constructed without a logger.
func Discard() *log.Logger {
	l := log.New("-")
	l.SetOutput(io.Discard)
	l.SetLevel(log.OFF)
	return l
}

// ParseLevel maps LOG_LEVEL values onto gommon levels.  Unknown values fall
// back to INFO.
func ParseLevel(s string) log.Lvl {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off", "none":
		return log.OFF
	}
	return log.INFO
}
