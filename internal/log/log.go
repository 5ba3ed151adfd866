// Package log configures the process-wide logrus logger: a compact
// structured formatter for the console and optional rotated file output.
package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Formatter renders entries as "TIME LEVEL message key=value ...".
type Formatter struct {
	noColors bool
}

// NewFormatter creates the formatter. noColors disables the level coloring,
// for file output and dumb terminals.
func NewFormatter(noColors bool) *Formatter {
	return &Formatter{noColors: noColors}
}

var levelColors = map[logrus.Level]int{
	logrus.DebugLevel: 37, // gray
	logrus.InfoLevel:  36, // cyan
	logrus.WarnLevel:  33, // yellow
	logrus.ErrorLevel: 31, // red
	logrus.FatalLevel: 31,
	logrus.PanicLevel: 31,
}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder

	b.WriteString(entry.Time.Format("2006-01-02 15:04:05.000"))
	b.WriteByte(' ')

	level := strings.ToUpper(entry.Level.String())
	if f.noColors {
		b.WriteString(level)
	} else {
		fmt.Fprintf(&b, "\x1b[%dm%s\x1b[0m", levelColors[entry.Level], level)
	}
	b.WriteByte(' ')
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// Init configures the global logger. A non-empty logFile additionally mirrors
// every entry into a size-rotated file.
func Init(logLevel, logFile string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(NewFormatter(false))
	logrus.SetReportCaller(false)

	if logFile != "" {
		logrus.SetFormatter(NewFormatter(true))
		logrus.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    32, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}))
	}
	return nil
}
