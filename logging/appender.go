package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormatStr is the time format used by the console appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. A zapcore.Core is also an Appender and is additionally
// kept when the logger is converted to a zap logger.
type Appender interface {
	Write(zapcore.Entry, []zapcore.Field) error
	Sync() error
}

// ConsoleAppender writes tab separated log lines to a file, typically stdout.
type ConsoleAppender struct {
	out *os.File
}

// NewStdoutAppender creates a new appender that writes to stdout.
func NewStdoutAppender() ConsoleAppender {
	return ConsoleAppender{os.Stdout}
}

// Write outputs the log entry as "<time>\t<LEVEL>\t<logger>\t<file:line>\t<message>\t<json fields>".
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	line, err := formatEntry(entry, fields)
	if _, writeErr := fmt.Fprintln(appender.out, line); writeErr != nil {
		return writeErr
	}
	return err
}

// Sync is a no-op.
func (appender ConsoleAppender) Sync() error {
	return nil
}

func formatEntry(entry zapcore.Entry, fields []zapcore.Field) (string, error) {
	toPrint := make([]string, 0, 6)
	toPrint = append(toPrint, entry.Time.Format(DefaultTimeFormatStr))
	toPrint = append(toPrint, strings.ToUpper(entry.Level.String()))
	toPrint = append(toPrint, entry.LoggerName)
	if entry.Caller.Defined {
		toPrint = append(toPrint, callerToString(&entry.Caller))
	}
	toPrint = append(toPrint, entry.Message)
	if len(fields) == 0 {
		return strings.Join(toPrint, "\t"), nil
	}

	// Use zap's json encoder which will encode our slice of fields in-order. Call it with an empty
	// Entry object such that only the fields become "map-ified".
	jsonEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := jsonEncoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return strings.Join(toPrint, "\t"), err
	}
	toPrint = append(toPrint, buf.String())
	return strings.Join(toPrint, "\t"), nil
}

// callerToString returns "<dir>/<file>:<line>", keeping only the last directory like zap's short caller encoder.
func callerToString(caller *zapcore.EntryCaller) string {
	return caller.TrimmedPath()
}

// appenderCore adapts an Appender to a zapcore.Core.
type appenderCore struct {
	appender Appender
	level    AtomicLevel
	fields   []zapcore.Field
}

func (c *appenderCore) Enabled(level zapcore.Level) bool {
	return level >= c.level.Get().AsZap()
}

func (c *appenderCore) With(fields []zapcore.Field) zapcore.Core {
	withFields := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	withFields = append(withFields, c.fields...)
	withFields = append(withFields, fields...)
	return &appenderCore{appender: c.appender, level: c.level, fields: withFields}
}

func (c *appenderCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *appenderCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	all := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	all = append(all, c.fields...)
	all = append(all, fields...)
	return c.appender.Write(entry, all)
}

func (c *appenderCore) Sync() error {
	return c.appender.Sync()
}
