package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"go.temporal.io/sdk/log"
)

// TemporalLogger adapts a logrus logger to the Temporal SDK logger.
type TemporalLogger struct {
	entry *logrus.Entry
}

var (
	_ log.Logger     = (*TemporalLogger)(nil)
	_ log.WithLogger = (*TemporalLogger)(nil)
)

// NewTemporalLogger wraps l for use in client.Options.Logger.
func NewTemporalLogger(l logrus.FieldLogger) *TemporalLogger {
	return &TemporalLogger{entry: l.WithFields(logrus.Fields{})}
}

func (t *TemporalLogger) Debug(msg string, keyvals ...interface{}) {
	t.entry.WithFields(fields(keyvals)).Debug(msg)
}

func (t *TemporalLogger) Info(msg string, keyvals ...interface{}) {
	t.entry.WithFields(fields(keyvals)).Info(msg)
}

func (t *TemporalLogger) Warn(msg string, keyvals ...interface{}) {
	t.entry.WithFields(fields(keyvals)).Warn(msg)
}

func (t *TemporalLogger) Error(msg string, keyvals ...interface{}) {
	t.entry.WithFields(fields(keyvals)).Error(msg)
}

// With returns a logger that always carries keyvals.
func (t *TemporalLogger) With(keyvals ...interface{}) log.Logger {
	return &TemporalLogger{entry: t.entry.WithFields(fields(keyvals))}
}

// fields pairs up keyvals. A dangling key is kept under "extra".
func fields(keyvals []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keyvals)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 == len(keyvals) {
			f["extra"] = key
			break
		}
		f[key] = keyvals[i+1]
	}
	return f
}
