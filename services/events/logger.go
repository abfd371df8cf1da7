package events

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/trezcool/skillfolio/core"
)

// loggerAdapter writes the watermill logs to a core.Logger.
type loggerAdapter struct {
	logger core.Logger
	fields watermill.LogFields
}

var _ watermill.LoggerAdapter = (*loggerAdapter)(nil)

func NewLoggerAdapter(logger core.Logger) watermill.LoggerAdapter {
	return &loggerAdapter{logger: logger}
}

func (l *loggerAdapter) format(msg string, fields watermill.LogFields) string {
	all := l.fields.Add(fields)
	if len(all) == 0 {
		return msg
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(msg)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, all[k])
	}
	return b.String()
}

func (l *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error(l.format(msg, fields)+": "+fmt.Sprint(err), err)
}

func (l *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	l.logger.Info(l.format(msg, fields))
}

func (l *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug(l.format(msg, fields))
}

func (l *loggerAdapter) Trace(string, watermill.LogFields) {}

func (l *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{logger: l.logger, fields: l.fields.Add(fields)}
}
