/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: formatter.go
Description: Custom log formatters for the oracle. Renders timestamp, level, caller,
message and sorted fields, optionally colored, with a short prefix for suite events.
*/

package logging

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// CustomFormatter renders one line per entry with fields in key order
type CustomFormatter struct {
	Timestamp bool
	Caller    bool
	Colors    bool
}

// Format formats a log entry
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, ""), nil
}

func (f *CustomFormatter) format(entry *logrus.Entry, prefix string) []byte {
	var output strings.Builder

	if f.Timestamp {
		f.write(&output, 36, entry.Time.Format("2006-01-02 15:04:05.000"))
	}
	f.write(&output, f.getLevelColor(entry.Level), strings.ToUpper(entry.Level.String()))
	if prefix != "" {
		f.write(&output, 35, "["+prefix+"]")
	}
	if f.Caller && entry.HasCaller() {
		f.write(&output, 33, fmt.Sprintf("[%s:%d]", entry.Caller.File, entry.Caller.Line))
	}

	output.WriteString(entry.Message)
	if len(entry.Data) > 0 {
		output.WriteString(" ")
		output.WriteString(f.formatFields(entry.Data))
	}
	output.WriteString("\n")
	return []byte(output.String())
}

// write appends text and a trailing space, colored when enabled
func (f *CustomFormatter) write(output *strings.Builder, color int, text string) {
	if f.Colors {
		fmt.Fprintf(output, "\033[%dm%s\033[0m ", color, text)
		return
	}
	output.WriteString(text)
	output.WriteString(" ")
}

// getLevelColor returns the ANSI color code for a log level
func (f *CustomFormatter) getLevelColor(level logrus.Level) int {
	switch level {
	case logrus.DebugLevel, logrus.TraceLevel:
		return 37
	case logrus.InfoLevel:
		return 32
	case logrus.WarnLevel:
		return 33
	case logrus.ErrorLevel:
		return 31
	default:
		return 35
	}
}

// formatFields formats structured fields sorted by key
func (f *CustomFormatter) formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, key := range keys {
		value := f.formatValue(fields[key])
		if f.Colors {
			parts[i] = fmt.Sprintf("\033[34m%s\033[0m=\033[32m%s\033[0m", key, value)
		} else {
			parts[i] = fmt.Sprintf("%s=%s", key, value)
		}
	}
	return strings.Join(parts, " ")
}

// formatValue formats a field value appropriately
func (f *CustomFormatter) formatValue(value interface{}) string {
	switch v := value.(type) {
	case time.Duration:
		return v.Round(time.Millisecond).String()
	case time.Time:
		return v.Format("15:04:05.000")
	case float64:
		return fmt.Sprintf("%.4g", v)
	case string:
		if len(v) > 80 {
			return v[:80] + "..."
		}
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// OracleFormatter prefixes suite events with a short tag
type OracleFormatter struct {
	CustomFormatter
}

// Format formats an entry with its event prefix
func (f *OracleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return f.format(entry, f.getPrefix(entry.Message)), nil
}

// getPrefix returns a prefix based on the log message
func (f *OracleFormatter) getPrefix(message string) string {
	switch {
	case strings.HasPrefix(message, "Case"):
		return "CASE"
	case strings.HasPrefix(message, "Engine"):
		return "ENGINE"
	case strings.HasPrefix(message, "Worker"):
		return "WORKER"
	case strings.HasPrefix(message, "Suite"):
		return "SUITE"
	default:
		return ""
	}
}
