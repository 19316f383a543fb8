// Package obslog is the structured logger threaded through the ISO-TP
// engine, the UDS client and the DoIP client. It keeps the shape of the
// teacher's logging.Logger (a thin wrapper type with a WriteToLog-style
// API and named message types) but backs it with logrus instead of
// fmt.Println plus a GUI buffer.
package obslog

import "github.com/sirupsen/logrus"

// MessageType tags a log line the way the teacher's logging.MessageType
// tagged GUI log entries (e.g. MessageTypeUDSWrite); here it becomes a
// logrus field instead of a GUI routing key.
type MessageType string

const (
	MessageTypeCANWrite  MessageType = "can_write"
	MessageTypeCANRead   MessageType = "can_read"
	MessageTypeUDSWrite  MessageType = "uds_write"
	MessageTypeUDSRead   MessageType = "uds_read"
	MessageTypeDoIP      MessageType = "doip"
	MessageTypeGeneric   MessageType = "log"
)

// Logger wraps a *logrus.Logger with the teacher's WriteToLog entry point,
// generalized to carry a MessageType and structured fields instead of
// writing straight to stdout and a GUI buffer.
type Logger struct {
	entry *logrus.Entry
}

// New builds a Logger over base (or logrus.StandardLogger() if nil),
// tagged with component (e.g. "isotp", "uds", "doip").
func New(base *logrus.Logger, component string) *Logger {
	if base == nil {
		base = logrus.StandardLogger()
	}
	return &Logger{entry: base.WithField("component", component)}
}

// Entry exposes the underlying *logrus.Entry for callers that want the
// full logrus API (WithField, WithError, ...) rather than WriteMessage.
func (l *Logger) Entry() *logrus.Entry { return l.entry }

// WriteMessage logs message tagged with typ, mirroring the teacher's
// Logger.WriteToLog(message string) but with structured message-type
// tagging instead of a bare string.
func (l *Logger) WriteMessage(typ MessageType, message string) {
	l.entry.WithField("type", string(typ)).Info(message)
}

// WriteToLog is kept as an alias for WriteMessage(MessageTypeGeneric, ...)
// for call sites that don't care about message-type tagging, matching the
// teacher's original single-argument signature.
func (l *Logger) WriteToLog(message string) {
	l.WriteMessage(MessageTypeGeneric, message)
}

// WithField returns a child Logger with an additional structured field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}
