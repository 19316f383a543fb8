package obslog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestLogger() (*Logger, *bytes.Buffer) {
	base := logrus.New()
	buf := &bytes.Buffer{}
	base.SetOutput(buf)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return New(base, "uds"), buf
}

func TestWriteMessageTagsComponentAndType(t *testing.T) {
	log, buf := newTestLogger()
	log.WriteMessage(MessageTypeUDSWrite, "sent request")

	out := buf.String()
	if !strings.Contains(out, "component=uds") {
		t.Fatalf("log line missing component field: %q", out)
	}
	if !strings.Contains(out, "type=uds_write") {
		t.Fatalf("log line missing type field: %q", out)
	}
	if !strings.Contains(out, "sent request") {
		t.Fatalf("log line missing message: %q", out)
	}
}

func TestWriteToLogUsesGenericType(t *testing.T) {
	log, buf := newTestLogger()
	log.WriteToLog("plain message")
	if !strings.Contains(buf.String(), "type=log") {
		t.Fatalf("WriteToLog should tag MessageTypeGeneric, got %q", buf.String())
	}
}

func TestWithFieldAddsStructuredField(t *testing.T) {
	log, buf := newTestLogger()
	child := log.WithField("did", "0xF190")
	child.WriteToLog("read")
	if !strings.Contains(buf.String(), "did=0xF190") {
		t.Fatalf("child logger missing added field: %q", buf.String())
	}
}
