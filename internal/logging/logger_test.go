package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	tests := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"ERROR":   logrus.ErrorLevel,
		"warn":    logrus.WarnLevel,
		"warning": logrus.WarnLevel,
		"trace":   logrus.TraceLevel,
		"":        logrus.InfoLevel,
		"chatty":  logrus.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, GetLevel(in), "level %q", in)
	}
}

func TestSetup_StdoutOnly(t *testing.T) {
	logger := logrus.New()
	var out bytes.Buffer

	setup(logger, &out, LoggerSetupParams{LogLevel: "warn", LogFormatJSON: true})

	logger.Info("hidden")
	logger.WithField("user_id", 3).Warn("shown")

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"msg":"shown"`)
	assert.Contains(t, out.String(), `"user_id":3`)
}

func TestSetup_FileAndStdout(t *testing.T) {
	logger := logrus.New()
	var out bytes.Buffer
	base := filepath.Join(t.TempDir(), "server")

	setup(logger, &out, LoggerSetupParams{LogFileName: base, LogToStdout: true, LogLevel: "info"})
	logger.Info("both sinks")

	data, err := os.ReadFile(base + ".log")
	require.NoError(t, err)
	assert.Contains(t, string(data), "both sinks")
	assert.Contains(t, out.String(), "both sinks")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCombinedWriter(t *testing.T) {
	var a, b bytes.Buffer
	cw := NewCombinedWriter(&a, failingWriter{}, &b)

	n, err := cw.Write([]byte("line\n"))
	assert.Equal(t, 5, n)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "disk full"))
	assert.Equal(t, "line\n", a.String())
	assert.Equal(t, "line\n", b.String())
}

type recordingHub struct {
	events []*sentry.Event
}

func (h *recordingHub) CaptureEvent(event *sentry.Event) *sentry.EventID {
	h.events = append(h.events, event)
	id := sentry.EventID("test")
	return &id
}

func TestSentryHook(t *testing.T) {
	hub := &recordingHub{}
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	logger.AddHook(NewSentryHook(hub, []logrus.Level{logrus.ErrorLevel}))

	logger.Warn("not forwarded")
	logger.WithError(errors.New("db gone")).WithField("user_id", 9).Error("save failed")

	require.Len(t, hub.events, 1)
	ev := hub.events[0]
	assert.Equal(t, "save failed", ev.Message)
	assert.Equal(t, sentry.LevelError, ev.Level)
	assert.Equal(t, 9, ev.Extra["user_id"])
	require.Len(t, ev.Exception, 1)
	assert.Equal(t, "db gone", ev.Exception[0].Value)
}
