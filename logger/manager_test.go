package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/KOMKZ/go-yogan-ioc/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(t *testing.T, cfg ManagerConfig) (*Manager, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	cfg.EnableConsole = false
	return NewManager(cfg, WithCore(core)), logs
}

func fieldsOf(entry observer.LoggedEntry) map[string]interface{} {
	return entry.ContextMap()
}

func TestManagerGetLogger(t *testing.T) {
	m, logs := newObserved(t, ManagerConfig{AppName: "demo", EnableTraceID: true})

	l := m.GetLogger("ioc")
	assert.Same(t, l, m.GetLogger("ioc"))
	assert.Equal(t, "ioc", l.Module())

	l.Info("bean created", zap.String("key", "*app.Service"))
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, "bean created", entry.Message)
	fields := fieldsOf(entry)
	assert.Equal(t, "ioc", fields["module"])
	assert.Equal(t, "demo", fields["app_name"])
	assert.Equal(t, "*app.Service", fields["key"])
	assert.NotContains(t, fields, "trace_id")
}

func TestManagerTraceID(t *testing.T) {
	m, logs := newObserved(t, ManagerConfig{EnableTraceID: true})
	l := m.GetLogger("ioc")

	t.Run("custom key", func(t *testing.T) {
		ctx := ContextWithTraceID(context.Background(), "trace_id", "abc")
		l.InfoCtx(ctx, "with trace")
		entry := logs.TakeAll()[0]
		assert.Equal(t, "abc", fieldsOf(entry)["trace_id"])
	})

	t.Run("otel span wins", func(t *testing.T) {
		traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
		spanID, _ := trace.SpanIDFromHex("0102030405060708")
		sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
		ctx := trace.ContextWithSpanContext(context.Background(), sc)
		ctx = ContextWithTraceID(ctx, "trace_id", "ignored")

		l.WarnCtx(ctx, "with span")
		entry := logs.TakeAll()[0]
		assert.Equal(t, zapcore.WarnLevel, entry.Level)
		assert.Equal(t, traceID.String(), fieldsOf(entry)["trace_id"])
	})
}

func TestErrorStacktrace(t *testing.T) {
	m, logs := newObserved(t, ManagerConfig{EnableStacktrace: true, StacktraceDepth: 3})
	l := m.GetLogger("ioc")

	l.Warn("slow")
	l.Error("failed", zap.Error(assert.AnError))

	warn := logs.FilterMessage("slow").All()
	require.Len(t, warn, 1)
	assert.NotContains(t, fieldsOf(warn[0]), "stack")

	entries := logs.FilterMessage("failed").All()
	require.Len(t, entries, 1)
	assert.Contains(t, fieldsOf(entries[0]), "stack")
}

func TestManagerFileOutput(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(ManagerConfig{BaseLogDir: dir, EnableFile: true, Level: "debug"})

	l := m.GetLogger("ioc")
	l.Info("info line")
	l.Error("error line")
	m.CloseAll()

	info, err := os.ReadFile(filepath.Join(dir, "ioc", "ioc-info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(info), "info line")
	assert.NotContains(t, string(info), "error line")

	errs, err := os.ReadFile(filepath.Join(dir, "ioc", "ioc-error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errs), "error line")
}

func TestManagerReloadConfig(t *testing.T) {
	m, _ := newObserved(t, ManagerConfig{})
	before := m.GetLogger("ioc")

	require.NoError(t, m.ReloadConfig(ManagerConfig{Level: "debug", Encoding: "console"}))
	assert.Equal(t, "debug", m.Config().Level)
	assert.NotSame(t, before, m.GetLogger("ioc"))

	err := m.ReloadConfig(ManagerConfig{Level: "verbose"})
	require.Error(t, err)
	assert.ErrorIs(t, err, validator.ErrValidationFailed)
	assert.Equal(t, "debug", m.Config().Level)
}

func TestGlobalManager(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	old := SetManager(NewManager(ManagerConfig{}, WithCore(core)))
	t.Cleanup(func() { SetManager(old) })

	NewCtxZapLogger("global").Info("hello")
	assert.Equal(t, 1, logs.FilterField(zap.String("module", "global")).Len())
}
