package telemetry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-ioc/logger"
	"github.com/KOMKZ/go-yogan-ioc/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"默认配置（未启用）", func(c *Config) {}, false},
		{"未启用时忽略非法字段", func(c *Config) { c.Exporter.Type = "jaeger" }, false},
		{"启用 otlp", func(c *Config) { c.Enabled = true }, false},
		{"缺少服务名", func(c *Config) { c.Enabled = true; c.ServiceName = "" }, true},
		{"不支持的导出器", func(c *Config) { c.Enabled = true; c.Exporter.Type = "jaeger" }, true},
		{"otlp 缺少 endpoint", func(c *Config) { c.Enabled = true; c.Exporter.Endpoint = "" }, true},
		{"stdout 无需 endpoint", func(c *Config) {
			c.Enabled = true
			c.Exporter = ExporterConfig{Type: "stdout"}
		}, false},
		{"采样率越界", func(c *Config) {
			c.Enabled = true
			c.Sampler = SamplerConfig{Type: "trace_id_ratio", Ratio: 1.5}
		}, true},
		{"未知采样器", func(c *Config) { c.Enabled = true; c.Sampler.Type = "sometimes" }, true},
		{"批处理队列为 0", func(c *Config) { c.Enabled = true; c.Batch.MaxQueueSize = 0 }, true},
		{"关闭批处理", func(c *Config) { c.Enabled = true; c.Batch = BatchConfig{} }, false},
		{"指标缺少导出间隔", func(c *Config) {
			c.Enabled = true
			c.Metrics = MetricsConfig{Enabled: true}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := validator.Validate(cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, validator.ErrValidationFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestManagerDisabled(t *testing.T) {
	m := NewManager(DefaultConfig(), WithLogger(logger.Wrap(zap.NewNop(), "telemetry")))
	require.NoError(t, m.Start(context.Background()))
	assert.False(t, m.IsEnabled())

	_, span := m.TracerProvider().Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NotNil(t, m.MeterProvider().Meter("test"))
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestManagerInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Exporter.Type = "jaeger"

	m := NewManager(cfg, WithLogger(logger.Wrap(zap.NewNop(), "telemetry")))
	err := m.Start(context.Background())
	assert.ErrorIs(t, err, validator.ErrValidationFailed)
}

func TestManagerStdout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.ServiceName = "ioc-test"
	cfg.Exporter = ExporterConfig{Type: "stdout", Timeout: time.Second}
	cfg.Sampler = SamplerConfig{Type: "always_on"}
	cfg.Batch = BatchConfig{}
	cfg.Metrics = MetricsConfig{Enabled: true, ExportInterval: time.Hour}
	cfg.ResourceAttrs = map[string]interface{}{
		"deployment": map[string]interface{}{"environment": "test"},
	}

	var out bytes.Buffer
	m := NewManager(cfg, WithWriter(&out), WithLogger(logger.Wrap(zap.NewNop(), "telemetry")))
	ctx := context.Background()
	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Start(ctx))

	_, span := m.TracerProvider().Tracer("test").Start(ctx, "ioc.GetBean")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	counter, err := m.MeterProvider().Meter("test").Int64Counter("ioc_test_total")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	require.NoError(t, m.Shutdown(ctx))

	s := out.String()
	assert.Contains(t, s, "ioc.GetBean")
	assert.Contains(t, s, "deployment.environment")
	assert.Contains(t, s, "ioc_test_total")

	_, after := m.TracerProvider().Tracer("test").Start(ctx, "after")
	assert.False(t, after.SpanContext().IsValid())
}

func TestFlattenAttrs(t *testing.T) {
	got := flattenAttrs(map[string]interface{}{
		"team": "infra",
		"deployment": map[string]interface{}{
			"environment": "prod",
			"replicas":    3,
		},
	}, "")

	assert.Equal(t, map[string]string{
		"team":                   "infra",
		"deployment.environment": "prod",
		"deployment.replicas":    "3",
	}, got)
}
