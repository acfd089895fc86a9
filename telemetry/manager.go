// Package telemetry 创建 OpenTelemetry TracerProvider / MeterProvider，供容器埋点使用
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/KOMKZ/go-yogan-ioc/logger"
	"github.com/KOMKZ/go-yogan-ioc/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Manager 管理 TracerProvider 与 MeterProvider 的生命周期
type Manager struct {
	config Config
	logger *logger.CtxZapLogger
	writer io.Writer // stdout 导出器的输出

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	started        bool
	mu             sync.RWMutex
}

// Option 配置 Manager
type Option func(*Manager)

// WithLogger 指定日志
func WithLogger(l *logger.CtxZapLogger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithWriter stdout 导出器写入 w（默认 os.Stdout）
func WithWriter(w io.Writer) Option {
	return func(m *Manager) { m.writer = w }
}

// NewManager 创建 Manager
func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		config: cfg,
		logger: logger.GetLogger("ioc"),
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start 校验配置并创建 Provider，同时设置为全局 Provider
// 未启用时不做任何事，TracerProvider/MeterProvider 返回 noop 实现
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return nil
	}
	if err := validator.Validate(m.config); err != nil {
		return fmt.Errorf("validate telemetry config failed: %w", err)
	}
	if !m.config.Enabled {
		m.logger.InfoCtx(ctx, "telemetry disabled")
		m.started = true
		return nil
	}

	res, err := m.createResource(ctx)
	if err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}

	tp, err := m.createTracerProvider(ctx, res)
	if err != nil {
		return err
	}
	m.tracerProvider = tp
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if m.config.Metrics.Enabled {
		mp, err := m.createMeterProvider(ctx, res)
		if err != nil {
			_ = tp.Shutdown(ctx)
			m.tracerProvider = nil
			return err
		}
		m.meterProvider = mp
		otel.SetMeterProvider(mp)
	}

	m.started = true
	m.logger.InfoCtx(ctx, "telemetry started",
		zap.String("service_name", m.config.ServiceName),
		zap.String("exporter", m.config.Exporter.Type),
		zap.String("sampler", m.config.Sampler.Type),
		zap.Bool("metrics", m.config.Metrics.Enabled),
	)
	return nil
}

// Shutdown 刷新并关闭 Provider；满足 do.ShutdownerWithContextAndError
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	if m.meterProvider != nil {
		if err := m.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider failed: %w", err))
		}
		m.meterProvider = nil
	}
	if m.tracerProvider != nil {
		if err := m.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider failed: %w", err))
		}
		m.tracerProvider = nil
	}
	m.started = false
	return errors.Join(errs...)
}

// TracerProvider 已创建的 TracerProvider，未启用时为 noop
func (m *Manager) TracerProvider() trace.TracerProvider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tracerProvider == nil {
		return tracenoop.NewTracerProvider()
	}
	return m.tracerProvider
}

// MeterProvider 已创建的 MeterProvider，未启用时为 noop
func (m *Manager) MeterProvider() metric.MeterProvider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.meterProvider == nil {
		return metricnoop.NewMeterProvider()
	}
	return m.meterProvider
}

// IsEnabled 是否启用
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled
}

// Config 当前配置
func (m *Manager) Config() Config {
	return m.config
}
