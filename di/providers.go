package di

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-ioc/config"
	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/KOMKZ/go-yogan-ioc/logger"
	"github.com/KOMKZ/go-yogan-ioc/telemetry"
	"github.com/samber/do/v2"
)

// ProvideLoggerManager 创建 logger.Manager 的 Provider
// 依赖：config.Loader（读取 logger 节点），无配置时使用默认配置，配置格式错误时返回错误
func ProvideLoggerManager(i do.Injector) (*logger.Manager, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return logger.NewManager(logger.DefaultManagerConfig()), nil
	}

	cfg := logger.DefaultManagerConfig()
	if loader.IsSet("logger") {
		if err := loader.UnmarshalKey("logger", &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal logger config failed: %w", err)
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return logger.NewManager(cfg), nil
}

// ProvideCtxLogger 创建模块 CtxZapLogger 的 Provider
func ProvideCtxLogger(module string) func(do.Injector) (*logger.CtxZapLogger, error) {
	return func(i do.Injector) (*logger.CtxZapLogger, error) {
		mgr, err := do.Invoke[*logger.Manager](i)
		if err != nil {
			return logger.GetLogger(module), nil
		}
		return mgr.GetLogger(module), nil
	}
}

// ProvideTelemetry 创建并启动 telemetry.Manager 的 Provider
// 读取 telemetry 节点，无配置时为关闭状态；注入器关闭时刷新导出器
func ProvideTelemetry(i do.Injector) (*telemetry.Manager, error) {
	cfg := telemetry.DefaultConfig()
	if loader, err := do.Invoke[*config.Loader](i); err == nil && loader.IsSet("telemetry") {
		if err := loader.UnmarshalKey("telemetry", &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal telemetry config failed: %w", err)
		}
	}

	var opts []telemetry.Option
	if log, err := do.Invoke[*logger.CtxZapLogger](i); err == nil {
		opts = append(opts, telemetry.WithLogger(log))
	}
	m := telemetry.NewManager(cfg, opts...)
	if err := m.Start(context.Background()); err != nil {
		return nil, err
	}
	return m, nil
}

// ProvideContainer 创建 Container 的 Provider
// 依赖：config.Loader（属性服务）、*logger.CtxZapLogger、*telemetry.Manager（均可选）
func ProvideContainer(scanners []descriptor.Scanner, opts ...Option) func(do.Injector) (*Container, error) {
	return func(i do.Injector) (*Container, error) {
		all := make([]Option, 0, len(opts)+4)
		if loader, err := do.Invoke[*config.Loader](i); err == nil {
			all = append(all, WithProperties(loader))
		}
		if log, err := do.Invoke[*logger.CtxZapLogger](i); err == nil {
			all = append(all, WithLogger(log))
		}
		if tm, err := do.Invoke[*telemetry.Manager](i); err == nil && tm.IsEnabled() {
			all = append(all, WithTracerProvider(tm.TracerProvider()), WithMeterProvider(tm.MeterProvider()))
		}
		c := New(append(all, opts...)...)
		if err := c.Load(scanners...); err != nil {
			_ = c.Shutdown()
			return nil, err
		}
		return c, nil
	}
}
