package di

import (
	"github.com/KOMKZ/go-yogan-ioc/config"
	"github.com/KOMKZ/go-yogan-ioc/dispatch"
	"github.com/KOMKZ/go-yogan-ioc/logger"
	"github.com/KOMKZ/go-yogan-ioc/repository"
	"github.com/KOMKZ/go-yogan-ioc/resolver"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option 容器选项
type Option func(*Container)

// WithChain 替换解析器链（默认 resolver.Default()）
func WithChain(chain *resolver.Chain) Option {
	return func(c *Container) {
		c.chain = chain
	}
}

// WithProperties 设置属性服务
func WithProperties(props config.PropertySource) Option {
	return func(c *Container) {
		c.props = props
	}
}

// WithLayers 追加只读的下层仓库（例如父容器共享的 bean）
func WithLayers(layers ...repository.Repository) Option {
	return func(c *Container) {
		for _, l := range layers {
			c.repo.Add(l)
		}
	}
}

// WithLogger 设置日志
func WithLogger(l *logger.CtxZapLogger) Option {
	return func(c *Container) {
		c.logger = l
	}
}

// WithMeterProvider 设置 MeterProvider（默认全局）
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Container) {
		c.meterProvider = mp
	}
}

// WithTracerProvider 设置 TracerProvider（默认全局）
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Container) {
		c.tracerProvider = tp
	}
}

// WithDispatchOptions 透传给 dispatch.New
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(c *Container) {
		c.dispatchOpts = append(c.dispatchOpts, opts...)
	}
}
