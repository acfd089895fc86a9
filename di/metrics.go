package di

import (
	"context"
	"errors"
	"time"

	"github.com/KOMKZ/go-yogan-ioc/errcode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/KOMKZ/go-yogan-ioc/di"

// containerMetrics 容器指标
type containerMetrics struct {
	beansCreated    metric.Int64Counter     // 创建的实例数
	resolveErrors   metric.Int64Counter     // 顶层解析失败数
	resolveDuration metric.Float64Histogram // 顶层解析耗时
}

func newContainerMetrics(mp metric.MeterProvider) (*containerMetrics, error) {
	meter := mp.Meter(instrumentationName)

	beansCreated, err := meter.Int64Counter(
		"ioc_beans_created_total",
		metric.WithDescription("容器创建的实例总数"),
		metric.WithUnit("{bean}"),
	)
	if err != nil {
		return nil, err
	}

	resolveErrors, err := meter.Int64Counter(
		"ioc_resolve_errors_total",
		metric.WithDescription("GetBean 失败总数"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	resolveDuration, err := meter.Float64Histogram(
		"ioc_resolve_duration_seconds",
		metric.WithDescription("GetBean 耗时分布"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &containerMetrics{
		beansCreated:    beansCreated,
		resolveErrors:   resolveErrors,
		resolveDuration: resolveDuration,
	}, nil
}

func (m *containerMetrics) recordCreated(ctx context.Context, scope string) {
	if m == nil {
		return
	}
	m.beansCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

// recordResolve 失败按错误码分类，非 LayeredError 记为 0
func (m *containerMetrics) recordResolve(ctx context.Context, start time.Time, err error) {
	if m == nil {
		return
	}
	m.resolveDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		m.resolveErrors.Add(ctx, 1, metric.WithAttributes(attribute.Int("code", errorCode(err))))
	}
}

func errorCode(err error) int {
	var le *errcode.LayeredError
	if errors.As(err, &le) {
		return le.Code()
	}
	return 0
}
