package di

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KOMKZ/go-yogan-ioc/config"
	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/KOMKZ/go-yogan-ioc/dispatch"
	"github.com/KOMKZ/go-yogan-ioc/health"
	"github.com/KOMKZ/go-yogan-ioc/resolver"
	"github.com/KOMKZ/go-yogan-ioc/telemetry"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
server:
  port: 9090
logger:
  level: warn
  enable_console: false
`

func newTestApp(t *testing.T, opts ...AppOption) *Application {
	t.Helper()
	return newTestAppWithConfig(t, testConfig, opts...)
}

func newTestAppWithConfig(t *testing.T, content string, opts ...AppOption) *Application {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	return NewApplication(append([]AppOption{
		WithConfigPath(dir),
		WithName("ioc-test"),
	}, opts...)...)
}

func TestApplicationSetup(t *testing.T) {
	var setupCalled bool
	app := newTestApp(t,
		WithScanners(repoCatalog()),
		WithArgs([]string{"--server.mode=cli"}),
		WithOnSetup(func(a *Application) error {
			setupCalled = true
			return nil
		}),
	)
	assert.Equal(t, StateInit, app.State())

	require.NoError(t, app.Setup())
	require.NoError(t, app.Setup())
	assert.True(t, setupCalled)
	assert.Equal(t, StateSetup, app.State())
	require.NotNil(t, app.Logger())
	assert.Equal(t, 9090, app.ConfigLoader().GetInt("server.port"))

	svc, err := Get[*service](app.Context(), app.Container())
	require.NoError(t, err)
	assert.Equal(t, 9090, svc.Port)
	assert.Equal(t, "cli", svc.Mode)

	fromInjector, err := do.Invoke[*Container](app.Injector())
	require.NoError(t, err)
	assert.Same(t, app.Container(), fromInjector)
	for name, err := range app.HealthCheck() {
		assert.NoError(t, err, name)
	}

	require.NoError(t, app.Shutdown(context.Background()))
	assert.Equal(t, StateStopped, app.State())
	assert.ErrorIs(t, app.Container().DispatchAsync(context.Background(), "event", "", nil), dispatch.ErrClosed)
	assert.Error(t, app.Context().Err())
}

func TestApplicationSetupFailure(t *testing.T) {
	app := newTestApp(t, WithScanners(descriptor.NewCatalog().Add(
		descriptor.Service[service](descriptor.Named("a b")),
	)))
	err := app.Setup()
	require.Error(t, err)
	assert.ErrorIs(t, err, descriptor.ErrInvalidDeclaration)
}

func TestApplicationLoggerConfigInvalid(t *testing.T) {
	app := newTestAppWithConfig(t, "logger: broken\n", WithScanners(repoCatalog()))
	err := app.Setup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal logger config failed")
	assert.Nil(t, app.Logger())
}

func TestApplicationRun(t *testing.T) {
	var shutdownCalled bool
	app := newTestApp(t,
		WithScanners(listenerCatalog()),
		WithOnReady(func(a *Application) error {
			a.cancel()
			return nil
		}),
		WithOnShutdown(func(ctx context.Context) error {
			shutdownCalled = true
			return errors.New("flush failed")
		}),
	)

	require.NoError(t, app.Run())
	assert.True(t, shutdownCalled)
	assert.Equal(t, StateStopped, app.State())
	assert.NoError(t, app.Shutdown(context.Background()))
}

func TestApplicationConfigLoaderProperties(t *testing.T) {
	app := newTestApp(t, WithScanners(repoCatalog()))
	require.NoError(t, app.Setup())
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	var _ config.PropertySource = app.ConfigLoader()
	v, ok := app.Container().Property("server.port")
	require.True(t, ok)
	assert.Equal(t, "9090", v)
}

type diskProbe struct{ free int }

func (p *diskProbe) Name() string { return "disk" }

func (p *diskProbe) Check(ctx context.Context) error {
	if p.free < 10 {
		return errors.New("disk almost full")
	}
	return nil
}

func TestApplicationHealth(t *testing.T) {
	ctx := context.Background()

	t.Run("before setup", func(t *testing.T) {
		app := newTestApp(t)
		resp := app.Health(ctx)
		assert.Equal(t, health.StatusUnhealthy, resp.Status)
	})

	t.Run("healthy", func(t *testing.T) {
		app := newTestApp(t, WithScanners(repoCatalog()))
		require.NoError(t, app.Setup())
		t.Cleanup(func() { _ = app.Shutdown(ctx) })

		resp := app.Health(ctx)
		assert.Equal(t, health.StatusHealthy, resp.Status)
		assert.Contains(t, resp.Checks, "ioc")
		assert.Equal(t, app.Container().ID(), resp.Metadata["container"])
	})

	t.Run("checker beans", func(t *testing.T) {
		app := newTestApp(t, WithScanners(descriptor.NewCatalog().Add(
			descriptor.Service[diskProbe](descriptor.As[health.Checker]()),
		)))
		require.NoError(t, app.Setup())
		t.Cleanup(func() { _ = app.Shutdown(ctx) })

		resp := app.Health(ctx)
		assert.Equal(t, health.StatusUnhealthy, resp.Status)
		assert.Equal(t, "disk almost full", resp.Checks["disk"].Error)
	})

	t.Run("cycle degrades", func(t *testing.T) {
		app := newTestApp(t, WithScanners(descriptor.NewCatalog().Add(
			descriptor.Service[cycA]().Constructor(func(b *cycB) *cycA { return &cycA{b: b} }),
			descriptor.Service[cycB]().Constructor(func(a *cycA) *cycB { return &cycB{a: a} }),
		)))
		require.NoError(t, app.Setup())
		t.Cleanup(func() { _ = app.Shutdown(ctx) })

		resp := app.Health(ctx)
		assert.Equal(t, health.StatusDegraded, resp.Status)
		assert.ErrorIs(t, app.Container().Check(ctx), resolver.ErrCycle)
	})

	t.Run("closed container", func(t *testing.T) {
		app := newTestApp(t, WithScanners(repoCatalog()))
		require.NoError(t, app.Setup())
		require.NoError(t, app.Shutdown(ctx))
		assert.ErrorIs(t, app.Container().Check(ctx), dispatch.ErrClosed)
	})
}

func TestApplicationTelemetry(t *testing.T) {
	app := newTestAppWithConfig(t, testConfig+`
telemetry:
  enabled: true
  service_name: ioc-test
  exporter:
    type: noop
  sampler:
    type: always_on
  batch:
    enabled: false
`, WithScanners(repoCatalog()))
	require.NoError(t, app.Setup())

	tm, err := do.Invoke[*telemetry.Manager](app.Injector())
	require.NoError(t, err)
	assert.True(t, tm.IsEnabled())
	assert.Equal(t, "ioc-test", tm.Config().ServiceName)

	_, err = Get[*service](app.Context(), app.Container())
	require.NoError(t, err)

	require.NoError(t, app.Shutdown(context.Background()))
	_, span := tm.TracerProvider().Tracer("test").Start(context.Background(), "after")
	assert.False(t, span.SpanContext().IsValid())
}

func TestApplicationTelemetryInvalid(t *testing.T) {
	app := newTestAppWithConfig(t, testConfig+`
telemetry:
  enabled: true
  exporter:
    type: jaeger
`, WithScanners(repoCatalog()))
	err := app.Setup()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telemetry")
}

func runCommand(t *testing.T, app *Application, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := app.Command()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommand(t *testing.T) {
	t.Run("beans", func(t *testing.T) {
		app := newTestApp(t, WithScanners(repoCatalog()))
		out, err := runCommand(t, app, "beans")
		require.NoError(t, err)
		assert.Contains(t, out, "[primary]")
		assert.Contains(t, out, "instance")
		assert.Contains(t, out, "(prototype)")
		assert.Equal(t, StateStopped, app.State())
	})

	t.Run("graph", func(t *testing.T) {
		app := newTestApp(t, WithScanners(repoCatalog()))
		out, err := runCommand(t, app, "graph")
		require.NoError(t, err)
		assert.Contains(t, out, "digraph beans {")
		assert.Contains(t, out, "->")
	})

	t.Run("no cycle", func(t *testing.T) {
		app := newTestApp(t, WithScanners(repoCatalog()))
		out, err := runCommand(t, app, "cycles")
		require.NoError(t, err)
		assert.Equal(t, "no cycle\n", out)
	})

	t.Run("health", func(t *testing.T) {
		app := newTestApp(t, WithScanners(repoCatalog()))
		out, err := runCommand(t, app, "health")
		require.NoError(t, err)
		assert.Contains(t, out, `"status": "healthy"`)
	})

	t.Run("cycle", func(t *testing.T) {
		app := newTestApp(t, WithScanners(descriptor.NewCatalog().Add(
			descriptor.Service[cycA]().Constructor(func(b *cycB) *cycA { return &cycA{b: b} }),
			descriptor.Service[cycB]().Constructor(func(a *cycA) *cycB { return &cycB{a: a} }),
		)))
		t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

		out, err := runCommand(t, app, "cycles")
		require.ErrorIs(t, err, resolver.ErrCycle)
		assert.Contains(t, out, " -> ")
	})
}
