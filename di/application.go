package di

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/KOMKZ/go-yogan-ioc/config"
	"github.com/KOMKZ/go-yogan-ioc/descriptor"
	"github.com/KOMKZ/go-yogan-ioc/health"
	"github.com/KOMKZ/go-yogan-ioc/logger"
	"github.com/KOMKZ/go-yogan-ioc/repository"
	"github.com/KOMKZ/go-yogan-ioc/telemetry"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// AppState 应用状态
type AppState int

const (
	StateInit AppState = iota
	StateSetup
	StateRunning
	StateStopping
	StateStopped
)

// String 状态字符串表示
func (s AppState) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateSetup:
		return "Setup"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Application 容器应用
// samber/do 管理配置、日志、容器三个基础服务；业务 bean 由 Container 管理
type Application struct {
	injector *do.RootScope

	// 配置
	configPath   string
	configPrefix string
	args         []string

	// 声明来源（默认 descriptor.Default()）
	scanners  []descriptor.Scanner
	container []Option

	configLoader *config.Loader
	logger       *logger.CtxZapLogger
	ioc          *Container

	ctx    context.Context
	cancel context.CancelFunc
	state  AppState
	mu     sync.RWMutex

	name    string
	version string

	onSetup    func(*Application) error
	onReady    func(*Application) error
	onShutdown func(context.Context) error
}

// AppOption 应用选项函数
type AppOption func(*Application)

// WithConfigPath 设置配置目录
func WithConfigPath(path string) AppOption {
	return func(app *Application) {
		app.configPath = path
	}
}

// WithConfigPrefix 设置环境变量前缀
func WithConfigPrefix(prefix string) AppOption {
	return func(app *Application) {
		app.configPrefix = prefix
	}
}

// WithArgs 设置参数向量（已由调用方切分）
func WithArgs(args []string) AppOption {
	return func(app *Application) {
		app.args = args
	}
}

// WithScanners 设置声明来源
func WithScanners(scanners ...descriptor.Scanner) AppOption {
	return func(app *Application) {
		app.scanners = scanners
	}
}

// WithContainerOptions 透传给 New
func WithContainerOptions(opts ...Option) AppOption {
	return func(app *Application) {
		app.container = append(app.container, opts...)
	}
}

// WithName 设置应用名称
func WithName(name string) AppOption {
	return func(app *Application) {
		app.name = name
	}
}

// WithVersion 设置应用版本
func WithVersion(version string) AppOption {
	return func(app *Application) {
		app.version = version
	}
}

// WithOnSetup 设置 Setup 回调
func WithOnSetup(fn func(*Application) error) AppOption {
	return func(app *Application) {
		app.onSetup = fn
	}
}

// WithOnReady 设置 Ready 回调
func WithOnReady(fn func(*Application) error) AppOption {
	return func(app *Application) {
		app.onReady = fn
	}
}

// WithOnShutdown 设置 Shutdown 回调
func WithOnShutdown(fn func(context.Context) error) AppOption {
	return func(app *Application) {
		app.onShutdown = fn
	}
}

// NewApplication 创建应用
func NewApplication(opts ...AppOption) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		injector:   do.New(),
		configPath: "./configs",
		ctx:        ctx,
		cancel:     cancel,
		state:      StateInit,
		name:       "yogan-ioc",
		version:    "0.0.1",
	}
	for _, opt := range opts {
		opt(app)
	}
	if len(app.scanners) == 0 {
		app.scanners = []descriptor.Scanner{descriptor.Default()}
	}
	return app
}

// Injector 获取 do 注入器
func (app *Application) Injector() *do.RootScope { return app.injector }

// Logger 获取日志实例（Setup 之后可用）
func (app *Application) Logger() *logger.CtxZapLogger { return app.logger }

// ConfigLoader 获取配置加载器（Setup 之后可用）
func (app *Application) ConfigLoader() *config.Loader { return app.configLoader }

// Container 获取容器（Setup 之后可用）
func (app *Application) Container() *Container { return app.ioc }

// Context 应用生命周期 context，Shutdown 时取消
func (app *Application) Context() context.Context { return app.ctx }

// State 当前状态
func (app *Application) State() AppState {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.state
}

func (app *Application) setState(state AppState) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.state = state
}

// Setup 初始化阶段
// 1. 加载配置 2. 初始化日志 3. 启动 telemetry 4. 创建容器并加载声明
func (app *Application) Setup() error {
	if app.State() != StateInit {
		return nil
	}
	app.setState(StateSetup)

	// 1. 配置
	do.Provide(app.injector, config.ProvideLoader(config.ProvideLoaderOptions{
		ConfigPath:   app.configPath,
		ConfigPrefix: app.configPrefix,
		Args:         app.args,
	}))
	loader, err := do.Invoke[*config.Loader](app.injector)
	if err != nil {
		return fmt.Errorf("初始化配置失败: %w", err)
	}
	app.configLoader = loader

	// 2. 日志
	do.Provide(app.injector, ProvideLoggerManager)
	do.Provide(app.injector, ProvideCtxLogger("ioc"))
	appLogger, err := do.Invoke[*logger.CtxZapLogger](app.injector)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	app.logger = appLogger

	app.logger.Info("应用初始化中",
		zap.String("name", app.name),
		zap.String("version", app.version),
		zap.String("config_path", app.configPath),
	)

	// 3. 可观测性
	do.Provide(app.injector, ProvideTelemetry)
	if _, err := do.Invoke[*telemetry.Manager](app.injector); err != nil {
		return fmt.Errorf("初始化 telemetry 失败: %w", err)
	}

	// 4. 容器
	do.Provide(app.injector, ProvideContainer(app.scanners, app.container...))
	ioc, err := do.Invoke[*Container](app.injector)
	if err != nil {
		return fmt.Errorf("初始化容器失败: %w", err)
	}
	app.ioc = ioc

	if app.onSetup != nil {
		if err := app.onSetup(app); err != nil {
			return fmt.Errorf("setup 回调失败: %w", err)
		}
	}
	return nil
}

// Start 启动应用
func (app *Application) Start() error {
	app.setState(StateRunning)
	app.logger.Info("应用启动完成",
		zap.String("name", app.name),
		zap.String("container", app.ioc.ID()),
		zap.Int("classes", len(app.ioc.Classes())),
	)

	if app.onReady != nil {
		if err := app.onReady(app); err != nil {
			return fmt.Errorf("ready 回调失败: %w", err)
		}
	}
	return nil
}

// Run Setup + Start，阻塞等待退出信号
func (app *Application) Run() error {
	if err := app.Setup(); err != nil {
		return err
	}
	if err := app.Start(); err != nil {
		return err
	}
	app.waitForSignal()
	return nil
}

func (app *Application) waitForSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.logger.Info("收到退出信号", zap.String("signal", sig.String()))
	case <-app.ctx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		app.logger.Error("关闭失败", zap.Error(err))
	}
}

// Shutdown 优雅关闭：回调 -> 取消 context -> 注入器按依赖反序关闭（含 Container）
func (app *Application) Shutdown(ctx context.Context) error {
	if app.State() == StateStopped {
		return nil
	}
	app.setState(StateStopping)

	var shutdownErr error
	if app.onShutdown != nil {
		if err := app.onShutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("shutdown 回调失败: %w", err)
		}
	}

	app.cancel()

	if report := app.injector.ShutdownWithContext(ctx); report != nil && !report.Succeed {
		app.warn("injector shutdown 失败", zap.String("report", report.Error()))
	}

	app.setState(StateStopped)
	app.warnOrInfo(shutdownErr)
	return shutdownErr
}

func (app *Application) warn(msg string, fields ...zap.Field) {
	if app.logger != nil {
		app.logger.Warn(msg, fields...)
	}
}

func (app *Application) warnOrInfo(err error) {
	if app.logger == nil {
		return
	}
	if err != nil {
		app.logger.Warn("应用已关闭", zap.Error(err))
		return
	}
	app.logger.Info("应用已关闭")
}

// HealthCheck 注入器健康检查
func (app *Application) HealthCheck() map[string]error {
	return app.injector.HealthCheck()
}

// Health 汇总容器与所有以 health.Checker 注册的 bean 的健康状态
func (app *Application) Health(ctx context.Context) *health.Response {
	agg := health.NewAggregator(5 * time.Second)
	agg.SetMetadata("name", app.name)
	agg.SetMetadata("version", app.version)
	agg.SetMetadata("state", app.State().String())

	if app.ioc == nil {
		agg.Register(health.CheckerFunc{CheckName: "ioc", Fn: func(context.Context) error {
			return errors.New("容器未初始化")
		}})
		return agg.Check(ctx)
	}

	agg.SetMetadata("container", app.ioc.ID())
	agg.Register(app.ioc)

	checkers, err := GetAll[health.Checker](ctx, app.ioc)
	switch {
	case err == nil:
		agg.Register(checkers...)
	case !errors.Is(err, repository.ErrNotFound):
		agg.Register(health.CheckerFunc{CheckName: "ioc.checkers", Fn: func(context.Context) error { return err }})
	}
	return agg.Check(ctx)
}
