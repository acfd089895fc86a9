package logger

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/KOMKZ/go-yogan-ioc/validator"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager Logger 管理器（按模块缓存 Logger）
type Manager struct {
	baseConfig ManagerConfig
	extra      []zapcore.Core
	loggers    map[string]*CtxZapLogger        // 模块名 -> CtxZapLogger
	zapLoggers map[string]*zap.Logger          // 模块名 -> 底层 zap.Logger
	writers    map[string][]*lumberjack.Logger // 模块名 -> 文件写入器（用于关闭）
	mu         sync.RWMutex
}

// ManagerOption Manager 选项
type ManagerOption func(*Manager)

// WithCore 追加输出 Core（例如测试中的 observer）
func WithCore(core zapcore.Core) ManagerOption {
	return func(m *Manager) {
		m.extra = append(m.extra, core)
	}
}

var (
	globalManager *Manager
	globalMu      sync.RWMutex
)

// NewManager 创建独立的 Manager 实例，cfg 中的零值字段自动填充默认值
func NewManager(cfg ManagerConfig, opts ...ManagerOption) *Manager {
	cfg.ApplyDefaults()
	m := &Manager{
		baseConfig: cfg,
		loggers:    make(map[string]*CtxZapLogger),
		zapLoggers: make(map[string]*zap.Logger),
		writers:    make(map[string][]*lumberjack.Logger),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// InitManager 初始化全局 Manager（已初始化时不生效）
func InitManager(cfg ManagerConfig, opts ...ManagerOption) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalManager == nil {
		globalManager = NewManager(cfg, opts...)
	}
}

// SetManager 替换全局 Manager，返回旧实例
func SetManager(m *Manager) *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()
	old := globalManager
	globalManager = m
	return old
}

func manager() *Manager {
	globalMu.RLock()
	m := globalManager
	globalMu.RUnlock()
	if m != nil {
		return m
	}
	InitManager(DefaultManagerConfig())
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// Config 当前配置
func (m *Manager) Config() ManagerConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseConfig
}

// GetLogger 获取模块 Logger（按需创建，已包含 module 字段）
func (m *Manager) GetLogger(module string) *CtxZapLogger {
	m.mu.RLock()
	if l, ok := m.loggers[module]; ok {
		m.mu.RUnlock()
		return l
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.loggers[module]; ok {
		return l
	}

	cfg := m.baseConfig
	base := m.createLogger(module).With(zap.String("module", module))
	l := &CtxZapLogger{
		base:   base.WithOptions(zap.AddCallerSkip(1)),
		module: module,
		config: &cfg,
	}
	m.loggers[module] = l
	m.zapLoggers[module] = base
	return l
}

// createLogger 按配置组装 console / file / extra Core
func (m *Manager) createLogger(module string) *zap.Logger {
	cfg := m.baseConfig
	level := ParseLevel(cfg.Level)
	encoder := createEncoder(cfg)

	var cores []zapcore.Core
	if cfg.EnableConsole {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	if cfg.EnableFile {
		info := createFileWriter(cfg.filePath(module, "info"), cfg)
		errw := createFileWriter(cfg.filePath(module, "error"), cfg)
		m.writers[module] = []*lumberjack.Logger{info, errw}

		cores = append(cores,
			zapcore.NewCore(encoder, zapcore.AddSync(info), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= level && l < zapcore.ErrorLevel
			})),
			zapcore.NewCore(encoder, zapcore.AddSync(errw), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= zapcore.ErrorLevel && l >= level
			})),
		)
	}
	cores = append(cores, m.extra...)

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(zapcore.NewTee(cores...), opts...)
}

// CloseAll 刷新缓冲并关闭所有文件句柄
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *Manager) reset() {
	for _, l := range m.zapLoggers {
		_ = l.Sync()
	}
	for _, writers := range m.writers {
		for _, w := range writers {
			_ = w.Close()
		}
	}
	m.loggers = make(map[string]*CtxZapLogger)
	m.zapLoggers = make(map[string]*zap.Logger)
	m.writers = make(map[string][]*lumberjack.Logger)
}

// ReloadConfig 热重载配置（已发放的 Logger 保持旧配置，之后获取的使用新配置）
func (m *Manager) ReloadConfig(newCfg ManagerConfig) error {
	newCfg.ApplyDefaults()
	if err := validator.Validate(newCfg); err != nil {
		return err
	}

	m.mu.Lock()
	old := m.baseConfig
	m.reset()
	m.baseConfig = newCfg
	m.mu.Unlock()

	if old.Level != newCfg.Level {
		m.GetLogger("logger").Debug("日志级别已更新",
			zap.String("old_level", old.Level),
			zap.String("new_level", newCfg.Level))
	}
	return nil
}

// InfoCtx 记录 Info 日志
func (m *Manager) InfoCtx(ctx context.Context, module, msg string, fields ...zap.Field) {
	m.GetLogger(module).InfoCtx(ctx, msg, fields...)
}

// ErrorCtx 记录 Error 日志
func (m *Manager) ErrorCtx(ctx context.Context, module, msg string, fields ...zap.Field) {
	m.GetLogger(module).ErrorCtx(ctx, msg, fields...)
}

func createEncoder(cfg ManagerConfig) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if cfg.Encoding == "console" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// createFileWriter lumberjack 文件切割
func createFileWriter(filename string, cfg ManagerConfig) *lumberjack.Logger {
	_ = os.MkdirAll(filepath.Dir(filename), 0o755)
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
}

// GetLogger 从全局 Manager 获取模块 Logger
func GetLogger(module string) *CtxZapLogger {
	return manager().GetLogger(module)
}

// CloseAll 关闭全局 Manager 的所有 Logger
func CloseAll() {
	manager().CloseAll()
}

// ReloadConfig 热重载全局配置
func ReloadConfig(cfg ManagerConfig) error {
	return manager().ReloadConfig(cfg)
}
