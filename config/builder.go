package config

import (
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// LoaderBuilder 配置加载器构建器
type LoaderBuilder struct {
	configPath  string
	envPrefix   string
	args        []string
	redisClient redis.UniversalClient
	redisKey    string
	extra       []ConfigSource
}

// NewLoaderBuilder 创建构建器
func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{}
}

// WithConfigPath 设置配置目录（读取 config.yaml 与 <env>.yaml）
func (b *LoaderBuilder) WithConfigPath(path string) *LoaderBuilder {
	b.configPath = path
	return b
}

// WithEnvPrefix 设置环境变量前缀
func (b *LoaderBuilder) WithEnvPrefix(prefix string) *LoaderBuilder {
	b.envPrefix = prefix
	return b
}

// WithArgs 设置参数向量
func (b *LoaderBuilder) WithArgs(args []string) *LoaderBuilder {
	b.args = args
	return b
}

// WithRedis 设置 Redis 哈希数据源
func (b *LoaderBuilder) WithRedis(client redis.UniversalClient, key string) *LoaderBuilder {
	b.redisClient = client
	b.redisKey = key
	return b
}

// WithSource 追加自定义数据源
func (b *LoaderBuilder) WithSource(source ConfigSource) *LoaderBuilder {
	b.extra = append(b.extra, source)
	return b
}

// Build 构建并加载
func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()

	// 1. 基础配置文件（优先级 10）与环境配置文件（优先级 20）
	if b.configPath != "" {
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, "config.yaml"), 10))
		if env := GetEnv(); env != "" {
			loader.AddSource(NewFileSource(filepath.Join(b.configPath, env+".yaml"), 20))
		}
	}

	// 2. Redis 哈希（优先级 30）
	if b.redisClient != nil && b.redisKey != "" {
		loader.AddSource(NewRedisSource(b.redisClient, b.redisKey, 30))
	}

	// 3. 环境变量（优先级 50）
	if b.envPrefix != "" {
		loader.AddSource(NewEnvSource(b.envPrefix, 50))
	}

	// 4. 参数向量（优先级 100）
	if len(b.args) > 0 {
		loader.AddSource(NewArgsSource(b.args, 100))
	}

	for _, source := range b.extra {
		loader.AddSource(source)
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// GetEnv 运行环境（优先级：APP_ENV > ENV > 默认 dev）
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
