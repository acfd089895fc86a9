package config

import (
	"github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"
)

// ProvideLoaderOptions 创建 Loader 的选项
type ProvideLoaderOptions struct {
	ConfigPath   string   // 配置目录路径
	ConfigPrefix string   // 环境变量前缀
	Args         []string // 参数向量
}

// ProvideLoader 创建 Config Loader Provider
//
// 使用示例：
//
//	do.Provide(injector, config.ProvideLoader(config.ProvideLoaderOptions{
//	    ConfigPath:   "./configs",
//	    ConfigPrefix: "APP",
//	    Args:         os.Args[1:],
//	}))
//	loader := do.MustInvoke[*config.Loader](injector)
func ProvideLoader(opts ProvideLoaderOptions) func(do.Injector) (*Loader, error) {
	return func(i do.Injector) (*Loader, error) {
		b := NewLoaderBuilder().
			WithConfigPath(opts.ConfigPath).
			WithEnvPrefix(opts.ConfigPrefix).
			WithArgs(opts.Args)

		// 注入器中已有 Redis 客户端时追加 Redis 数据源
		if client, err := do.InvokeAs[redis.UniversalClient](i); err == nil {
			if key, err := do.InvokeNamed[string](i, RedisKeyService); err == nil {
				b.WithRedis(client, key)
			}
		}

		loader, err := b.Build()
		if err != nil {
			return nil, ErrSourceLoad.WithMsg("config loader build failed").Wrap(err)
		}
		return loader, nil
	}
}

// RedisKeyService 注入器中 Redis 配置哈希 key 的服务名
const RedisKeyService = "config.redis.key"

// ProvideLoaderValue 直接注册已创建的 Loader（用于测试或特殊场景）
func ProvideLoaderValue(loader *Loader) func(do.Injector) (*Loader, error) {
	return func(i do.Injector) (*Loader, error) {
		return loader, nil
	}
}
