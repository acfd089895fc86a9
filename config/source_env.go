package config

import (
	"os"
	"strings"
)

// EnvSource 环境变量数据源
// 未设置 bindings 时扫描前缀匹配的变量：APP_SERVER_PORT -> server.port
type EnvSource struct {
	prefix   string
	priority int
	bindings map[string]string // 配置 key -> 环境变量名
}

// NewEnvSource 创建环境变量数据源
func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{
		prefix:   strings.TrimSuffix(prefix, "_"),
		priority: priority,
		bindings: make(map[string]string),
	}
}

// Bind 绑定配置 key 到指定环境变量（自动补全前缀）
func (s *EnvSource) Bind(key, envKey string) *EnvSource {
	s.bindings[key] = envKey
	return s
}

func (s *EnvSource) Name() string  { return "env:" + s.prefix }
func (s *EnvSource) Priority() int { return s.priority }

// Load 读取环境变量
func (s *EnvSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	if len(s.bindings) > 0 {
		for key, envKey := range s.bindings {
			if s.prefix != "" && !strings.HasPrefix(envKey, s.prefix+"_") {
				envKey = s.prefix + "_" + envKey
			}
			if value, ok := os.LookupEnv(envKey); ok {
				result[key] = value
			}
		}
		return result, nil
	}

	if s.prefix == "" {
		return result, nil
	}

	prefix := s.prefix + "_"
	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, prefix))
		result[strings.ReplaceAll(key, "_", ".")] = value
	}
	return result, nil
}
