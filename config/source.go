package config

// ConfigSource 配置数据源接口
// 文件、环境变量、参数向量、Redis 等数据源都实现此接口
type ConfigSource interface {
	// Name 数据源名称（用于日志和调试）
	Name() string

	// Priority 优先级（数值越大优先级越高）
	// 建议取值：
	// - 默认值: 1
	// - 配置文件 (config.yaml): 10
	// - 环境配置文件 (dev.yaml): 20
	// - Redis 哈希: 30
	// - 环境变量: 50
	// - 参数向量: 100
	Priority() int

	// Load 加载配置数据
	// 返回的 map 使用点号分隔的 key，如 "server.port"
	Load() (map[string]interface{}, error)
}

// PropertySource 属性服务：按名称读取原始字符串配置值
type PropertySource interface {
	GetProperty(name string) (string, bool)
}

// PropertiesFunc 将函数适配为 PropertySource
type PropertiesFunc func(name string) (string, bool)

func (f PropertiesFunc) GetProperty(name string) (string, bool) { return f(name) }

// MapProperties 固定的属性表（测试或嵌入场景）
type MapProperties map[string]string

func (m MapProperties) GetProperty(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}
