package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Loader 配置加载器（支持多数据源）
// 数据源按优先级从低到高合并，合并结果同步到 Viper
type Loader struct {
	mu           sync.RWMutex
	sources      []ConfigSource         // 数据源列表
	mergedConfig map[string]interface{} // 合并后的扁平配置
	v            *viper.Viper
	loadedFiles  []string
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{
		sources:      make([]ConfigSource, 0),
		mergedConfig: make(map[string]interface{}),
		v:            viper.New(),
	}
}

// AddSource 添加配置数据源
func (l *Loader) AddSource(source ConfigSource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources = append(l.sources, source)
}

// Load 加载并合并所有数据源
func (l *Loader) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// 1. 按优先级排序（从低到高），同优先级保持添加顺序
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	// 2. 依次加载并合并（高优先级覆盖低优先级）
	merged := make(map[string]interface{})
	var files []string
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return ErrSourceLoad.WithMsgf("加载数据源 %s 失败", source.Name()).Wrap(err)
		}
		if fileSource, ok := source.(*FileSource); ok {
			files = append(files, fileSource.path)
		}
		for key, value := range data {
			merged[key] = value
		}
	}

	// 3. 同步到 Viper（Viper 自行展开点号 key）
	v := viper.New()
	for key, value := range merged {
		v.Set(key, value)
	}

	l.mergedConfig = merged
	l.loadedFiles = files
	l.v = v
	return nil
}

// Reload 重新加载配置
func (l *Loader) Reload() error {
	return l.Load()
}

// GetProperty 读取原始字符串值；非字符串的值（如 YAML 中的数字）按 cast 规则转成字符串
func (l *Loader) GetProperty(name string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	value, ok := l.mergedConfig[name]
	if !ok {
		if !l.v.IsSet(name) {
			return "", false
		}
		value = l.v.Get(name)
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return fmt.Sprint(value), true
	}
	return s, true
}

// Keys 所有扁平 key（已排序）
func (l *Loader) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	keys := make([]string, 0, len(l.mergedConfig))
	for k := range l.mergedConfig {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Unmarshal 将配置解析到结构体
func (l *Loader) Unmarshal(v interface{}) error {
	return l.viper().Unmarshal(v)
}

// UnmarshalKey 将某一节点解析到结构体
func (l *Loader) UnmarshalKey(key string, v interface{}) error {
	return l.viper().UnmarshalKey(key, v)
}

// Get 获取配置值
func (l *Loader) Get(key string) interface{} {
	return l.viper().Get(key)
}

// GetString 获取字符串配置
func (l *Loader) GetString(key string) string {
	return l.viper().GetString(key)
}

// GetInt 获取整数配置
func (l *Loader) GetInt(key string) int {
	return l.viper().GetInt(key)
}

// GetBool 获取布尔配置
func (l *Loader) GetBool(key string) bool {
	return l.viper().GetBool(key)
}

// IsSet 配置项是否存在
func (l *Loader) IsSet(key string) bool {
	return l.viper().IsSet(key)
}

// AllSettings 全部配置（嵌套结构）
func (l *Loader) AllSettings() map[string]interface{} {
	return l.viper().AllSettings()
}

// GetLoadedFiles 已加载的配置文件列表
func (l *Loader) GetLoadedFiles() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.loadedFiles...)
}

// GetViper 获取底层 Viper 实例
func (l *Loader) GetViper() *viper.Viper {
	return l.viper()
}

func (l *Loader) viper() *viper.Viper {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.v
}
