package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// FileSource 文件数据源（yaml/json/toml，由扩展名或 format 决定）
type FileSource struct {
	path     string
	priority int
	format   string
	required bool
}

// NewFileSource 创建文件数据源，文件不存在时返回空配置
func NewFileSource(path string, priority int) *FileSource {
	return &FileSource{path: path, priority: priority}
}

// Required 文件不存在时报错
func (s *FileSource) Required() *FileSource {
	s.required = true
	return s
}

// WithFormat 指定格式（用于无扩展名的文件）
func (s *FileSource) WithFormat(format string) *FileSource {
	s.format = format
	return s
}

func (s *FileSource) Name() string  { return "file:" + s.path }
func (s *FileSource) Priority() int { return s.priority }

// Load 读取文件并展平为点号 key
func (s *FileSource) Load() (map[string]interface{}, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) && !s.required {
			return make(map[string]interface{}), nil
		}
		return nil, ErrSourceLoad.WithMsgf("访问配置文件失败 %s", s.path).Wrap(err)
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	if s.format != "" {
		v.SetConfigType(s.format)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, ErrSourceLoad.WithMsgf("读取配置文件失败 %s", s.path).Wrap(err)
	}
	return flattenMap("", v.AllSettings()), nil
}

// flattenMap 将嵌套 map 展平为点号分隔的 key
// 例如：{"server": {"port": 8080}} -> {"server.port": 8080}
func flattenMap(prefix string, data map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})
	for key, value := range data {
		fullKey := strings.TrimPrefix(prefix+"."+key, ".")
		if nested, ok := value.(map[string]interface{}); ok {
			for k, v := range flattenMap(fullKey, nested) {
				result[k] = v
			}
			continue
		}
		result[fullKey] = value
	}
	return result
}
