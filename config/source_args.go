package config

import "strings"

// ArgsSource 参数向量数据源
// 接收调用方已切分好的参数：--server.port=8080、--server.port 8080、--debug
// 非 -- 开头的位置参数被忽略
type ArgsSource struct {
	args     []string
	priority int
}

// NewArgsSource 创建参数向量数据源
func NewArgsSource(args []string, priority int) *ArgsSource {
	return &ArgsSource{args: append([]string(nil), args...), priority: priority}
}

func (s *ArgsSource) Name() string  { return "args" }
func (s *ArgsSource) Priority() int { return s.priority }

// Load 解析参数
func (s *ArgsSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})
	for i := 0; i < len(s.args); i++ {
		arg := s.args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
			continue
		}

		key, value, hasValue := strings.Cut(arg[2:], "=")
		if !hasValue {
			value = "true"
			if next := i + 1; next < len(s.args) && !strings.HasPrefix(s.args[next], "--") {
				value = s.args[next]
				i++
			}
		}
		result[key] = value
	}
	return result, nil
}
