package config

import "github.com/KOMKZ/go-yogan-ioc/errcode"

// ModuleCode config module code
const ModuleCode = 36

const (
	ErrCodeSourceLoad = 1
)

// ErrSourceLoad 数据源加载失败
var ErrSourceLoad = errcode.Register(errcode.New(
	ModuleCode, ErrCodeSourceLoad,
	"config", "error.config.source_load", "config source load failed",
))
