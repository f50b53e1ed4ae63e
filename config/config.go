// Package config 提供了统一的配置加载与管理能力 (TOML + 环境变量 + 校验 + 热更新).
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wyfcoding/fixmsg/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config 全局顶级配置结构.
type Config struct {
	Version    string           `mapstructure:"version"    toml:"version"`
	Log        LogConfig        `mapstructure:"log"        toml:"log"`
	Codec      CodecConfig      `mapstructure:"codec"      toml:"codec"`
	Dictionary DictionaryConfig `mapstructure:"dictionary" toml:"dictionary"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    toml:"metrics"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format"      toml:"format"      validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"        toml:"file"`        // 日志文件路径。
	Console    bool   `mapstructure:"console"     toml:"console"`     // 写文件时是否同时输出 stdout。
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"`    // 单个文件最大大小 (MB)。
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"` // 最大备份数。
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"`     // 最大保留天数。
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
}

// CodecConfig 定义 FIX 编解码行为.
type CodecConfig struct {
	BeginString         string `mapstructure:"begin_string"           toml:"begin_string"`
	ValidateChecksum    bool   `mapstructure:"validate_checksum"      toml:"validate_checksum"`
	ValidateBodyLength  bool   `mapstructure:"validate_body_length"   toml:"validate_body_length"`
	AllowUnknownMsgType bool   `mapstructure:"allow_unknown_msg_type" toml:"allow_unknown_msg_type"`
	TimestampPrecision  string `mapstructure:"timestamp_precision"    toml:"timestamp_precision" validate:"omitempty,oneof=seconds millis micros nanos"`
	DecodeConcurrency   int    `mapstructure:"decode_concurrency"     toml:"decode_concurrency"  validate:"gte=0,lte=1024"`
}

// DictionaryConfig 指定外部数据字典文件, 为空时使用内置 FIX.4.4 子集.
type DictionaryConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
type MetricsConfig struct {
	Port    string `mapstructure:"port"    toml:"port"    validate:"required_if=Enabled true"`
	Path    string `mapstructure:"path"    toml:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// LoggingConfig 转换为 logging.Config.
func (c *Config) LoggingConfig(service string) logging.Config {
	return logging.Config{
		Service:    service,
		Module:     "fix",
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		Console:    c.Log.Console,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		Compress:   c.Log.Compress,
	}
}

var (
	hooksMu  sync.Mutex
	onReload []func(*Config)
)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	hooksMu.Lock()
	defer hooksMu.Unlock()
	onReload = append(onReload, hook)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("codec.validate_checksum", true)
	v.SetDefault("codec.validate_body_length", true)
	v.SetDefault("codec.timestamp_precision", "millis")
	v.SetDefault("metrics.path", "/metrics")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Default 返回未读取任何文件时的默认配置.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	conf := &Config{}
	_ = v.Unmarshal(conf)
	return conf
}

// Load 读取 TOML 配置, 叠加 APP_ 前缀的环境变量并校验.
func Load(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	conf := &Config{}
	if err := decode(v, conf); err != nil {
		return nil, err
	}
	return conf, nil
}

var validate = validator.New()

func decode(v *viper.Viper, conf *Config) error {
	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Watch 加载配置并监听文件变更, 每次成功重载后同步日志级别并触发回调.
func Watch(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}
	conf := &Config{}
	if err := decode(v, conf); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		next := &Config{}
		if err := decode(v, next); err != nil {
			slog.Error("reload config failed", "error", err)
			return
		}
		logging.SetLevel(next.Log.Level)
		slog.Info("config hot-reloaded and validated successfully")

		hooksMu.Lock()
		hooks := append([]func(*Config){}, onReload...)
		hooksMu.Unlock()
		for _, hook := range hooks {
			hook(next)
		}
	})
	v.WatchConfig()

	return conf, nil
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		slog.Error("failed to marshal config for printing", "error", err)
		return
	}

	var configMap map[string]any
	if err := json.Unmarshal(data, &configMap); err != nil {
		slog.Error("failed to unmarshal config for masking", "error", err)
		return
	}

	mask(configMap)

	slog.Info("Current effective configuration", "config", configMap)
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "dsn", "key", "token"}

	for key, val := range configMap {
		if subMap, ok := val.(map[string]any); ok {
			mask(subMap)
			continue
		}
		for _, sensitiveKey := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitiveKey) {
				configMap[key] = "******"
				break
			}
		}
	}
}
