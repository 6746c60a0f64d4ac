package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config 全局配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
	Log      LogConfig      `mapstructure:"log"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Sync     SyncConfig     `mapstructure:"sync"`
}

// ServerConfig 服务配置
type ServerConfig struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // mysql, postgres
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"` // 仅 postgres
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 秒
	LogLevel        string `mapstructure:"log_level"`         // SQL日志级别: silent/error/warn/info
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWT   JWTConfig   `mapstructure:"jwt"`
	LDAP  LDAPConfig  `mapstructure:"ldap"`
	Local LocalConfig `mapstructure:"local"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	AccessTokenExpire  int    `mapstructure:"access_token_expire"`  // 秒
	RefreshTokenExpire int    `mapstructure:"refresh_token_expire"` // 秒
}

// LDAPConfig LDAP配置
type LDAPConfig struct {
	Enabled      bool           `mapstructure:"enabled"`
	Host         string         `mapstructure:"host"`
	Port         int            `mapstructure:"port"`
	UseSSL       bool           `mapstructure:"use_ssl"`
	BindDN       string         `mapstructure:"bind_dn"`
	BindPassword string         `mapstructure:"bind_password"`
	BaseDN       string         `mapstructure:"base_dn"`
	UserFilter   string         `mapstructure:"user_filter"`
	Attributes   LDAPAttributes `mapstructure:"attributes"`
}

// LDAPAttributes LDAP属性映射
type LDAPAttributes struct {
	Username    string `mapstructure:"username"`
	Email       string `mapstructure:"email"`
	DisplayName string `mapstructure:"display_name"`
}

// LocalConfig 本地用户配置
type LocalConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	AdminUsername string `mapstructure:"admin_username"` // 启动时若不存在则创建管理员
	AdminPassword string `mapstructure:"admin_password"`
}

// CryptoConfig 加密配置
type CryptoConfig struct {
	AESKey string `mapstructure:"aes_key"` // 32字节
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`  // debug, info, warn, error
	Format   string `mapstructure:"format"` // json, console
	Output   string `mapstructure:"output"` // stdout, file
	FilePath string `mapstructure:"file_path"`
}

// GitHubConfig GitHub API 配置
type GitHubConfig struct {
	BaseURL    string `mapstructure:"base_url"`    // 默认 https://api.github.com/
	APIVersion string `mapstructure:"api_version"` // X-GitHub-Api-Version
	Timeout    string `mapstructure:"timeout"`     // 单次请求超时, 如 30s
	PerPage    int    `mapstructure:"per_page"`
	MaxPages   int    `mapstructure:"max_pages"` // 0 表示不限制
}

// SyncConfig 定时同步配置
type SyncConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"` // Cron表达式(带秒)，定义同步执行时间
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v, err := read(configPath)
	if err != nil {
		return nil, err
	}

	// 解析配置
	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 设置全局配置
	GlobalConfig = config

	return config, nil
}

// Dump 以 YAML 输出合并默认值与环境变量后的配置, 敏感字段打码
func Dump(configPath string) ([]byte, error) {
	v, err := read(configPath)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(redact(v.AllSettings()))
}

func read(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	// 读取环境变量, 例如 DATABASE_PASSWORD 覆盖 database.password
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return v, nil
}

var sensitiveKeys = []string{"password", "secret", "aes_key"}

func redact(settings map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(settings))
	for k, val := range settings {
		switch typed := val.(type) {
		case map[string]interface{}:
			out[k] = redact(typed)
		default:
			if s, ok := val.(string); ok && s != "" && isSensitive(k) {
				out[k] = "******"
				continue
			}
			out[k] = val
		}
	}
	return out
}

func isSensitive(key string) bool {
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "gh-integration")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.conn_max_lifetime", 3600)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("auth.jwt.access_token_expire", 7200)
	v.SetDefault("auth.jwt.refresh_token_expire", 604800)
	v.SetDefault("auth.local.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("github.base_url", "https://api.github.com/")
	v.SetDefault("github.api_version", "2022-11-28")
	v.SetDefault("github.timeout", "30s")
	v.SetDefault("github.per_page", 100)
	v.SetDefault("sync.cron", "0 0 2 * * *")
}

// GetDSN 获取数据库DSN
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "postgres" {
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host,
			c.Port,
			c.Username,
			c.Password,
			c.Database,
			sslMode,
		)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// RequestTimeout 解析 GitHub 请求超时，非法值回退到 30 秒
func (c *GitHubConfig) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
