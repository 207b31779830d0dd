package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// DefaultJWTSecret 仅用于本地开发；生产环境（env=prod）禁止使用。
const DefaultJWTSecret = "dev-jwt-secret-change-me"

// Config 保存进程级配置（配置文件 + 内置默认值）。
// 字段提供开发友好的默认值；生产环境请在 config.yaml 中覆盖。
type Config struct {
	Env        string
	HTTPAddr   string
	APIPrefix  string
	Log        LogConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Limits     LimitConfig
	Pagination PaginationConfig
	Security   SecurityConfig
}

type LogConfig struct {
	// 取值：debug、info、warn、error
	Level string
}

// DatabaseConfig 选择存储驱动并保存各驱动的连接参数。
type DatabaseConfig struct {
	// 取值：mysql、postgres、sqlite
	Driver          string
	MySQL           MySQLConfig
	Postgres        PostgresConfig
	SQLite          SQLiteConfig
	AutoMigrate     bool
	Debug           bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	Params   string
}

func (m MySQLConfig) DSN() string {
	port := m.Port
	if port == 0 {
		port = 3306
	}
	host := m.Host
	if host == "" {
		host = "127.0.0.1"
	}
	db := m.DBName
	if db == "" {
		db = "realworld"
	}
	params := m.Params
	if params == "" {
		params = "parseTime=true&loc=Local&charset=utf8mb4,utf8"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", m.User, m.Password, host, port, db, params)
}

func (m MySQLConfig) DSNMasked() string {
	masked := m
	if masked.Password != "" {
		masked.Password = "******"
	}
	return masked.DSN()
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (p PostgresConfig) DSN() string {
	port := p.Port
	if port == 0 {
		port = 5432
	}
	host := p.Host
	if host == "" {
		host = "127.0.0.1"
	}
	db := p.DBName
	if db == "" {
		db = "realworld"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", host, port, p.User, p.Password, db, ssl)
}

func (p PostgresConfig) DSNMasked() string {
	masked := p
	if masked.Password != "" {
		masked.Password = "******"
	}
	return masked.DSN()
}

// SQLiteConfig 用于本地开发与测试；Path 为 ":memory:" 时使用进程内数据库。
type SQLiteConfig struct {
	Path string
}

// DSN 始终开启外键约束，保证删除文章时评论与收藏的级联删除生效。
func (s SQLiteConfig) DSN() string {
	path := s.Path
	if path == "" {
		path = "realworld.db"
	}
	if path == ":memory:" {
		return "file::memory:?cache=shared&_pragma=foreign_keys(1)"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// DSNMasked 返回当前驱动的连接串（口令已脱敏），用于启动日志。
func (d DatabaseConfig) DSNMasked() string {
	switch d.Driver {
	case "postgres":
		return d.Postgres.DSNMasked()
	case "sqlite":
		return d.SQLite.DSN()
	default:
		return d.MySQL.DSNMasked()
	}
}

type RedisConfig struct {
	// 关闭时限流回退为进程内令牌桶
	Enable   bool
	Addr     string
	DB       int
	Password string
}

type JWTConfig struct {
	Secret string
	// 令牌有效期，默认 60 天
	TTL time.Duration
}

type CORSConfig struct {
	// 为空表示允许任意来源
	AllowedOrigins []string
}

type LimitConfig struct {
	LoginPerMinute    int
	RegisterPerMinute int
	Window            time.Duration
}

type PaginationConfig struct {
	DefaultLimit int
	MaxLimit     int
}

type SecurityConfig struct {
	HSTS struct {
		Enabled           bool
		MaxAgeSeconds     int
		IncludeSubdomains bool
	}
}

// Default 返回内置默认配置（本地开发可直接运行）。
func Default() Config {
	cfg := Config{
		Env:       "dev",
		HTTPAddr:  ":8000",
		APIPrefix: "/api",
		Log:       LogConfig{Level: "info"},
		Database: DatabaseConfig{
			Driver:          "mysql",
			MySQL:           MySQLConfig{Host: "127.0.0.1", Port: 3306, User: "root", Password: "password", DBName: "realworld", Params: "parseTime=true&loc=Local&charset=utf8mb4,utf8"},
			Postgres:        PostgresConfig{Host: "127.0.0.1", Port: 5432, User: "postgres", DBName: "realworld", SSLMode: "disable"},
			SQLite:          SQLiteConfig{Path: "realworld.db"},
			AutoMigrate:     true,
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis:      RedisConfig{Enable: false, Addr: "127.0.0.1:6379", DB: 0},
		JWT:        JWTConfig{Secret: DefaultJWTSecret, TTL: 60 * 24 * time.Hour},
		Limits:     LimitConfig{LoginPerMinute: 10, RegisterPerMinute: 5, Window: time.Minute},
		Pagination: PaginationConfig{DefaultLimit: 20, MaxLimit: 100},
	}
	cfg.Security.HSTS.Enabled = true
	cfg.Security.HSTS.MaxAgeSeconds = 31536000
	cfg.Security.HSTS.IncludeSubdomains = true
	return cfg
}

// Load 生成配置：先使用内置默认值，再用配置文件覆盖。
// path 为空时按顺序查找工作目录下的 config.yaml/config.yml/config.json；
// 显式指定的文件不存在或解析失败时返回错误。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if p := FirstExisting("config.yaml", "config.yml", "config.json"); p != "" {
			if err := loadFromFile(p, &cfg); err != nil {
				return cfg, fmt.Errorf("load %s: %w", p, err)
			}
		}
		return cfg, nil
	}
	if err := loadFromFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// Validate 执行启动前的基线检查；生产环境禁止默认密钥与弱口令。
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must be set")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be positive")
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("api_prefix must start with '/': %q", c.APIPrefix)
	}
	for _, o := range c.CORS.AllowedOrigins {
		if u, err := url.Parse(o); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid cors origin %q", o)
		}
	}
	if c.Env == "prod" {
		if c.JWT.Secret == DefaultJWTSecret || len(c.JWT.Secret) < 32 {
			return errors.New("insecure jwt.secret in prod; configure at least 32 random bytes")
		}
		if c.Database.Driver == "mysql" {
			p := c.Database.MySQL.Password
			if p == "" || p == "password" || p == "123456" {
				return errors.New("insecure mysql password in prod; configure database.mysql.password")
			}
		}
		if c.Database.Driver == "sqlite" {
			return errors.New("sqlite driver is for development only")
		}
	}
	return nil
}

// 配置文件格式：YAML 或 JSON。仅非零值会覆盖现有字段。
func loadFromFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var fm fileModel
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(b, &fm); err != nil {
			return err
		}
	} else if ext == ".json" || ext == "" {
		if err := json.Unmarshal(b, &fm); err != nil {
			return err
		}
	} else {
		return errors.New("unsupported config file format")
	}
	return fm.apply(cfg)
}

// --- 配置文件模型与合并逻辑 ---

type fileModel struct {
	Env        string          `yaml:"env" json:"env"`
	HTTPAddr   string          `yaml:"http_addr" json:"http_addr"`
	APIPrefix  string          `yaml:"api_prefix" json:"api_prefix"`
	Log        *fileLog        `yaml:"log" json:"log"`
	Database   *fileDatabase   `yaml:"database" json:"database"`
	Redis      *fileRedis      `yaml:"redis" json:"redis"`
	JWT        *fileJWT        `yaml:"jwt" json:"jwt"`
	CORS       *fileCORS       `yaml:"cors" json:"cors"`
	Limits     *fileLimits     `yaml:"limits" json:"limits"`
	Pagination *filePagination `yaml:"pagination" json:"pagination"`
	Security   *fileSecurity   `yaml:"security" json:"security"`
}

type fileLog struct {
	Level string `yaml:"level" json:"level"`
}
type fileDatabase struct {
	Driver          string        `yaml:"driver" json:"driver"`
	MySQL           *fileMySQL    `yaml:"mysql" json:"mysql"`
	Postgres        *filePostgres `yaml:"postgres" json:"postgres"`
	SQLite          *fileSQLite   `yaml:"sqlite" json:"sqlite"`
	AutoMigrate     *bool         `yaml:"auto_migrate" json:"auto_migrate"`
	Debug           *bool         `yaml:"debug" json:"debug"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime string        `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}
type fileMySQL struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	DBName   string `yaml:"db" json:"db"`
	Params   string `yaml:"params" json:"params"`
}
type filePostgres struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	DBName   string `yaml:"db" json:"db"`
	SSLMode  string `yaml:"sslmode" json:"sslmode"`
}
type fileSQLite struct {
	Path string `yaml:"path" json:"path"`
}
type fileRedis struct {
	Enable   *bool  `yaml:"enable" json:"enable"`
	Addr     string `yaml:"addr" json:"addr"`
	DB       int    `yaml:"db" json:"db"`
	Password string `yaml:"password" json:"password"`
}
type fileJWT struct {
	Secret string `yaml:"secret" json:"secret"`
	TTL    string `yaml:"ttl" json:"ttl"`
}
type fileCORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}
type fileLimits struct {
	LoginPerMinute    int    `yaml:"login_per_minute" json:"login_per_minute"`
	RegisterPerMinute int    `yaml:"register_per_minute" json:"register_per_minute"`
	Window            string `yaml:"window" json:"window"`
}
type filePagination struct {
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	MaxLimit     int `yaml:"max_limit" json:"max_limit"`
}
type fileSecurity struct {
	HSTS struct {
		Enabled           *bool `yaml:"enabled" json:"enabled"`
		MaxAge            int   `yaml:"max_age" json:"max_age"`
		IncludeSubdomains *bool `yaml:"include_subdomains" json:"include_subdomains"`
	} `yaml:"hsts" json:"hsts"`
}

// parseDuration 解析时长字段；支持 Go 时长语法以及 "60d" 这样的天数写法。
func parseDuration(field, v string) (time.Duration, error) {
	if strings.HasSuffix(v, "d") {
		var days int
		if _, err := fmt.Sscanf(strings.TrimSuffix(v, "d"), "%d", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func (fm *fileModel) apply(cfg *Config) error {
	if fm.Env != "" {
		cfg.Env = fm.Env
	}
	if fm.HTTPAddr != "" {
		cfg.HTTPAddr = fm.HTTPAddr
	}
	if fm.APIPrefix != "" {
		cfg.APIPrefix = strings.TrimRight(fm.APIPrefix, "/")
	}
	if fm.Log != nil && fm.Log.Level != "" {
		cfg.Log.Level = fm.Log.Level
	}
	if db := fm.Database; db != nil {
		if db.Driver != "" {
			cfg.Database.Driver = strings.ToLower(db.Driver)
		}
		if m := db.MySQL; m != nil {
			if m.Host != "" {
				cfg.Database.MySQL.Host = m.Host
			}
			if m.Port != 0 {
				cfg.Database.MySQL.Port = m.Port
			}
			if m.User != "" {
				cfg.Database.MySQL.User = m.User
			}
			if m.Password != "" {
				cfg.Database.MySQL.Password = m.Password
			}
			if m.DBName != "" {
				cfg.Database.MySQL.DBName = m.DBName
			}
			if m.Params != "" {
				cfg.Database.MySQL.Params = m.Params
			}
		}
		if p := db.Postgres; p != nil {
			if p.Host != "" {
				cfg.Database.Postgres.Host = p.Host
			}
			if p.Port != 0 {
				cfg.Database.Postgres.Port = p.Port
			}
			if p.User != "" {
				cfg.Database.Postgres.User = p.User
			}
			if p.Password != "" {
				cfg.Database.Postgres.Password = p.Password
			}
			if p.DBName != "" {
				cfg.Database.Postgres.DBName = p.DBName
			}
			if p.SSLMode != "" {
				cfg.Database.Postgres.SSLMode = p.SSLMode
			}
		}
		if db.SQLite != nil && db.SQLite.Path != "" {
			cfg.Database.SQLite.Path = db.SQLite.Path
		}
		if db.AutoMigrate != nil {
			cfg.Database.AutoMigrate = *db.AutoMigrate
		}
		if db.Debug != nil {
			cfg.Database.Debug = *db.Debug
		}
		if db.MaxOpenConns != 0 {
			cfg.Database.MaxOpenConns = db.MaxOpenConns
		}
		if db.MaxIdleConns != 0 {
			cfg.Database.MaxIdleConns = db.MaxIdleConns
		}
		if db.ConnMaxLifetime != "" {
			d, err := parseDuration("database.conn_max_lifetime", db.ConnMaxLifetime)
			if err != nil {
				return err
			}
			cfg.Database.ConnMaxLifetime = d
		}
	}
	if r := fm.Redis; r != nil {
		if r.Enable != nil {
			cfg.Redis.Enable = *r.Enable
		}
		if r.Addr != "" {
			cfg.Redis.Addr = r.Addr
		}
		if r.DB != 0 {
			cfg.Redis.DB = r.DB
		}
		if r.Password != "" {
			cfg.Redis.Password = r.Password
		}
	}
	if j := fm.JWT; j != nil {
		if j.Secret != "" {
			cfg.JWT.Secret = j.Secret
		}
		if j.TTL != "" {
			d, err := parseDuration("jwt.ttl", j.TTL)
			if err != nil {
				return err
			}
			cfg.JWT.TTL = d
		}
	}
	if fm.CORS != nil && len(fm.CORS.AllowedOrigins) > 0 {
		cfg.CORS.AllowedOrigins = fm.CORS.AllowedOrigins
	}
	if l := fm.Limits; l != nil {
		if l.LoginPerMinute != 0 {
			cfg.Limits.LoginPerMinute = l.LoginPerMinute
		}
		if l.RegisterPerMinute != 0 {
			cfg.Limits.RegisterPerMinute = l.RegisterPerMinute
		}
		if l.Window != "" {
			d, err := parseDuration("limits.window", l.Window)
			if err != nil {
				return err
			}
			cfg.Limits.Window = d
		}
	}
	if p := fm.Pagination; p != nil {
		if p.DefaultLimit > 0 {
			cfg.Pagination.DefaultLimit = p.DefaultLimit
		}
		if p.MaxLimit > 0 {
			cfg.Pagination.MaxLimit = p.MaxLimit
		}
	}
	if fm.Security != nil {
		if fm.Security.HSTS.Enabled != nil {
			cfg.Security.HSTS.Enabled = *fm.Security.HSTS.Enabled
		}
		if fm.Security.HSTS.MaxAge != 0 {
			cfg.Security.HSTS.MaxAgeSeconds = fm.Security.HSTS.MaxAge
		}
		if fm.Security.HSTS.IncludeSubdomains != nil {
			cfg.Security.HSTS.IncludeSubdomains = *fm.Security.HSTS.IncludeSubdomains
		}
	}
	return nil
}

// FirstExisting 按顺序返回第一个存在的文件路径；若都不存在则返回空字符串。
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
