package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config 保存进程级配置（仅使用配置文件或内置默认值）。
// 字段提供开发友好的默认值；生产环境请在 config.yaml 中覆盖。
type Config struct {
	Env      string
	HTTPAddr string
	// BaseURL 是对外可达的基础地址，用于拼接邮件中的验证/重置链接。
	BaseURL  string
	MySQL    MySQLConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Mail     MailConfig
	S3       S3Config
	Limits   LimitConfig
	CORS     CORSConfig
	Security SecurityConfig
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
		db = "contactbook"
	}
	params := m.Params
	if params == "" {
		params = "parseTime=true&loc=Local&charset=utf8mb4,utf8"
	}
	// 注意：Password 可能为空（本地无密码开发），生产强烈建议设置强密码
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s", m.User, m.Password, host, port, db, params)
}

func (m MySQLConfig) DSNMasked() string {
	masked := m
	if masked.Password != "" {
		masked.Password = "******"
	}
	return masked.DSN()
}

type RedisConfig struct {
	Addr     string
	DB       int
	Password string
}

// JWTConfig 定义访问/刷新/邮件令牌的签名密钥与有效期。
type JWTConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	EmailTokenTTL   time.Duration
	// ResetTokenTTL 是 Redis 中一次性重置令牌的存活时间。
	ResetTokenTTL time.Duration
}

// MailConfig 定义出站 SMTP 参数；Host 为空时发送降级为仅记录日志。
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

func (m MailConfig) Addr() string {
	port := m.Port
	if port == 0 {
		port = 587
	}
	return fmt.Sprintf("%s:%d", m.Host, port)
}

// S3Config 定义头像存储桶的连接参数，兼容 MinIO 等自建 S3 服务。
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicBaseURL 为空时按 Endpoint/Bucket 拼接对象公开地址。
	PublicBaseURL string
}

type LimitConfig struct {
	LoginPerMinute  int
	SignupPerMinute int
	ForgotPerMinute int
	// 时间窗口（默认 1m）
	Window time.Duration
}

// CORSConfig 控制跨域访问；AllowedOrigins 含 "*" 时放行任意来源。
type CORSConfig struct {
	Enabled        bool
	AllowedOrigins []string
}

type SecurityConfig struct {
	HSTS struct {
		Enabled           bool
		MaxAgeSeconds     int
		IncludeSubdomains bool
	}
}

// Load 生成配置：先使用内置默认值，再用同目录的配置文件（config.yaml/yml/json）覆盖。
// 默认：MySQL 127.0.0.1:3306 用户 root/123456；Redis 127.0.0.1:6379 无密码。
func Load() Config {
	// 1) 默认值（本地开发可直接运行）
	cfg := Config{
		Env:      "dev",
		HTTPAddr: ":8080",
		BaseURL:  "http://localhost:8080",
		MySQL:    MySQLConfig{Host: "127.0.0.1", Port: 3306, User: "root", Password: "123456", DBName: "contactbook", Params: "parseTime=true&loc=Local&charset=utf8mb4,utf8"},
		Redis:    RedisConfig{Addr: "127.0.0.1:6379", DB: 0, Password: ""},
		JWT: JWTConfig{
			Secret:          "dev-jwt-secret-change-me",
			Issuer:          "contactbook",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
			EmailTokenTTL:   24 * time.Hour,
			ResetTokenTTL:   time.Hour,
		},
		Mail:   MailConfig{Port: 587, From: "noreply@example.com", FromName: "Contactbook"},
		S3:     S3Config{Region: "us-east-1", Bucket: "contactbook-avatars"},
		Limits: LimitConfig{LoginPerMinute: 10, SignupPerMinute: 5, ForgotPerMinute: 3, Window: time.Minute},
		CORS:   CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
		Security: func() SecurityConfig {
			var s SecurityConfig
			s.HSTS.Enabled = true
			s.HSTS.MaxAgeSeconds = 31536000
			s.HSTS.IncludeSubdomains = true
			return s
		}(),
	}

	// 2) 配置文件覆盖（若存在）
	if path := FirstExisting("config.yaml", "config.yml", "config.json"); path != "" {
		_ = loadFromFile(path, &cfg)
	}
	return cfg
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
	fm.apply(cfg)
	return nil
}

// --- 配置文件模型与合并逻辑 ---

type fileModel struct {
	Env      string        `yaml:"env" json:"env"`
	HTTPAddr string        `yaml:"http_addr" json:"http_addr"`
	BaseURL  string        `yaml:"base_url" json:"base_url"`
	MySQL    *fileMySQL    `yaml:"mysql" json:"mysql"`
	Redis    *fileRedis    `yaml:"redis" json:"redis"`
	JWT      *fileJWT      `yaml:"jwt" json:"jwt"`
	Mail     *fileMail     `yaml:"mail" json:"mail"`
	S3       *fileS3       `yaml:"s3" json:"s3"`
	Limits   *fileLimits   `yaml:"limits" json:"limits"`
	CORS     *fileCORS     `yaml:"cors" json:"cors"`
	Security *fileSecurity `yaml:"security" json:"security"`
}

type fileMySQL struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	DBName   string `yaml:"db" json:"db"`
	Params   string `yaml:"params" json:"params"`
}
type fileRedis struct {
	Addr     string `yaml:"addr" json:"addr"`
	DB       int    `yaml:"db" json:"db"`
	Password string `yaml:"password" json:"password"`
}
type fileJWT struct {
	Secret          string `yaml:"secret" json:"secret"`
	Issuer          string `yaml:"issuer" json:"issuer"`
	AccessTokenTTL  string `yaml:"access_token_ttl" json:"access_token_ttl"`
	RefreshTokenTTL string `yaml:"refresh_token_ttl" json:"refresh_token_ttl"`
	EmailTokenTTL   string `yaml:"email_token_ttl" json:"email_token_ttl"`
	ResetTokenTTL   string `yaml:"reset_token_ttl" json:"reset_token_ttl"`
}
type fileMail struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	From     string `yaml:"from" json:"from"`
	FromName string `yaml:"from_name" json:"from_name"`
}
type fileS3 struct {
	Endpoint      string `yaml:"endpoint" json:"endpoint"`
	Region        string `yaml:"region" json:"region"`
	Bucket        string `yaml:"bucket" json:"bucket"`
	AccessKey     string `yaml:"access_key" json:"access_key"`
	SecretKey     string `yaml:"secret_key" json:"secret_key"`
	PublicBaseURL string `yaml:"public_base_url" json:"public_base_url"`
}
type fileLimits struct {
	LoginPerMinute  int    `yaml:"login_per_minute" json:"login_per_minute"`
	SignupPerMinute int    `yaml:"signup_per_minute" json:"signup_per_minute"`
	ForgotPerMinute int    `yaml:"forgot_per_minute" json:"forgot_per_minute"`
	Window          string `yaml:"window" json:"window"`
}
type fileCORS struct {
	Enabled        *bool    `yaml:"enabled" json:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}
type fileSecurity struct {
	HSTS struct {
		Enabled           *bool `yaml:"enabled" json:"enabled"`
		MaxAge            int   `yaml:"max_age" json:"max_age"`
		IncludeSubdomains *bool `yaml:"include_subdomains" json:"include_subdomains"`
	} `yaml:"hsts" json:"hsts"`
}

func (fm *fileModel) apply(cfg *Config) {
	if fm.Env != "" {
		cfg.Env = fm.Env
	}
	if fm.HTTPAddr != "" {
		cfg.HTTPAddr = fm.HTTPAddr
	}
	if fm.BaseURL != "" {
		cfg.BaseURL = fm.BaseURL
	}
	if fm.MySQL != nil {
		if fm.MySQL.Host != "" {
			cfg.MySQL.Host = fm.MySQL.Host
		}
		if fm.MySQL.Port != 0 {
			cfg.MySQL.Port = fm.MySQL.Port
		}
		if fm.MySQL.User != "" {
			cfg.MySQL.User = fm.MySQL.User
		}
		if fm.MySQL.Password != "" {
			cfg.MySQL.Password = fm.MySQL.Password
		}
		if fm.MySQL.DBName != "" {
			cfg.MySQL.DBName = fm.MySQL.DBName
		}
		if fm.MySQL.Params != "" {
			cfg.MySQL.Params = fm.MySQL.Params
		}
	}
	if fm.Redis != nil {
		if fm.Redis.Addr != "" {
			cfg.Redis.Addr = fm.Redis.Addr
		}
		if fm.Redis.DB != 0 {
			cfg.Redis.DB = fm.Redis.DB
		}
		if fm.Redis.Password != "" {
			cfg.Redis.Password = fm.Redis.Password
		}
	}
	if fm.JWT != nil {
		if fm.JWT.Secret != "" {
			cfg.JWT.Secret = fm.JWT.Secret
		}
		if fm.JWT.Issuer != "" {
			cfg.JWT.Issuer = fm.JWT.Issuer
		}
		if fm.JWT.AccessTokenTTL != "" {
			if d, err := time.ParseDuration(fm.JWT.AccessTokenTTL); err == nil {
				cfg.JWT.AccessTokenTTL = d
			}
		}
		if fm.JWT.RefreshTokenTTL != "" {
			if d, err := time.ParseDuration(fm.JWT.RefreshTokenTTL); err == nil {
				cfg.JWT.RefreshTokenTTL = d
			}
		}
		if fm.JWT.EmailTokenTTL != "" {
			if d, err := time.ParseDuration(fm.JWT.EmailTokenTTL); err == nil {
				cfg.JWT.EmailTokenTTL = d
			}
		}
		if fm.JWT.ResetTokenTTL != "" {
			if d, err := time.ParseDuration(fm.JWT.ResetTokenTTL); err == nil {
				cfg.JWT.ResetTokenTTL = d
			}
		}
	}
	if fm.Mail != nil {
		if fm.Mail.Host != "" {
			cfg.Mail.Host = fm.Mail.Host
		}
		if fm.Mail.Port != 0 {
			cfg.Mail.Port = fm.Mail.Port
		}
		if fm.Mail.Username != "" {
			cfg.Mail.Username = fm.Mail.Username
		}
		if fm.Mail.Password != "" {
			cfg.Mail.Password = fm.Mail.Password
		}
		if fm.Mail.From != "" {
			cfg.Mail.From = fm.Mail.From
		}
		if fm.Mail.FromName != "" {
			cfg.Mail.FromName = fm.Mail.FromName
		}
	}
	if fm.S3 != nil {
		if fm.S3.Endpoint != "" {
			cfg.S3.Endpoint = fm.S3.Endpoint
		}
		if fm.S3.Region != "" {
			cfg.S3.Region = fm.S3.Region
		}
		if fm.S3.Bucket != "" {
			cfg.S3.Bucket = fm.S3.Bucket
		}
		if fm.S3.AccessKey != "" {
			cfg.S3.AccessKey = fm.S3.AccessKey
		}
		if fm.S3.SecretKey != "" {
			cfg.S3.SecretKey = fm.S3.SecretKey
		}
		if fm.S3.PublicBaseURL != "" {
			cfg.S3.PublicBaseURL = fm.S3.PublicBaseURL
		}
	}
	if fm.Limits != nil {
		if fm.Limits.LoginPerMinute != 0 {
			cfg.Limits.LoginPerMinute = fm.Limits.LoginPerMinute
		}
		if fm.Limits.SignupPerMinute != 0 {
			cfg.Limits.SignupPerMinute = fm.Limits.SignupPerMinute
		}
		if fm.Limits.ForgotPerMinute != 0 {
			cfg.Limits.ForgotPerMinute = fm.Limits.ForgotPerMinute
		}
		if fm.Limits.Window != "" {
			if d, err := time.ParseDuration(fm.Limits.Window); err == nil {
				cfg.Limits.Window = d
			}
		}
	}
	if fm.CORS != nil {
		if fm.CORS.Enabled != nil {
			cfg.CORS.Enabled = *fm.CORS.Enabled
		}
		if len(fm.CORS.AllowedOrigins) > 0 {
			cfg.CORS.AllowedOrigins = fm.CORS.AllowedOrigins
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
