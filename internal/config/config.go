package config

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host  string // 监听地址，默认 "0.0.0.0"
	Port  int    // 监听端口，默认 8080
	Debug bool   // 调试模式：错误页展示拒绝原因，生产环境必须关闭
}

// SiteConfig 定义站点身份配置（多租户部署时区分站点）
type SiteConfig struct {
	Name         string // 站点名称，用于邮件主题 "[站点名] ..."
	BaseURL      string // 站点外部访问地址，用于拼接确认链接
	SupportEmail string // 支持联系邮箱，展示在确认邮件正文中
}

// TokenConfig 定义签名令牌编解码器配置
type TokenConfig struct {
	Secret string // 签名密钥，必须至少 32 字符
	Salt   string // 额外加盐值，可留空
}

// FormConfig 定义表单安全校验配置
type FormConfig struct {
	TimestampWindow time.Duration // 表单时间戳有效窗口，默认 7320 秒（2 小时 + 余量）
	RateLimit       int           // 单个 IP 在窗口内允许的提交次数
	RateWindow      time.Duration // 提交限流窗口
}

// SMTPConfig 定义外发邮件的 SMTP 客户端配置
type SMTPConfig struct {
	Addr        string // SMTP 服务器地址，格式 "host:port"
	Username    string // SMTP 认证用户名，留空表示匿名
	Password    string // SMTP 认证密码
	From        string // 默认发件人地址
	DisableAuth bool   // 为真时跳过 SASL 认证（本地调试用）
}

// NotifyConfig 定义管理员通知收件人配置
type NotifyConfig struct {
	To     []string       // 显式通知列表（逗号分隔配置），非空时优先使用
	Admins []mail.Address // 站点管理员列表，格式 "Name <email>, ..."
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和更完整的调用栈
}

// DatabaseConfig 定义数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// RedisConfig 定义 Redis 缓存服务配置（用于提交限流计数）
type RedisConfig struct {
	Address  string // Redis 服务地址，留空表示不启用 Redis
	Password string // Redis 认证密码
	DB       int    // Redis 数据库编号，默认 0
}

// JWTConfig 定义管理 API 的 JWT 认证配置
type JWTConfig struct {
	Secret        string        // JWT 签名密钥，缺省沿用 token.secret
	Issuer        string        // JWT 签发者标识，默认 "inviteme"
	AccessExpiry  time.Duration // 访问令牌有效期，默认 15 分钟
	RefreshExpiry time.Duration // 刷新令牌有效期，默认 7 天
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server   ServerConfig
	Site     SiteConfig
	Token    TokenConfig
	Form     FormConfig
	SMTP     SMTPConfig
	Notify   NotifyConfig
	CORS     CORSConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: INVITEME_
// 例如: INVITEME_TOKEN_SECRET, INVITEME_SMTP_ADDR
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("inviteme")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.debug", false)
	viper.SetDefault("site.name", "inviteme")
	viper.SetDefault("site.base_url", "http://localhost:8080")
	viper.SetDefault("site.support_email", "")
	viper.SetDefault("token.secret", "")
	viper.SetDefault("token.salt", "")
	viper.SetDefault("form.timestamp_window", "7320s")
	viper.SetDefault("form.rate_limit", 10)
	viper.SetDefault("form.rate_window", "1h")
	viper.SetDefault("smtp.addr", "localhost:25")
	viper.SetDefault("smtp.username", "")
	viper.SetDefault("smtp.password", "")
	viper.SetDefault("smtp.from", "")
	viper.SetDefault("smtp.disable_auth", false)
	viper.SetDefault("notify.to", "")
	viper.SetDefault("notify.admins", "")
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("database.type", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("redis.address", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("jwt.issuer", "inviteme")
	viper.SetDefault("jwt.access_expiry", "15m")
	viper.SetDefault("jwt.refresh_expiry", "168h")

	tokenSecret := viper.GetString("token.secret")

	// 安全检查：签名密钥必须显式配置且足够长
	if tokenSecret == "" {
		return nil, fmt.Errorf("SECURITY ERROR: token secret is required. Please set INVITEME_TOKEN_SECRET environment variable")
	}
	if len(tokenSecret) < 32 {
		return nil, fmt.Errorf("SECURITY ERROR: token secret must be at least 32 characters long")
	}

	fromAddr := viper.GetString("smtp.from")
	if fromAddr == "" {
		return nil, fmt.Errorf("smtp.from is required (default outbound sender address)")
	}
	if _, err := mail.ParseAddress(fromAddr); err != nil {
		return nil, fmt.Errorf("invalid smtp.from address: %w", err)
	}

	timestampWindow, err := time.ParseDuration(viper.GetString("form.timestamp_window"))
	if err != nil {
		return nil, fmt.Errorf("invalid form.timestamp_window: %w", err)
	}

	rateWindow, err := time.ParseDuration(viper.GetString("form.rate_window"))
	if err != nil {
		rateWindow = time.Hour
	}

	rateLimit := viper.GetInt("form.rate_limit")
	if rateLimit <= 0 {
		rateLimit = 10
	}

	notifyTo := parseList(viper.GetString("notify.to"))

	admins, err := parseAdmins(viper.GetString("notify.admins"))
	if err != nil {
		return nil, fmt.Errorf("invalid notify.admins: %w", err)
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("jwt.access_expiry"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	refreshExpiry, err := time.ParseDuration(viper.GetString("jwt.refresh_expiry"))
	if err != nil {
		refreshExpiry = 7 * 24 * time.Hour
	}

	jwtSecret := viper.GetString("jwt.secret")
	if jwtSecret == "" {
		// 单密钥部署：管理 API 沿用令牌签名密钥
		jwtSecret = tokenSecret
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:  viper.GetString("server.host"),
			Port:  viper.GetInt("server.port"),
			Debug: viper.GetBool("server.debug"),
		},
		Site: SiteConfig{
			Name:         viper.GetString("site.name"),
			BaseURL:      strings.TrimRight(viper.GetString("site.base_url"), "/"),
			SupportEmail: viper.GetString("site.support_email"),
		},
		Token: TokenConfig{
			Secret: tokenSecret,
			Salt:   viper.GetString("token.salt"),
		},
		Form: FormConfig{
			TimestampWindow: timestampWindow,
			RateLimit:       rateLimit,
			RateWindow:      rateWindow,
		},
		SMTP: SMTPConfig{
			Addr:        viper.GetString("smtp.addr"),
			Username:    viper.GetString("smtp.username"),
			Password:    viper.GetString("smtp.password"),
			From:        fromAddr,
			DisableAuth: viper.GetBool("smtp.disable_auth"),
		},
		Notify: NotifyConfig{
			To:     notifyTo,
			Admins: admins,
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
		},
		Database: DatabaseConfig{
			Type:            viper.GetString("database.type"),
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:        jwtSecret,
			Issuer:        viper.GetString("jwt.issuer"),
			AccessExpiry:  accessExpiry,
			RefreshExpiry: refreshExpiry,
		},
	}

	return cfg, nil
}

// parseAdmins 解析 "Name <email>, Name2 <email2>" 格式的管理员列表
func parseAdmins(value string) ([]mail.Address, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	list, err := mail.ParseAddressList(value)
	if err != nil {
		return nil, err
	}
	admins := make([]mail.Address, 0, len(list))
	for _, addr := range list {
		admins = append(admins, *addr)
	}
	return admins, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env（从子目录运行时）
//
// 注意：已存在的环境变量优先级更高，不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
