package config

import (
	"strings"
	"time"

	"github.com/SlpAus/stoic-trainer-backend/pkg/logger"
	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
	Mentor   MentorConfig   `mapstructure:"mentor"`
	Logger   logger.Config  `mapstructure:"logger"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	// Driver 可选 "sqlite" 或 "postgres"
	Driver   string         `mapstructure:"driver"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// SqliteConfig 定义了SQLite的配置
type SqliteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig 定义了PostgreSQL的配置
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GameConfig 定义了玩法资源相关的配置
type GameConfig struct {
	// MaxEnergy 是每日可恢复的最大能量值
	MaxEnergy int `mapstructure:"maxEnergy"`
	// MentorCooldownSeconds 是两次导师请求之间的最小间隔（秒）
	MentorCooldownSeconds int `mapstructure:"mentorCooldownSeconds"`
	// MentorDailyLimit 是每个用户每天可发起的导师请求上限
	MentorDailyLimit int `mapstructure:"mentorDailyLimit"`
	// AcademyDailyLimit 是每个用户每天可完成的学院文章上限
	AcademyDailyLimit int `mapstructure:"academyDailyLimit"`
	// SyncCodeTTLMinutes 是同步码的有效期（分钟）
	SyncCodeTTLMinutes int `mapstructure:"syncCodeTTLMinutes"`
	// SyncCodeLength 是同步码的位数
	SyncCodeLength int `mapstructure:"syncCodeLength"`
}

// MentorCooldown 返回导师冷却时长。
func (g GameConfig) MentorCooldown() time.Duration {
	return time.Duration(g.MentorCooldownSeconds) * time.Second
}

// SyncCodeTTL 返回同步码的有效时长。
func (g GameConfig) SyncCodeTTL() time.Duration {
	return time.Duration(g.SyncCodeTTLMinutes) * time.Minute
}

// MentorConfig 定义了AI导师相关的配置
type MentorConfig struct {
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"maxTokens"`
	// APIKeyEnv 是存放OpenAI密钥的环境变量名
	APIKeyEnv string `mapstructure:"apiKeyEnv"`
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 3. 对缺省项给出与参考行为一致的默认值
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite.path", "trainer.db")
	v.SetDefault("game.maxEnergy", 5)
	v.SetDefault("game.mentorCooldownSeconds", 5)
	v.SetDefault("game.mentorDailyLimit", 20)
	v.SetDefault("game.academyDailyLimit", 5)
	v.SetDefault("game.syncCodeTTLMinutes", 10)
	v.SetDefault("game.syncCodeLength", 6)
	v.SetDefault("mentor.model", "gpt-4o-mini")
	v.SetDefault("mentor.temperature", 0.7)
	v.SetDefault("mentor.apiKeyEnv", "OPENAI_API_KEY")
	v.SetDefault("logger.level", "info")

	// 4. 设置环境变量支持
	// 允许通过环境变量覆盖配置，例如 SERVER_ADDRESS=:8888
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 5. 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时依赖默认值与环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// 6. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// 7. 将加载的配置赋值给全局变量
	Cfg = &cfg

	return Cfg, nil
}
