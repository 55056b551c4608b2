package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	LLM    LLMConfig    `mapstructure:"llm"`
	S3     S3Settings   `mapstructure:"s3"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type LLMConfig struct {
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url"`
	Model  string `mapstructure:"model"`
}

type S3Settings struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
}

// DSN returns the postgres connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Addr returns the redis address.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load reads configuration from the environment with sane defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("llm.api_url", "https://api.deepseek.com/v1/chat/completions")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("s3.bucket", "chefcognito-ingredient-photos")
	v.SetDefault("s3.region", "us-east-1")

	v.AutomaticEnv()

	// Explicit env bindings so SERVER_PORT etc. override the dotted keys.
	bindings := map[string]string{
		"server.host": "SERVER_HOST",
		"server.port": "SERVER_PORT",
		"db.host":     "DB_HOST",
		"db.port":     "DB_PORT",
		"db.user":     "DB_USER",
		"db.password": "DB_PASSWORD",
		"db.name":     "DB_NAME",
		"db.sslmode":  "DB_SSL_MODE",
		"redis.host":  "REDIS_HOST",
		"redis.port":  "REDIS_PORT",
		"redis.password": "REDIS_PASSWORD",
		"redis.db":    "REDIS_DB",
		"jwt.secret":  "JWT_SECRET",
		"llm.api_key": "DEEPSEEK_API_KEY",
		"llm.api_url": "DEEPSEEK_API_URL",
		"llm.model":   "DEEPSEEK_MODEL",
		"s3.bucket":   "S3_BUCKET_NAME",
		"s3.region":   "AWS_REGION",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the fields required to boot are present.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DB.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("DEEPSEEK_API_KEY is required")
	}
	return nil
}
