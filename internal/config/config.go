package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// 署名鍵の最小長（HS256）
const minJWTSecretLen = 32

// Configはアプリ全体の設定。起動時に一度だけ作り、値渡しで使う。
type Config struct {
	Port  string `env:"PORT" envDefault:"8080"`  // サーバーポート
	GoEnv string `env:"GO_ENV" envDefault:"dev"` // dev/prod

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"` // postgres/memory
	DatabaseURL string `env:"DATABASE_URL"`                       // DB接続文字列

	JWTIssuer      string        `env:"JWT_ISSUER"`                    // iss
	JWTAudience    string        `env:"JWT_AUDIENCE"`                  // aud
	JWTSecret      string        `env:"JWT_SECRET"`                    // HS256署名シークレット
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`

	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	FingerprintAPIKey  string        `env:"FINGERPRINT_API_KEY"`
	FingerprintAPIURL  string        `env:"FINGERPRINT_API_URL" envDefault:"https://api.fpjs.io"`
	FingerprintTimeout time.Duration `env:"FINGERPRINT_TIMEOUT" envDefault:"5s"`

	CookieSecure bool    `env:"COOKIE_SECURE" envDefault:"true"`
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS" envDefault:"10"` // 0なら無効
	TrustProxy   bool    `env:"TRUST_PROXY" envDefault:"false"` // trueならX-Forwarded-Forを信用（前段にproxyがある時だけ）

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Loadは.env（あれば）と環境変数から設定を読む
func Load() (Config, error) {
	//.envは任意。無ければ環境変数だけ
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// 必須チェック
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}

	if c.JWTIssuer == "" {
		return fmt.Errorf("JWT_ISSUER is required")
	}
	if c.JWTAudience == "" {
		return fmt.Errorf("JWT_AUDIENCE is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLen)
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_TTL must be positive")
	}
	if c.FingerprintAPIKey == "" {
		return fmt.Errorf("FINGERPRINT_API_KEY is required")
	}
	if c.FingerprintTimeout <= 0 {
		return fmt.Errorf("FINGERPRINT_TIMEOUT must be positive")
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// LOG_LEVELをslogのレベルに変換
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	return lvl, nil
}

func (c Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}
