package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	AppEnv string
	Port   string

	DB DBConfig

	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int

	UploadDir         string
	CanonicalCurrency string
	CurrencyRates     map[string]string

	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int

	RedisAddr       string
	KafkaBrokers    []string
	KafkaOrderTopic string

	parseErr error
}

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Pass         string
	Name         string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real env vars win.
// Malformed values keep their defaults and are reported by Validate.
func Load() Config {
	_ = godotenv.Load()

	var env envParser
	cfg := Config{
		AppEnv: getEnv("APP_ENV", "dev"),
		Port:   getEnv("PORT", "3000"),
		DB: DBConfig{
			Host:         getEnv("DB_HOST", "127.0.0.1"),
			Port:         getEnv("DB_PORT", "3306"),
			User:         getEnv("DB_USER", "root"),
			Pass:         os.Getenv("DB_PASS"),
			Name:         getEnv("DB_NAME", "eshop"),
			MaxOpenConns: env.Int("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: env.Int("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLife:  env.Duration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTTTL:            env.Duration("JWT_TTL", 24*time.Hour),
		BcryptCost:        env.Int("BCRYPT_COST", 10),
		UploadDir:         getEnv("UPLOAD_DIR", "./uploads"),
		CanonicalCurrency: getEnv("CANONICAL_CURRENCY", "Kč"),
		CurrencyRates:     parseRates(getEnv("CURRENCY_RATES", "€=0.04,EUR=0.04")),
		RequestTimeout:    env.Duration("REQUEST_TIMEOUT", 10*time.Second),
		RateLimit:         env.Float("RATE_LIMIT", 20),
		RateBurst:         env.Int("RATE_BURST", 40),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:   getEnv("KAFKA_ORDER_TOPIC", "order-topic"),
	}
	cfg.parseErr = errors.Join(env.errs...)
	return cfg
}

// Validate rejects configurations the service must not start with.
func (c Config) Validate() error {
	if c.parseErr != nil {
		return c.parseErr
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be at most %d, got %d", bcrypt.MaxCost, c.BcryptCost)
	}
	if c.CanonicalCurrency == "" {
		return errors.New("CANONICAL_CURRENCY must not be empty")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	return nil
}

// DSN builds the go-sql-driver connection string.
func (d DBConfig) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Pass
	cfg.Net = "tcp"
	cfg.Addr = d.Host + ":" + d.Port
	cfg.DBName = d.Name
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envParser reads typed env vars and collects the malformed ones.
type envParser struct {
	errs []error
}

func (p *envParser) Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be an integer, got %q", key, v))
		return def
	}
	return n
}

func (p *envParser) Float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be a number, got %q", key, v))
		return def
	}
	return f
}

func (p *envParser) Duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be a duration like 10s, got %q", key, v))
		return def
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseRates reads "CODE=rate,CODE=rate". Rates stay strings so the currency
// table can parse them as exact decimals.
func parseRates(v string) map[string]string {
	rates := make(map[string]string)
	for _, pair := range splitList(v) {
		code, rate, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		code, rate = strings.TrimSpace(code), strings.TrimSpace(rate)
		if code == "" || rate == "" {
			continue
		}
		rates[code] = rate
	}
	return rates
}
