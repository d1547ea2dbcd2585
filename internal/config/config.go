package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port              int
	HandsOnDSN        string
	ClippingDSN       string
	DBMaxConns        int32
	RedisURL          string
	JWTSecret         string
	JWTAccessTTL      time.Duration
	AuthAPIURL        string
	AllowOrigins      []string
	Roles             Roles
	RateLimitPublic   RateLimitConfig
	RateLimitAuth     RateLimitConfig
	Storage           StorageConfig
	ExportArchive     bool
	SlackWebhookURL   string
	ReconcileSchedule string
	LogLevel          string
	LogFormat         string
}

// Roles guarda os nomes de papel emitidos pelo serviço de autenticação.
type Roles struct {
	SuperAdmin string
	Admin      string
	Viewer     string
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// StorageConfig descreve o destino de arquivamento das exportações.
type StorageConfig struct {
	Provider    string
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.HandsOnDSN = dsnFromEnv("DB_HANDSON_DSN", "HANDSON")
	if cfg.HandsOnDSN == "" {
		return nil, errors.New("DB_HANDSON_DSN obrigatório")
	}
	cfg.ClippingDSN = dsnFromEnv("DB_CLIPPING_DSN", "CLIPPING")
	if cfg.ClippingDSN == "" {
		return nil, errors.New("DB_CLIPPING_DSN obrigatório")
	}

	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	if err != nil || maxConns <= 0 {
		return nil, errors.New("DB_MAX_CONNS inválido")
	}
	cfg.DBMaxConns = int32(maxConns)

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}
	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	cfg.AuthAPIURL = strings.TrimRight(strings.TrimSpace(getEnv("AUTH_API_URL", "")), "/")
	if cfg.AuthAPIURL == "" {
		return nil, errors.New("AUTH_API_URL obrigatório")
	}

	cfg.AllowOrigins = splitList(getEnv("ALLOW_ORIGINS", ""))

	cfg.Roles = Roles{
		SuperAdmin: strings.TrimSpace(getEnv("SUPER_ADMIN", "super_admin")),
		Admin:      strings.TrimSpace(getEnv("ADMIN", "adm_access")),
		Viewer:     strings.TrimSpace(getEnv("VIEWER", "viewer")),
	}

	if cfg.RateLimitPublic, err = rateLimitEnv("RATE_LIMIT_PUBLIC", RateLimitConfig{RequestsPerSecond: 5, Burst: 10}); err != nil {
		return nil, err
	}
	if cfg.RateLimitAuth, err = rateLimitEnv("RATE_LIMIT_AUTH", RateLimitConfig{RequestsPerSecond: 20, Burst: 40}); err != nil {
		return nil, err
	}

	cfg.Storage = StorageConfig{
		Provider:    strings.ToLower(strings.TrimSpace(getEnv("STORAGE_PROVIDER", "noop"))),
		S3Endpoint:  strings.TrimSpace(getEnv("S3_ENDPOINT", "")),
		S3Region:    strings.TrimSpace(getEnv("S3_REGION", "us-east-1")),
		S3Bucket:    strings.TrimSpace(getEnv("S3_BUCKET", "")),
		S3AccessKey: strings.TrimSpace(getEnv("S3_ACCESS_KEY", "")),
		S3SecretKey: strings.TrimSpace(getEnv("S3_SECRET_KEY", "")),
	}
	cfg.ExportArchive = parseBool(getEnv("EXPORT_ARCHIVE", "false"))

	cfg.SlackWebhookURL = strings.TrimSpace(getEnv("SLACK_WEBHOOK_URL", ""))
	cfg.ReconcileSchedule = strings.TrimSpace(getEnv("RECONCILE_SCHEDULE", "@every 1m"))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", "info")))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", "console")))

	return cfg, nil
}

// dsnFromEnv usa o DSN completo quando presente; caso contrário compõe a
// partir das variáveis DB_HOST_<SUFIXO>, DB_NAME_<SUFIXO> etc.
func dsnFromEnv(key, suffix string) string {
	if dsn := strings.TrimSpace(getEnv(key, "")); dsn != "" {
		return dsn
	}
	host := strings.TrimSpace(getEnv("DB_HOST_"+suffix, ""))
	name := strings.TrimSpace(getEnv("DB_NAME_"+suffix, ""))
	if host == "" || name == "" {
		return ""
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + name,
	}
	if port := strings.TrimSpace(getEnv("DB_PORT_"+suffix, "")); port != "" {
		u.Host = host + ":" + port
	}
	user := getEnv("DB_USER_"+suffix, "")
	if pass, ok := os.LookupEnv("DB_PASSWORD_" + suffix); ok {
		u.User = url.UserPassword(user, pass)
	} else if user != "" {
		u.User = url.User(user)
	}

	q := url.Values{}
	if opts := strings.TrimSpace(getEnv("DB_OPTIONS_"+suffix, "")); opts != "" {
		q.Set("options", opts)
	}
	if ssl := strings.TrimSpace(getEnv("DB_SSLMODE_"+suffix, "")); ssl != "" {
		q.Set("sslmode", ssl)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(raw string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && v
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}

// rateLimitEnv lê <PREFIXO>_RPS e <PREFIXO>_BURST.
func rateLimitEnv(prefix string, def RateLimitConfig) (RateLimitConfig, error) {
	out := def
	if raw := strings.TrimSpace(getEnv(prefix+"_RPS", "")); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps <= 0 {
			return out, fmt.Errorf("%s_RPS inválido", prefix)
		}
		out.RequestsPerSecond = rps
	}
	if raw := strings.TrimSpace(getEnv(prefix+"_BURST", "")); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil || burst <= 0 {
			return out, fmt.Errorf("%s_BURST inválido", prefix)
		}
		out.Burst = burst
	}
	return out, nil
}
