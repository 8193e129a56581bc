package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDatabaseDriver = "sqlite"
	defaultSQLiteDSN      = "kleptokart.db"
	defaultDBName         = "kleptokart"
	defaultRedisAddr      = "localhost:6379"
	defaultAppPort        = "8080"
	defaultAppEnv         = "local"
	defaultGRPCPort       = "9090"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges config/app.json, .env and the process environment, in that
// order of increasing precedence. It is safe to call repeatedly.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":               defaultAppEnv,
		"APP_PORT":              defaultAppPort,
		"DB_DRIVER":             defaultDatabaseDriver,
		"DATABASE_DSN":          "",
		"DB_MAX_OPEN_CONNS":     "10",
		"DB_MAX_IDLE_CONNS":     "5",
		"AUTO_MIGRATE":          "true",
		"REDIS_ADDR":            defaultRedisAddr,
		"REDIS_PASSWORD":        "",
		"RATE_LIMIT_PER_MINUTE": "200",
		"CORS_ORIGINS":          "*",
		"TRUSTED_PROXIES":       "",
		"GRPC_PORT":             defaultGRPCPort,
		"HEALTH_CHECK_INTERVAL": "15s",
		"SHUTDOWN_TIMEOUT":      "10s",
		"LOG_LEVEL":             "",
		"LOG_MONGO_DB":          "kleptokart",
		"LOG_MONGO_COLLECTION":  "logs",
		"MAX_BODY_BYTES":        "1048576",
	}
}

// ── App ──────────────────────────────────────────────────────────────────────

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

func IsProduction() bool {
	switch strings.ToLower(AppEnv()) {
	case "production", "prod":
		return true
	}
	return false
}

// AppPort honours PORT as well, which is what most PaaS runtimes inject.
func AppPort() string {
	_ = Load()
	if p := get("APP_PORT", ""); p != "" && p != defaultAppPort {
		return p
	}
	return get("PORT", defaultAppPort)
}

func ShutdownTimeout() time.Duration {
	_ = Load()
	return getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
}

// ── Database ─────────────────────────────────────────────────────────────────

func DatabaseDriver() string {
	_ = Load()

	driver := strings.ToLower(get("DB_DRIVER", defaultDatabaseDriver))
	switch driver {
	case "sqlite", "postgres", "mysql", "sqlserver":
		return driver
	default:
		return defaultDatabaseDriver
	}
}

// DatabaseDSN returns DATABASE_DSN when set, otherwise a DSN assembled from
// DB_HOST, DB_PORT, DB_USER, DB_PASSWORD and DB_NAME for the active driver.
func DatabaseDSN() string {
	_ = Load()

	if override := get("DATABASE_DSN", ""); override != "" {
		return override
	}

	host := get("DB_HOST", "localhost")
	user := get("DB_USER", "")
	pass := get("DB_PASSWORD", "")
	name := get("DB_NAME", defaultDBName)

	switch DatabaseDriver() {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			orDefault(user, "root"), pass, host, get("DB_PORT", "3306"), name)
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			host, orDefault(user, "postgres"), pass, name, get("DB_PORT", "5432"))
	case "sqlserver":
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(orDefault(user, "sa"), pass),
			Host:     host + ":" + get("DB_PORT", "1433"),
			RawQuery: "database=" + url.QueryEscape(name),
		}
		return u.String()
	default:
		return defaultSQLiteDSN
	}
}

func DBMaxOpenConns() int {
	_ = Load()
	return getInt("DB_MAX_OPEN_CONNS", 10)
}

func DBMaxIdleConns() int {
	_ = Load()
	return getInt("DB_MAX_IDLE_CONNS", 5)
}

func AutoMigrate() bool {
	_ = Load()
	return getBool("AUTO_MIGRATE", true)
}

// ── Redis / rate limiting ────────────────────────────────────────────────────

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

func RateLimitPerMinute() int {
	_ = Load()
	return getInt("RATE_LIMIT_PER_MINUTE", 200)
}

func CORSOrigins() []string {
	_ = Load()
	var origins []string
	for _, o := range strings.Split(get("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// TrustedProxies lists the CIDRs or addresses whose X-Forwarded-For is
// believed. Empty means forwarding headers are ignored.
func TrustedProxies() []string {
	_ = Load()
	var out []string
	for _, p := range strings.Split(get("TRUSTED_PROXIES", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ── gRPC ─────────────────────────────────────────────────────────────────────

// GRPCPort returns "" when the gRPC health server is disabled.
func GRPCPort() string {
	_ = Load()
	p := get("GRPC_PORT", defaultGRPCPort)
	if strings.EqualFold(p, "off") || p == "0" {
		return ""
	}
	return p
}

func HealthCheckInterval() time.Duration {
	_ = Load()
	return getDuration("HEALTH_CHECK_INTERVAL", 15*time.Second)
}

// ── Logging ──────────────────────────────────────────────────────────────────

func LogLevel() string {
	_ = Load()
	return strings.ToLower(get("LOG_LEVEL", ""))
}

func LogMongoURI() string        { _ = Load(); return get("LOG_MONGO_URI", "") }
func LogMongoDB() string         { _ = Load(); return get("LOG_MONGO_DB", "kleptokart") }
func LogMongoCollection() string { _ = Load(); return get("LOG_MONGO_COLLECTION", "logs") }

// ── HTTP ─────────────────────────────────────────────────────────────────────

func MaxBodyBytes() int64 {
	_ = Load()
	n, err := strconv.ParseInt(get("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || n <= 0 {
		return 1 << 20
	}
	return n
}

// ── Loading ──────────────────────────────────────────────────────────────────

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeEnviron(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		default:
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for key, value := range env {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(value)
	}
	return nil
}

// mergeEnviron lets real environment variables win over both files.
func mergeEnviron(out map[string]string) {
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" || value == "" {
			continue
		}
		out[strings.ToUpper(key)] = value
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(get(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(get(key, ""))
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(get(key, ""))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a single key in memory. Tests use it to pin configuration
// without touching files or the environment.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	defer mu.Unlock()
	values[strings.ToUpper(key)] = value
}
