package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（5000）

	DBDriver    string // postgres / sqlite
	DatabaseURL string // あれば最優先
	SQLitePath  string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret       string        // JWT署名シークレット
	AccessTokenTTL  time.Duration // アクセストークンの有効期限
	RefreshTokenTTL time.Duration // refresh cookieの有効期限

	UploadDir     string // 画像の保存先（/uploadsで公開）
	MaxUploadSize int64  // bytes

	GoEnv string // dev/prod
	FEURL string // フロントURL（CORS）

	LogMode string // development / production
	LogFile string // 空ならstdoutのみ

	RedisAddr string // 空ならキャッシュ無効

	AdminEmail        string // 初回起動時の管理者
	AdminPassword     string
	AllowRegistration bool // POST /users を公開するか
	SeedProducts      bool
}

// IsProd は本番環境かどうか
func (c Config) IsProd() bool {
	return isProdEnv(c.GoEnv)
}

func isProdEnv(env string) bool {
	return env == "prod" || env == "production"
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	accessTTL, err := durationDefault("ACCESS_TOKEN_TTL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	refreshTTL, err := durationDefault("REFRESH_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	maxUpload, err := atoiDefault("MAX_UPLOAD_MB", 5)
	if err != nil {
		return Config{}, err
	}
	seed, err := boolDefault("SEED_PRODUCTS", true)
	if err != nil {
		return Config{}, err
	}
	//本番では既定で閉じる
	goEnv := getenv("GO_ENV", "dev")
	allowReg, err := boolDefault("ALLOW_REGISTRATION", !isProdEnv(goEnv))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "5000"),

		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getenv("SQLITE_PATH", "vending.db"),

		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "vending"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,

		UploadDir:     getenv("UPLOAD_DIR", "uploads"),
		MaxUploadSize: int64(maxUpload) << 20,

		GoEnv: goEnv,
		FEURL: getenv("FE_URL", "http://localhost:3000"),

		LogMode: getenv("LOG_MODE", "development"),
		LogFile: os.Getenv("LOG_FILE"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AllowRegistration: allowReg,
		SeedProducts:      seed,
	}

	//必須チェック
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be postgres or sqlite")
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProd() {
			return Config{}, fmt.Errorf("JWT_SECRET is required")
		}
		cfg.JWTSecret = "dev_secret_change_me"
	}
	if cfg.AccessTokenTTL <= 0 {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.RefreshTokenTTL <= 0 {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_TTL must be positive")
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return Config{}, fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}

// PostgresDSN はDATABASE_URLがなければ個別の値から組み立てる
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}

func boolDefault(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}
