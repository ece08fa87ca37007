package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Значения по умолчанию для настроек верификации
const (
	DefaultCodeLength        = 6
	DefaultCodeExpiryMinutes = 10
	DefaultRateLimitPerHour  = 5
	DefaultResendPerHour     = 3
)

// Config хранит все настройки приложения
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
	Verification VerificationConfig `mapstructure:"verification"`
	Email        EmailConfig        `mapstructure:"email"`
	Security     SecurityConfig     `mapstructure:"security"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig содержит настройки подключения к БД.
// Driver: "postgres" (по умолчанию) или "sqlite" для локального запуска.
type DatabaseConfig struct {
	Driver         string `mapstructure:"driver"`
	Host           string `mapstructure:"host"`
	Port           string `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	DBName         string `mapstructure:"dbname"`
	SSLMode        string `mapstructure:"sslmode"`
	DSN            string `mapstructure:"dsn"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Для 'single' используется первый адрес.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// VerificationConfig: настройки жизненного цикла кодов
type VerificationConfig struct {
	Enabled                 bool          `mapstructure:"enabled"`
	CheckoutRequired        bool          `mapstructure:"checkout_required"`
	RegistrationRequired    bool          `mapstructure:"registration_required"`
	CodeLength              int           `mapstructure:"code_length"`
	CodeExpiryMinutes       int           `mapstructure:"code_expiry_minutes"`
	RateLimitPerHour        int           `mapstructure:"rate_limit_per_hour"`
	ResendLimitPerHour      int           `mapstructure:"resend_limit_per_hour"`
	CodePepper              string        `mapstructure:"code_pepper"`
	SweepInterval           time.Duration `mapstructure:"sweep_interval"`
	LogRetentionDays        int           `mapstructure:"log_retention_days"`
	RateLimitRetentionHours int           `mapstructure:"rate_limit_retention_hours"`
}

// EmailConfig: настройки отправки писем и шаблона
type EmailConfig struct {
	Provider        string        `mapstructure:"provider"` // resend | smtp | noop
	ResendAPIKey    string        `mapstructure:"resend_api_key"`
	SMTPHost        string        `mapstructure:"smtp_host"`
	SMTPPort        int           `mapstructure:"smtp_port"`
	SMTPUser        string        `mapstructure:"smtp_user"`
	SMTPPassword    string        `mapstructure:"smtp_password"`
	FromName        string        `mapstructure:"from_name"`
	FromEmail       string        `mapstructure:"from_email"`
	Subject         string        `mapstructure:"subject"`
	TemplatePath    string        `mapstructure:"template_path"`
	SiteName        string        `mapstructure:"site_name"`
	SiteURL         string        `mapstructure:"site_url"`
	SendTimeout     time.Duration `mapstructure:"send_timeout"`
	PrimaryColor    string        `mapstructure:"primary_color"`
	SecondaryColor  string        `mapstructure:"secondary_color"`
	TextColor       string        `mapstructure:"text_color"`
	BackgroundColor string        `mapstructure:"background_color"`
}

// SecurityConfig: CSRF, сессии и доступ администратора
type SecurityConfig struct {
	CSRFSecret        string        `mapstructure:"csrf_secret"`
	AdminJWTSecret    string        `mapstructure:"admin_jwt_secret"`
	SessionCookieName string        `mapstructure:"session_cookie_name"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	CookieSecure      bool          `mapstructure:"cookie_secure"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// CodeExpiry возвращает время жизни кода
func (v VerificationConfig) CodeExpiry() time.Duration {
	return time.Duration(v.CodeExpiryMinutes) * time.Minute
}

// Normalize приводит настройки верификации к допустимым диапазонам.
// Значение вне диапазона заменяется значением по умолчанию, а не обрезается до границы.
// Возвращает список скорректированных ключей.
func (v *VerificationConfig) Normalize() []string {
	var adjusted []string
	if v.CodeLength < 4 || v.CodeLength > 8 {
		v.CodeLength = DefaultCodeLength
		adjusted = append(adjusted, "code_length")
	}
	if v.CodeExpiryMinutes < 1 || v.CodeExpiryMinutes > 60 {
		v.CodeExpiryMinutes = DefaultCodeExpiryMinutes
		adjusted = append(adjusted, "code_expiry_minutes")
	}
	if v.RateLimitPerHour < 1 || v.RateLimitPerHour > 20 {
		v.RateLimitPerHour = DefaultRateLimitPerHour
		adjusted = append(adjusted, "rate_limit_per_hour")
	}
	if v.ResendLimitPerHour < 1 {
		v.ResendLimitPerHour = DefaultResendPerHour
	}
	if v.SweepInterval <= 0 {
		v.SweepInterval = time.Hour
	}
	if v.LogRetentionDays <= 0 {
		v.LogRetentionDays = 30
	}
	if v.RateLimitRetentionHours <= 0 {
		v.RateLimitRetentionHours = 24
	}
	return adjusted
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 10)
	vip.SetDefault("server.write_timeout", 30)

	vip.SetDefault("database.driver", "postgres")
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.migrations_path", "migrations")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("log.level", "info")

	vip.SetDefault("verification.enabled", true)
	vip.SetDefault("verification.checkout_required", true)
	vip.SetDefault("verification.registration_required", true)
	vip.SetDefault("verification.code_length", DefaultCodeLength)
	vip.SetDefault("verification.code_expiry_minutes", DefaultCodeExpiryMinutes)
	vip.SetDefault("verification.rate_limit_per_hour", DefaultRateLimitPerHour)
	vip.SetDefault("verification.resend_limit_per_hour", DefaultResendPerHour)
	vip.SetDefault("verification.sweep_interval", time.Hour)
	vip.SetDefault("verification.log_retention_days", 30)
	vip.SetDefault("verification.rate_limit_retention_hours", 24)

	vip.SetDefault("email.provider", "noop")
	vip.SetDefault("email.smtp_port", 587)
	vip.SetDefault("email.subject", "Your Verification Code - {site_name}")
	vip.SetDefault("email.send_timeout", 15*time.Second)
	vip.SetDefault("email.primary_color", "#667eea")
	vip.SetDefault("email.secondary_color", "#764ba2")
	vip.SetDefault("email.text_color", "#333333")
	vip.SetDefault("email.background_color", "#f8f9fa")

	vip.SetDefault("security.session_cookie_name", "ev_session")
	vip.SetDefault("security.session_ttl", 24*time.Hour)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр Viper, без глобального состояния

	setDefaults(vip)

	// Привязываем переменные окружения ЯВНО
	vip.BindEnv("database.driver", "DATABASE_DRIVER")
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.dsn", "DATABASE_DSN")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("log.level", "LOG_LEVEL")

	vip.BindEnv("verification.enabled", "VERIFICATION_ENABLED")
	vip.BindEnv("verification.code_pepper", "VERIFICATION_CODE_PEPPER")

	vip.BindEnv("email.provider", "EMAIL_PROVIDER")
	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.smtp_host", "SMTP_HOST")
	vip.BindEnv("email.smtp_port", "SMTP_PORT")
	vip.BindEnv("email.smtp_user", "SMTP_USER")
	vip.BindEnv("email.smtp_password", "SMTP_PASSWORD")
	vip.BindEnv("email.from_email", "EMAIL_FROM")

	vip.BindEnv("security.csrf_secret", "CSRF_SECRET")
	vip.BindEnv("security.admin_jwt_secret", "ADMIN_JWT_SECRET")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть: тогда работаем на env и значениях по умолчанию
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, key := range cfg.Verification.Normalize() {
		log.Printf("Предупреждение: verification.%s вне допустимого диапазона, используется значение по умолчанию", key)
	}

	if err := cfg.validate(os.Getenv("GIN_MODE")); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate проверяет обязательные параметры.
// В debug режиме секреты могут отсутствовать, в остальных режимах они обязательны.
func (c *Config) validate(ginMode string) error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" && (c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "") {
			return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
		}
	case "sqlite":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Email.Provider {
	case "resend":
		if c.Email.ResendAPIKey == "" || c.Email.FromEmail == "" {
			return fmt.Errorf("resend provider requires RESEND_API_KEY and EMAIL_FROM")
		}
	case "smtp":
		if c.Email.SMTPHost == "" || c.Email.FromEmail == "" {
			return fmt.Errorf("smtp provider requires SMTP_HOST and EMAIL_FROM")
		}
	case "noop":
	default:
		return fmt.Errorf("unsupported email provider: %s", c.Email.Provider)
	}

	if ginMode == "debug" || ginMode == "" {
		return nil
	}
	if c.Security.CSRFSecret == "" {
		return fmt.Errorf("CSRF secret is required in production mode (check CSRF_SECRET env var)")
	}
	if c.Security.AdminJWTSecret == "" {
		return fmt.Errorf("admin JWT secret is required in production mode (check ADMIN_JWT_SECRET env var)")
	}
	if c.Verification.CodePepper == "" {
		return fmt.Errorf("code pepper is required in production mode (check VERIFICATION_CODE_PEPPER env var)")
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" && c.Database.Password == "" {
		return fmt.Errorf("database password is required in production mode (check DATABASE_PASSWORD env var)")
	}
	return nil
}
