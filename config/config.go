package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"freelancer-hub/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port       string `mapstructure:"port"`
	AppEnv     string `mapstructure:"app_env"`
	AppURL     string `mapstructure:"app_url"`
	CorsOrigin string `mapstructure:"cors_origin"`

	DB struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"db"`

	JWT struct {
		Secret   string        `mapstructure:"secret"`
		TTL      time.Duration `mapstructure:"ttl"`
		Cookie   string        `mapstructure:"cookie"`
		Secure   bool          `mapstructure:"secure"`
		Issuer   string        `mapstructure:"issuer"`
		Audience string        `mapstructure:"audience"`
	} `mapstructure:"jwt"`

	Google struct {
		ClientID         string `mapstructure:"client_id"`
		ClientSecret     string `mapstructure:"client_secret"`
		RedirectURL      string `mapstructure:"redirect_url"`
		FrontendRedirect string `mapstructure:"frontend_redirect"`
	} `mapstructure:"google"`

	Stripe struct {
		SecretKey     string `mapstructure:"secret_key"`
		WebhookSecret string `mapstructure:"webhook_secret"`
	} `mapstructure:"stripe"`

	Cron struct {
		Secret string `mapstructure:"secret"`
	} `mapstructure:"cron"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"smtp"`

	Mail struct {
		From    string        `mapstructure:"from"`
		APIURL  string        `mapstructure:"api_url"`
		APIKey  string        `mapstructure:"api_key"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"mail"`

	Redis struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"redis"`

	RateLimit struct {
		Enabled       bool          `mapstructure:"enabled"`
		PurgeInterval time.Duration `mapstructure:"purge_interval"`
	} `mapstructure:"rate_limit"`

	Portal struct {
		LinkTTL    time.Duration `mapstructure:"link_ttl"`
		SessionTTL time.Duration `mapstructure:"session_ttl"`
		Cookie     string        `mapstructure:"cookie"`
	} `mapstructure:"portal"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		Output string `mapstructure:"output"`
	} `mapstructure:"log"`
}

// App is the process-wide configuration, set by LoadFile.
var App = Defaults()

var ErrMissingSecret = errors.New("missing required configuration")

// LoadFile loads .env, then file, and sets App.
func LoadFile(file string) *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	cfg, err := Load(file)
	if err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}
	App = cfg
	return cfg
}

// Load reads defaults, then the optional yaml file, then the environment.
// Environment keys are the upper-cased dotted path: stripe.secret_key ->
// STRIPE_SECRET_KEY.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if file != "" {
		if err := v.ReadInConfig(); err != nil {
			log.Printf("[Config] No config file found, using defaults")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	return &cfg, nil
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("app_url", "http://localhost:5173")
	v.SetDefault("cors_origin", "http://localhost:5173")

	v.SetDefault("db.url", "")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("jwt.cookie", "session")
	v.SetDefault("jwt.secure", false)
	v.SetDefault("jwt.issuer", "freelancer-hub")
	v.SetDefault("jwt.audience", "freelancer-hub")

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.redirect_url", "")
	v.SetDefault("google.frontend_redirect", "")

	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")

	v.SetDefault("cron.secret", "")

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", "587")
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")

	v.SetDefault("mail.from", "no-reply@localhost")
	v.SetDefault("mail.api_url", "")
	v.SetDefault("mail.api_key", "")
	v.SetDefault("mail.timeout", 10*time.Second)

	v.SetDefault("redis.url", "")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.purge_interval", time.Minute)

	v.SetDefault("portal.link_ttl", 7*24*time.Hour)
	v.SetDefault("portal.session_ttl", 30*24*time.Hour)
	v.SetDefault("portal.cookie", "portal_session")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if c.DB.URL == "" {
		missing = append(missing, "DB_URL")
	}
	if c.JWT.Secret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}

type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return "missing required environment variable(s): " + strings.Join(e.Keys, ", ")
}

func (e *MissingError) Unwrap() error { return ErrMissingSecret }

// GetLoggerConfig maps the log section onto the logger's settings.
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{Level: c.Log.Level, Format: c.Log.Format, Output: c.Log.Output}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
