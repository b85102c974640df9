package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string
		RosterNotices    bool
		defaultFromEmail string

		Server   ServerConfig
		Upstream UpstreamConfig
		Database DatabaseConfig
		Redis    RedisConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugAddress       string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		SessionTTL         time.Duration
	}

	// UpstreamConfig locates the school REST API the dashboard works against.
	UpstreamConfig struct {
		BaseURL string
		Timeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// Enabled reports whether a database is configured; the in-memory activity log is used otherwise.
func (dc DatabaseConfig) Enabled() bool { return dc.Host != "" && dc.Name != "" }

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, strconv.Itoa(dc.Port))
}

// NewConfig loads the configuration of the current environment.
// ENV selects the environment (DEV by default) and the prefix of the environment variables,
// e.g. DEV_UPSTREAM_BASE_URL. config/.env.<env> is loaded first when it exists.
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// defaults
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("build", "develop")
	v.SetDefault("app_name", "Lms Dashboard")
	v.SetDefault("secret_key", "x3r+vq8=l@h2m#c9dz&o!e1w5f^uk$6pt_g0n7s4j*yb(a)")
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("default_from_email", "noreply@localhost")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("roster_notices", false)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debug_address", ":4000")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.jwt_expiration_delta", 12*time.Hour)
	v.SetDefault("server.session_ttl", 12*time.Hour)

	v.SetDefault("upstream.base_url", "http://localhost:8080")
	v.SetDefault("upstream.timeout", 15*time.Second)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.admin_user", "")
	v.SetDefault("database.admin_password", "")
	v.SetDefault("database.disable_tls", true)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// load .env if it exists (ignore if it does not)
	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.Getwd(): %v", err)
	}
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         env == "TEST",
		AppName:          v.GetString("app_name"),
		SecretKey:        v.GetString("secret_key"),
		FrontendBaseURL:  strings.TrimRight(v.GetString("frontend_base_url"), "/"),
		RollbarToken:     v.GetString("rollbar_token"),
		SendgridApiKey:   v.GetString("sendgrid_api_key"),
		RosterNotices:    v.GetBool("roster_notices"),
		defaultFromEmail: v.GetString("default_from_email"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugAddress:       v.GetString("server.debug_address"),
			ShutdownTimeout:    v.GetDuration("server.shutdown_timeout"),
			JWTExpirationDelta: v.GetDuration("server.jwt_expiration_delta"),
			SessionTTL:         v.GetDuration("server.session_ttl"),
		},
		Upstream: UpstreamConfig{
			BaseURL: strings.TrimRight(v.GetString("upstream.base_url"), "/"),
			Timeout: v.GetDuration("upstream.timeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.admin_user"),
			AdminPassword: v.GetString("database.admin_password"),
			DisableTLS:    v.GetBool("database.disable_tls"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests; nothing is read from the environment.
func NewTestConfig(upstreamURL string) *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		Debug:            false,
		TestMode:         true,
		AppName:          "Lms Dashboard",
		SecretKey:        "secret",
		FrontendBaseURL:  "http://localhost:3000",
		defaultFromEmail: "noreply@localhost",
		Server: ServerConfig{
			Host:               "localhost",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: 10 * time.Minute,
			SessionTTL:         time.Hour,
		},
		Upstream: UpstreamConfig{BaseURL: upstreamURL, Timeout: 5 * time.Second},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (env=%s, build=%s, upstream=%s)", c.AppName, c.Env, c.Build, c.Upstream.BaseURL)
}
