package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf is the process wide configuration, loaded once at start up.
var Conf = NewConfig()

type (
	serverConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		PasswordResetRatePerMin   int
		DisableRequestLogs        bool
	}

	dbConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	oidcConfig struct {
		IssuerURL    string
		ClientID     string
		ClientSecret string
		RedirectURL  string
		Scopes       []string
	}

	logConfig struct {
		Level  string
		Format string // console | json
	}

	Config struct {
		Env             string
		Debug           bool
		TestMode        bool
		Build           string
		AppName         string
		SecretKey       string
		WorkDir         string
		FrontendBaseURL string
		RollbarToken    string
		SendgridApiKey  string

		PasswordResetTimeoutDelta time.Duration

		defaultFromEmail string

		Server   serverConfig
		Database dbConfig
		OIDC     oidcConfig
		Log      logConfig
	}
)

// Address returns the "host:port" of the database server.
func (c dbConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Enabled reports whether a third party identity provider has been configured.
func (c oidcConfig) Enabled() bool {
	return c.IssuerURL != "" && c.ClientID != ""
}

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
	}
	return *addr
}

// NewConfig loads the configuration for the current environment.
// ENV selects both the env var prefix and the optional `config/.env.<env>` file.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)

	wd := Getwd()
	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	setDefaults(v, env)
	v.AutomaticEnv()

	return &Config{
		Env:                       env,
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("test_mode"),
		Build:                     v.GetString("build"),
		AppName:                   v.GetString("app_name"),
		SecretKey:                 v.GetString("secret_key"),
		WorkDir:                   wd,
		FrontendBaseURL:           v.GetString("frontend_base_url"),
		RollbarToken:              v.GetString("rollbar_token"),
		SendgridApiKey:            v.GetString("sendgrid_api_key"),
		PasswordResetTimeoutDelta: v.GetDuration("password_reset_timeout_delta"),
		defaultFromEmail:          v.GetString("default_from_email"),
		Server: serverConfig{
			Host:                      v.GetString("server_host"),
			Address:                   v.GetString("server_address"),
			DebugHost:                 v.GetString("debug_host"),
			ShutdownTimeout:           v.GetDuration("shutdown_timeout"),
			JWTExpirationDelta:        v.GetDuration("jwt_expiration_delta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwt_refresh_expiration_delta"),
			PasswordResetRatePerMin:   v.GetInt("password_reset_rate_per_min"),
			DisableRequestLogs:        v.GetBool("disable_request_logs"),
		},
		Database: dbConfig{
			Engine:        v.GetString("database_engine"),
			Host:          v.GetString("database_host"),
			Port:          v.GetString("database_port"),
			Name:          v.GetString("database_name"),
			User:          v.GetString("database_user"),
			Password:      v.GetString("database_password"),
			AdminUser:     v.GetString("database_admin_user"),
			AdminPassword: v.GetString("database_admin_password"),
			DisableTLS:    v.GetBool("database_disable_tls"),
		},
		OIDC: oidcConfig{
			IssuerURL:    v.GetString("oidc_issuer_url"),
			ClientID:     v.GetString("oidc_client_id"),
			ClientSecret: v.GetString("oidc_client_secret"),
			RedirectURL:  v.GetString("oidc_redirect_url"),
			Scopes:       v.GetStringSlice("oidc_scopes"),
		},
		Log: logConfig{
			Level:  v.GetString("log_level"),
			Format: v.GetString("log_format"),
		},
	}
}

func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("test_mode", env == "TEST")
	v.SetDefault("build", "develop")
	v.SetDefault("app_name", "Skillfolio")
	v.SetDefault("secret_key", "k3#pq9-vfl)ua0s!w+2c=ye7&h(o*d8b_zrm4t$j1xgn6i5")
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("default_from_email", "Skillfolio <noreply@localhost>")
	v.SetDefault("password_reset_timeout_delta", 3*24*time.Hour)

	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_address", ":8000")
	v.SetDefault("debug_host", ":4000")
	v.SetDefault("shutdown_timeout", 5*time.Second)
	v.SetDefault("jwt_expiration_delta", 7*24*time.Hour)
	v.SetDefault("jwt_refresh_expiration_delta", 4*time.Hour)
	v.SetDefault("password_reset_rate_per_min", 5)
	v.SetDefault("disable_request_logs", env == "TEST")

	v.SetDefault("database_engine", "postgres")
	v.SetDefault("database_host", "localhost")
	v.SetDefault("database_port", "5432")
	v.SetDefault("database_name", "skillfolio")
	v.SetDefault("database_user", "skillfolio")
	v.SetDefault("database_password", "skillfolio")
	v.SetDefault("database_admin_user", "postgres")
	v.SetDefault("database_admin_password", "postgres")
	v.SetDefault("database_disable_tls", env == "DEV" || env == "TEST")

	v.SetDefault("oidc_scopes", []string{"openid", "profile", "email"})

	v.SetDefault("log_level", "debug")
	v.SetDefault("log_format", "console")
}
