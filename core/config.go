package core

import (
	"fmt"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address       string
		Host          string
		SessionMaxAge time.Duration
		CookieSecure  bool
	}

	DatabaseConfig struct {
		Engine       string // sqlite | postgres
		Path         string // sqlite only
		Host         string
		Port         string
		User         string
		Password     string
		Name         string
		DisableTLS   bool
		MaxOpenConns int
	}

	Config struct {
		Env              string
		Debug            bool
		TestMode         bool
		AppName          string
		Build            string
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address
		Server           ServerConfig
		Database         DatabaseConfig
	}
)

// Address returns the postgres "host:port" pair.
func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

// defaultSecretKey is only accepted in DEV & TEST.
const defaultSecretKey = "x9f#k2-ap0)q!ne7$w4=zr&bl1(c@m8t^ys%d3hu6o+gvj5"

// NewConfig loads the app configuration from defaults, an optional `config/.env.<env>` file
// and environment variables prefixed by the environment name (eg. `PROD_SECRETKEY`).
func NewConfig() (*Config, error) {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Gradebook")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", defaultSecretKey)
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("defaultFromName", "Gradebook")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.sessionMaxAge", 7*24*time.Hour)
	v.SetDefault("server.cookieSecure", false)
	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.path", "gradebook.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "gradebook")
	v.SetDefault("database.disableTLS", false)
	v.SetDefault("database.maxOpenConns", 20)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetDefault("testMode", env == "TEST")
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:            env,
		Debug:          v.GetBool("debug"),
		TestMode:       v.GetBool("testMode"),
		AppName:        v.GetString("appName"),
		Build:          v.GetString("build"),
		SecretKey:      v.GetString("secretKey"),
		RollbarToken:   v.GetString("rollbarToken"),
		SendgridApiKey: v.GetString("sendgridApiKey"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromName"),
			Address: v.GetString("defaultFromEmail"),
		},
		Server: ServerConfig{
			Address:       v.GetString("server.address"),
			Host:          v.GetString("server.host"),
			SessionMaxAge: v.GetDuration("server.sessionMaxAge"),
			CookieSecure:  v.GetBool("server.cookieSecure"),
		},
		Database: DatabaseConfig{
			Engine:       strings.ToLower(v.GetString("database.engine")),
			Path:         v.GetString("database.path"),
			Host:         v.GetString("database.host"),
			Port:         v.GetString("database.port"),
			User:         v.GetString("database.user"),
			Password:     v.GetString("database.password"),
			Name:         v.GetString("database.name"),
			DisableTLS:   v.GetBool("database.disableTLS"),
			MaxOpenConns: v.GetInt("database.maxOpenConns"),
		},
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	switch c.Database.Engine {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported database engine %q", c.Database.Engine)
	}
	if c.SecretKey == "" {
		return errors.New("config: secretKey is required")
	}
	if c.SecretKey == defaultSecretKey && c.Env != "DEV" && c.Env != "TEST" {
		return errors.Errorf("config: %s_SECRETKEY must be set in %s", c.Env, c.Env)
	}
	return nil
}
