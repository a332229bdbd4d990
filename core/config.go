package core

import (
	"fmt"
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
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string
		Build    string

		SecretKey        string
		DefaultFromEmail mail.Address
		StaffEmails      []mail.Address
		SendgridApiKey   string
		RollbarToken     string

		// AttendanceAlertThreshold is the percentage below which students are
		// flagged for follow-up.
		AttendanceAlertThreshold float64

		Server   ServerConfig
		Database DatabaseConfig
	}

	ServerConfig struct {
		Host               string
		Port               int
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string
		Name       string
		User       string
		Password   string
		Host       string
		Port       int
		DisableTLS bool
	}
)

func (dbc DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", dbc.Host, dbc.Port)
}

func (sc ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", sc.Host, sc.Port)
}

// NewConfig loads the app configuration from the environment.
// A `config/.env.<env>` file is loaded first if it exists so local overrides
// do not need to be exported.
func NewConfig() (*Config, error) {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Escolar")
	conf.SetDefault("secretKey", "x3k$9m@vq1!wz&c8y(h4u)p6t*b2n^e7r+g5s=j0l_a#f%d")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("staffEmails", "")
	conf.SetDefault("attendanceAlertThreshold", 75.0)
	conf.SetDefault("serverHost", "0.0.0.0")
	conf.SetDefault("serverPort", 8000)
	conf.SetDefault("shutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbName", "escolar")
	conf.SetDefault("dbUser", "postgres")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", 5432)
	conf.SetDefault("dbDisableTLS", true)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}
	conf.AutomaticEnv()

	c := &Config{
		Env:                      env,
		Debug:                    conf.GetBool("debug"),
		TestMode:                 testMode,
		AppName:                  conf.GetString("appName"),
		Build:                    conf.GetString("build"),
		SecretKey:                conf.GetString("secretKey"),
		DefaultFromEmail:         mail.Address{Name: conf.GetString("appName"), Address: conf.GetString("defaultFromEmail")},
		StaffEmails:              parseEmails(conf.GetString("staffEmails")),
		SendgridApiKey:           conf.GetString("sendgridApiKey"),
		RollbarToken:             conf.GetString("rollbarToken"),
		AttendanceAlertThreshold: conf.GetFloat64("attendanceAlertThreshold"),
		Server: ServerConfig{
			Host:               conf.GetString("serverHost"),
			Port:               conf.GetInt("serverPort"),
			ShutdownTimeout:    conf.GetDuration("shutdownTimeout"),
			JWTExpirationDelta: conf.GetDuration("jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:     conf.GetString("dbEngine"),
			Name:       conf.GetString("dbName"),
			User:       conf.GetString("dbUser"),
			Password:   conf.GetString("dbPassword"),
			Host:       conf.GetString("dbHost"),
			Port:       conf.GetInt("dbPort"),
			DisableTLS: conf.GetBool("dbDisableTLS"),
		},
	}
	return c, nil
}

func parseEmails(s string) []mail.Address {
	parts := strings.Split(s, ",")
	addrs := make([]mail.Address, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		addrs = append(addrs, mail.Address{Address: p})
	}
	return addrs
}
