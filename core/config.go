package core

import (
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
		Build   string
		Env     string // DEV (local; default), TEST, QA, PROD
		Debug   bool
		AppName string
		WorkDir string

		SecretKey            string
		RollbarToken         string
		SendgridApiKey       string
		defaultFromEmail     string
		FrontendBaseURL      string
		PasswordResetTimeout time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Client   ClientConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string // postgres | inmem
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	ClientConfig struct {
		APIBaseURL   string // explicit override; beats the stored environment
		KeystorePath string

		NotificationInterval time.Duration
		ChatInterval         time.Duration
		UnreadInterval       time.Duration
		DeskMessageInterval  time.Duration
		DeskListInterval     time.Duration
		ActivityCheck        time.Duration
		IdleAfter            time.Duration
		FilterDebounce       time.Duration
		RequestTimeout       time.Duration
	}
)

// Address returns the database host:port.
func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}

func (conf *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
}

func (conf *Config) TestMode() bool { return conf.Env == "TEST" }

// NewConfig reads the configuration from the environment.
// Variables are looked up with the ENV name as prefix, eg. DEV_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Educational Platform")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("frontendBaseURL", "http://localhost:5173")
	v.SetDefault("passwordResetTimeout", 3*24*time.Hour)

	v.SetDefault("server.host", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 7*24*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "edplatform")
	v.SetDefault("database.user", "edplatform")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("client.apiBaseURL", "")
	v.SetDefault("client.keystorePath", "")
	v.SetDefault("client.notificationInterval", 15*time.Second)
	v.SetDefault("client.chatInterval", 3*time.Second)
	v.SetDefault("client.unreadInterval", 10*time.Second)
	v.SetDefault("client.deskMessageInterval", 10*time.Second)
	v.SetDefault("client.deskListInterval", 30*time.Second)
	v.SetDefault("client.activityCheck", time.Minute)
	v.SetDefault("client.idleAfter", 2*time.Minute)
	v.SetDefault("client.filterDebounce", 300*time.Millisecond)
	v.SetDefault("client.requestTimeout", 30*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

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
	v.AutomaticEnv()

	return &Config{
		Build:                v.GetString("build"),
		Env:                  env,
		Debug:                v.GetBool("debug"),
		AppName:              v.GetString("appName"),
		WorkDir:              wd,
		SecretKey:            v.GetString("secretKey"),
		RollbarToken:         v.GetString("rollbarToken"),
		SendgridApiKey:       v.GetString("sendgridApiKey"),
		defaultFromEmail:     v.GetString("defaultFromEmail"),
		FrontendBaseURL:      v.GetString("frontendBaseURL"),
		PasswordResetTimeout: v.GetDuration("passwordResetTimeout"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Client: ClientConfig{
			APIBaseURL:           v.GetString("client.apiBaseURL"),
			KeystorePath:         v.GetString("client.keystorePath"),
			NotificationInterval: v.GetDuration("client.notificationInterval"),
			ChatInterval:         v.GetDuration("client.chatInterval"),
			UnreadInterval:       v.GetDuration("client.unreadInterval"),
			DeskMessageInterval:  v.GetDuration("client.deskMessageInterval"),
			DeskListInterval:     v.GetDuration("client.deskListInterval"),
			ActivityCheck:        v.GetDuration("client.activityCheck"),
			IdleAfter:            v.GetDuration("client.idleAfter"),
			FilterDebounce:       v.GetDuration("client.filterDebounce"),
			RequestTimeout:       v.GetDuration("client.requestTimeout"),
		},
	}
}
