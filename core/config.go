package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers
const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type (
	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		WorkDir      string

		Server   ServerConfig
		Storage  StorageConfig
		Database DatabaseConfig
		Redis    RedisConfig
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableReqLogs            bool
	}

	StorageConfig struct {
		Driver  string // file | postgres | redis
		DataDir string
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
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

// NewConfig loads the application configuration from defaults, `config/.env.<env>` and the environment.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Gakuseki")
	v.SetDefault("secretKey", "d3v-0nly$k3y!gakuseki(n0t-for-prod)7q#x2")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("serverHost", "0.0.0.0:8000")
	v.SetDefault("serverDebugHost", "0.0.0.0:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("serverDisableReqLogs", false)
	v.SetDefault("jwtExpirationDelta", 8*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)
	v.SetDefault("storageDriver", StorageFile)
	v.SetDefault("storageDataDir", "data")
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", 5432)
	v.SetDefault("dbName", "gakuseki")
	v.SetDefault("dbUser", "gakuseki")
	v.SetDefault("dbPassword", "")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("redisAddr", "localhost:6379")
	v.SetDefault("redisPassword", "")
	v.SetDefault("redisDB", 0)
	v.SetDefault("redisPrefix", "gakuseki:")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
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
	v.AutomaticEnv()

	dataDir := v.GetString("storageDataDir")
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(wd, dataDir)
	}

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug") && env != "PROD",
		TestMode:     testMode,
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      wd,
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			DisableReqLogs:            v.GetBool("serverDisableReqLogs"),
		},
		Storage: StorageConfig{
			Driver:  strings.ToLower(v.GetString("storageDriver")),
			DataDir: dataDir,
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetInt("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redisAddr"),
			Password: v.GetString("redisPassword"),
			DB:       v.GetInt("redisDB"),
			Prefix:   v.GetString("redisPrefix"),
		},
	}
}
