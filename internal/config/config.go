package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Stripe    StripeConfig
	Admin     AdminConfig
	RateLimit RateLimitConfig
	Worker    WorkerConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	PublicDomain   string        `mapstructure:"publicDomain"`
	StaticDir      string        `mapstructure:"staticDir"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	ShutdownPeriod time.Duration `mapstructure:"shutdownPeriod"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StripeConfig struct {
	APIKey         string        `mapstructure:"apikey"`
	WebhookSecret  string        `mapstructure:"webhooksecret"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
}

// AdminConfig carries the single shared credential for machine-to-machine
// endpoints. PasswordHash is a bcrypt hash, never the plain password
// (cmd/hashpassword mints one).
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"passwordhash"`
}

type RouteLimit struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type RateLimitConfig struct {
	// Store selects the counter backend: "redis" (correct behind a load
	// balancer) or "memory" (single instance, tests).
	Store    string     `mapstructure:"store"`
	Checkout RouteLimit `mapstructure:"checkout"`
	License  RouteLimit `mapstructure:"license"`
}

type WorkerConfig struct {
	EventRetention time.Duration `mapstructure:"eventRetention"`
	PruneSchedule  string        `mapstructure:"pruneSchedule"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func LoadConfig(configPath string) (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables and config file")
	}

	viper.SetDefault("server.port", "4242")
	viper.SetDefault("server.publicDomain", "http://localhost:4242")
	viper.SetDefault("server.staticDir", "./public")
	viper.SetDefault("server.readTimeout", 5*time.Second)
	viper.SetDefault("server.writeTimeout", 10*time.Second)
	viper.SetDefault("server.idleTimeout", 120*time.Second)
	viper.SetDefault("server.shutdownPeriod", 15*time.Second)

	viper.SetDefault("database.maxOpenConns", 25)
	viper.SetDefault("database.maxIdleConns", 25)
	viper.SetDefault("database.connMaxLifetime", 5*time.Minute)

	viper.SetDefault("redis.db", "0")

	viper.SetDefault("stripe.requestTimeout", 30*time.Second)

	viper.SetDefault("ratelimit.store", "redis")
	viper.SetDefault("ratelimit.checkout.requests", 5)
	viper.SetDefault("ratelimit.checkout.window", time.Minute)
	viper.SetDefault("ratelimit.license.requests", 10)
	viper.SetDefault("ratelimit.license.window", time.Minute)

	viper.SetDefault("worker.eventRetention", 30*24*time.Hour)
	viper.SetDefault("worker.pruneSchedule", "@every 24h")

	viper.SetDefault("log.level", "info")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AllowEmptyEnv(true)

	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			log.Printf("Warning: could not read config file: %s. Error: %v\n", configPath, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Stripe.APIKey == "" {
		return nil, fmt.Errorf("stripe API key is required (STRIPE_APIKEY)")
	}
	if cfg.Stripe.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret is required (STRIPE_WEBHOOKSECRET)")
	}
	if cfg.Admin.Username == "" || cfg.Admin.PasswordHash == "" {
		return nil, fmt.Errorf("admin credentials are required (ADMIN_USERNAME, ADMIN_PASSWORDHASH)")
	}

	return &cfg, nil
}
