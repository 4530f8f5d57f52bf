package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Checker   CheckerConfig
	Offload   OffloadConfig
	Notify    NotifyConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdleConns   int
}

type RedisConfig struct {
	URL string
}

type SchedulerConfig struct {
	Identity           string
	TickInterval       time.Duration
	FullSweepInterval  time.Duration
	StaleSweepInterval time.Duration
	StaleBatchAfter    time.Duration
	BatchSize          int
	LeaseTTL           time.Duration
}

type CheckerConfig struct {
	Timeout         time.Duration
	FallbackTimeout time.Duration
}

type OffloadConfig struct {
	BatchSize   int
	TokenSecret string
}

type NotifyConfig struct {
	SlackWebhookURL string
}

type WorkerConfig struct {
	Count        int
	PopTimeout   time.Duration
	ChecksPerSec float64
	ChecksBurst  int
}

func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("DOMAINWATCH")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.maxconnections", 25)
	viper.SetDefault("database.maxidleconns", 5)
	viper.SetDefault("scheduler.identity", "scheduler")
	viper.SetDefault("scheduler.tickinterval", "1m")
	viper.SetDefault("scheduler.fullsweepinterval", "12h")
	viper.SetDefault("scheduler.stalesweepinterval", "1h")
	viper.SetDefault("scheduler.stalebatchafter", "2h")
	viper.SetDefault("scheduler.batchsize", 500)
	viper.SetDefault("scheduler.leasettl", "55s")
	viper.SetDefault("checker.timeout", "8s")
	viper.SetDefault("checker.fallbacktimeout", "5s")
	viper.SetDefault("offload.batchsize", 100)
	viper.SetDefault("worker.count", 10)
	viper.SetDefault("worker.poptimeout", "5s")
	viper.SetDefault("worker.checkspersec", 50)
	viper.SetDefault("worker.checksburst", 100)

	var cfg Config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Override with environment variables
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		cfg.Redis.URL = url
	}
	if secret := os.Getenv("WORKER_TOKEN_SECRET"); secret != "" {
		cfg.Offload.TokenSecret = secret
	}
	if url := os.Getenv("SLACK_WEBHOOK_URL"); url != "" {
		cfg.Notify.SlackWebhookURL = url
	}

	return &cfg, nil
}
