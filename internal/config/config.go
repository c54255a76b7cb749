package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress       string
	DatabaseURI      string
	TokenSecret      string
	OrderExpiry      time.Duration
	ExpirePollPeriod time.Duration
	ExpireBatchSize  int
	WorkerPoolSize   int
	ShutdownTimeout  time.Duration
}

const (
	defaultRunAddress       = ":8080"
	defaultTokenSecret      = "change-me-in-production"
	defaultOrderExpiry      = 30 * time.Minute
	defaultExpirePollPeriod = time.Minute
	defaultExpireBatchSize  = 32
	defaultWorkerPoolSize   = 4
	defaultShutdownTimeout  = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:       getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:      getString(lookup, "DATABASE_URI", ""),
		TokenSecret:      getString(lookup, "TOKEN_SECRET", defaultTokenSecret),
		OrderExpiry:      getDuration(lookup, "ORDER_EXPIRY", defaultOrderExpiry),
		ExpirePollPeriod: getDuration(lookup, "EXPIRE_POLL_PERIOD", defaultExpirePollPeriod),
		ExpireBatchSize:  getInt(lookup, "EXPIRE_BATCH_SIZE", defaultExpireBatchSize),
		WorkerPoolSize:   getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:  getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("marketplace", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		orderExpiryStr     = cfg.OrderExpiry.String()
		pollPeriodStr      = cfg.ExpirePollPeriod.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "Secret for signing auth tokens")
	fs.StringVar(&orderExpiryStr, "order-expiry", orderExpiryStr, "Age after which unpaid pending orders are cancelled")
	fs.StringVar(&pollPeriodStr, "expire-poll", pollPeriodStr, "Interval between order expiry sweeps")
	fs.IntVar(&cfg.ExpireBatchSize, "expire-batch", cfg.ExpireBatchSize, "Maximum orders per expiry sweep")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent expiry workers")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.OrderExpiry, err = time.ParseDuration(orderExpiryStr); err != nil {
		return nil, fmt.Errorf("invalid order expiry: %w", err)
	}

	if cfg.ExpirePollPeriod, err = time.ParseDuration(pollPeriodStr); err != nil {
		return nil, fmt.Errorf("invalid expire poll period: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("TOKEN_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read token secret file: %w", err)
		}
		cfg.TokenSecret = string(content)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.ExpireBatchSize <= 0 {
		cfg.ExpireBatchSize = defaultExpireBatchSize
	}

	if cfg.OrderExpiry <= 0 {
		cfg.OrderExpiry = defaultOrderExpiry
	}

	if cfg.ExpirePollPeriod <= 0 {
		cfg.ExpirePollPeriod = defaultExpirePollPeriod
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
