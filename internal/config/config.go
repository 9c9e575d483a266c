package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port"`
}

type ProviderConfig struct {
	BaseURL        string        `yaml:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RequestsPerMin int           `yaml:"requests_per_min"`
}

type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SnapshotPath  string        `yaml:"snapshot_path"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

type RefresherConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	Server       ServerConfig    `yaml:"server"`
	Provider     ProviderConfig  `yaml:"provider"`
	Cache        CacheConfig     `yaml:"cache"`
	Refresher    RefresherConfig `yaml:"refresher"`
	StartingCash float64         `yaml:"starting_cash"`
}

const (
	_portDefault           = "8080"
	_providerURLDefault    = "https://query1.finance.yahoo.com"
	_requestTimeoutDefault = 10 * time.Second
	_requestsPerMinDefault = 120
	_ttlDefault            = 24 * time.Hour
	_snapshotPathDefault   = "./quote-cache.json"
	_flushIntervalDefault  = 30 * time.Second
	_refreshDefault        = 15 * time.Minute
	_startingCashDefault   = 10000
)

func (c *Config) ValidateAndSetup() error {
	if c.Server.Port == "" {
		c.Server.Port = _portDefault
	}

	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = _providerURLDefault
	}
	if _, err := url.Parse(c.Provider.BaseURL); err != nil {
		return fmt.Errorf("%w: invalid provider base url", err)
	}
	if c.Provider.RequestTimeout <= 0 {
		c.Provider.RequestTimeout = _requestTimeoutDefault
	}
	if c.Provider.RequestsPerMin <= 0 {
		c.Provider.RequestsPerMin = _requestsPerMinDefault
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = _ttlDefault
	}
	if c.Cache.SnapshotPath == "" {
		c.Cache.SnapshotPath = _snapshotPathDefault
	}
	if c.Cache.FlushInterval <= 0 {
		c.Cache.FlushInterval = _flushIntervalDefault
	}

	if c.Refresher.Interval <= 0 {
		c.Refresher.Interval = _refreshDefault
	}

	if c.StartingCash <= 0 {
		c.StartingCash = _startingCashDefault
	}

	return nil
}

func LoadConfig(filename string) (Config, error) {
	var cfg Config
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
