package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Pipeline struct {
		SharedDir       string `yaml:"shared_dir"`
		PollIntervalSec int    `yaml:"poll_interval_sec"`
		Workers         int    `yaml:"workers"`
	} `yaml:"pipeline"`

	Analysis struct {
		RulesDir            string `yaml:"rules_dir"`
		MaxDepth            int    `yaml:"max_depth"`
		MaxArchiveMembers   int    `yaml:"max_archive_members"`
		MaxScanBytes        int64  `yaml:"max_scan_bytes"`
		ExtractorTimeoutSec int    `yaml:"extractor_timeout_sec"`
	} `yaml:"analysis"`

	Watch struct {
		Directory string   `yaml:"directory"`
		FileTypes []string `yaml:"file_types"`
		Recursive bool     `yaml:"recursive"`
	} `yaml:"watch"`

	Server struct {
		Port        int               `yaml:"port"`
		APIKeys     map[string]string `yaml:"api_keys"`
		CORSOrigins []string          `yaml:"cors_origins"`
		RateLimit   struct {
			Capacity     int `yaml:"capacity"`
			RefillPerSec int `yaml:"refill_per_sec"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres | "" (disabled)
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	AI struct {
		Enabled bool   `yaml:"enabled"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"ai"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// Load baca file config.yaml lalu isi default
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if cfg.Pipeline.SharedDir == "" {
		return nil, fmt.Errorf("pipeline.shared_dir not set in %s", path)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.PollIntervalSec <= 0 {
		c.Pipeline.PollIntervalSec = 10
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 1
	}
	if c.Analysis.MaxDepth <= 0 {
		c.Analysis.MaxDepth = 3
	}
	if c.Analysis.MaxArchiveMembers <= 0 {
		c.Analysis.MaxArchiveMembers = 100
	}
	if c.Analysis.MaxScanBytes <= 0 {
		c.Analysis.MaxScanBytes = 10 * 1024 * 1024
	}
	if c.Analysis.ExtractorTimeoutSec <= 0 {
		c.Analysis.ExtractorTimeoutSec = 120
	}
	if len(c.Watch.FileTypes) == 0 {
		c.Watch.FileTypes = []string{"*"}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit.Capacity <= 0 {
		c.Server.RateLimit.Capacity = 10
	}
	if c.Server.RateLimit.RefillPerSec <= 0 {
		c.Server.RateLimit.RefillPerSec = 1
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = filepath.Join(c.Pipeline.SharedDir, "logs")
	}
}

// PollInterval durasi polling antar siklus
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Pipeline.PollIntervalSec) * time.Second
}

// ExtractorTimeout batas waktu subprocess extractor eksternal
func (c *Config) ExtractorTimeout() time.Duration {
	return time.Duration(c.Analysis.ExtractorTimeoutSec) * time.Second
}

// Direktori turunan di bawah shared_dir. Layout ini kontrak antar proses,
// jadi semua binary menghitungnya dari satu tempat.

func (c *Config) QueueDir() string      { return filepath.Join(c.Pipeline.SharedDir, "queue") }
func (c *Config) QueuePath() string     { return filepath.Join(c.QueueDir(), "queue.json") }
func (c *Config) QueueLockPath() string { return c.QueuePath() + ".lock" }
func (c *Config) IntakeDir() string     { return filepath.Join(c.QueueDir(), "files") }
func (c *Config) ProcessingDir() string { return filepath.Join(c.Pipeline.SharedDir, "processed") }
func (c *Config) StaticOutDir() string {
	return filepath.Join(c.Pipeline.SharedDir, "static-output")
}
func (c *Config) ReportsDir() string    { return filepath.Join(c.Pipeline.SharedDir, "reports") }
func (c *Config) UnpackRootDir() string { return filepath.Join(c.Pipeline.SharedDir, "unpacked") }
func (c *Config) QuarantineDir() string { return filepath.Join(c.Pipeline.SharedDir, "quarantine") }

// RulesDir falls back to a directory under shared_dir when unset.
func (c *Config) EffectiveRulesDir() string {
	if c.Analysis.RulesDir != "" {
		return c.Analysis.RulesDir
	}
	return filepath.Join(c.Pipeline.SharedDir, "rules")
}

// EnsureDirs membuat semua direktori pipeline yang dibutuhkan
func (c *Config) EnsureDirs() error {
	dirs := []string{
		c.QueueDir(),
		c.IntakeDir(),
		c.ProcessingDir(),
		c.StaticOutDir(),
		c.ReportsDir(),
		c.UnpackRootDir(),
		c.QuarantineDir(),
		c.Logging.Dir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
