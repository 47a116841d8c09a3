// Package config loads solver, benchmark and server settings from a YAML file,
// an optional .env file and the process environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"pdpdispatch/internal/opt"
)

type Bench struct {
	InstancesDir string `yaml:"instances_dir"`
	Split        string `yaml:"split"`
	Sizes        []int  `yaml:"sizes"`
	// Limits caps the number of files per size; sizes not listed run every file.
	Limits         map[int]int `yaml:"limits"`
	ResultsDir     string      `yaml:"results_dir"`
	WriteSolutions bool        `yaml:"write_solutions"`
	Workers        int         `yaml:"workers"`
}

type Server struct {
	Port string `yaml:"port"`
	// SolveRate is the sustained number of solve requests per second; 0 disables limiting.
	SolveRate  float64 `yaml:"solve_rate"`
	SolveBurst int     `yaml:"solve_burst"`
	// MaxSolveSeconds caps the wall-clock time of every API solve.
	MaxSolveSeconds float64 `yaml:"max_solve_seconds"`
}

type Config struct {
	Solver      opt.Params `yaml:"solver"`
	Bench       Bench      `yaml:"bench"`
	Server      Server     `yaml:"server"`
	DatabaseURL string     `yaml:"database_url"`
	RedisURL    string     `yaml:"redis_url"`
	LogLevel    string     `yaml:"log_level"`
	LogPretty   bool       `yaml:"log_pretty"`
}

func Default() Config {
	return Config{
		Solver: opt.DefaultParams(),
		Bench: Bench{
			InstancesDir: "instances",
			Split:        "test",
			Sizes:        []int{50, 100, 200, 500, 1000, 2000},
			Limits:       map[int]int{1000: 5, 2000: 5, 5000: 5, 10000: 5},
			ResultsDir:   "results",
			Workers:      1,
		},
		Server: Server{
			Port:            "8080",
			SolveRate:       2,
			SolveBurst:      4,
			MaxSolveSeconds: 60,
		},
		LogLevel: "info",
	}
}

// Load reads path (optional) over the defaults, then .env and the environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, ".env")
}

// LoadWithEnv is Load with an explicit dotenv file. Missing dotenv files are ignored;
// variables already set in the environment win over the file.
func LoadWithEnv(path, envFile string) (Config, error) {
	cfg := Default()
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		cfg.LogPretty = b
	}
	if v := os.Getenv("PDP_ALGORITHM"); v != "" {
		cfg.Solver.Algorithm = strings.ToLower(v)
	}
	if v := os.Getenv("PDP_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PDP_SEED: %w", err)
		}
		cfg.Solver.Seed = seed
	}
	return nil
}

func (c Config) Validate() error {
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	for _, s := range c.Bench.Sizes {
		if s <= 0 {
			return fmt.Errorf("bench: invalid size %d", s)
		}
	}
	if c.Bench.Workers < 0 {
		return fmt.Errorf("bench: workers must be >= 0")
	}
	if c.Server.SolveRate < 0 || c.Server.SolveBurst < 0 || c.Server.MaxSolveSeconds < 0 {
		return fmt.Errorf("server: limits must be >= 0")
	}
	return nil
}
