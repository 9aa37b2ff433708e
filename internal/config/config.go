// Package config loads optional YAML configuration for the udpbench CLI.
// Explicitly set flags take precedence over file values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts either a bare number of seconds or a Go duration string
// ("500ms", "3s") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}
	switch value.Tag {
	case "!!int", "!!float":
		var secs float64
		if err := value.Decode(&secs); err != nil {
			return err
		}
		*d = Duration(time.Duration(secs * float64(time.Second)))
		return nil
	default:
		var raw string
		if err := value.Decode(&raw); err != nil {
			return err
		}
		if raw == "" {
			*d = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	}
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// SearchConfig holds capacity search settings.
type SearchConfig struct {
	Low        int      `yaml:"low"`
	High       int      `yaml:"high"`
	Iterations int      `yaml:"iterations"`
	Threshold  float64  `yaml:"threshold"`
	Pause      Duration `yaml:"pause"`
}

// SweepConfig holds latency sweep settings.
type SweepConfig struct {
	Rates    []int    `yaml:"rates"`
	Cooldown Duration `yaml:"cooldown"`
	Shuffle  *bool    `yaml:"shuffle"`
}

// Config mirrors the CLI flags. Zero values mean "not set".
type Config struct {
	Target      string   `yaml:"target"`
	Port        int      `yaml:"port"`
	Bind        string   `yaml:"bind"`
	Rate        string   `yaml:"rate"`
	Count       int      `yaml:"count"`
	Payload     string   `yaml:"payload"`
	Label       string   `yaml:"label"`
	Drain       Duration `yaml:"drain"`
	ReadTimeout Duration `yaml:"read_timeout"`
	MaxDuration Duration `yaml:"max_duration"`

	Search SearchConfig `yaml:"search"`
	Sweep  SweepConfig  `yaml:"sweep"`

	ReportDir string `yaml:"report_dir"`
	WatchAddr string `yaml:"watch_addr"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}
