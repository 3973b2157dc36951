// Package config holds the runtime settings a dial session starts from.
// Settings come from an optional YAML file and can be changed live by the
// config command.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Endpoint is the gateway address calls are sent to.
	Endpoint string `yaml:"endpoint"`
	// Offline queues calls in the message store instead of sending them.
	Offline bool `yaml:"offline"`
	// StorePath locates the offline message store.
	StorePath string `yaml:"store_path"`
	// Services maps import aliases to target ids ahead of any script.
	Services map[string]string `yaml:"services"`
}

func Default() *Config {
	return &Config{
		Endpoint:  "localhost:4943",
		StorePath: "dial-messages.db",
		Services:  map[string]string{},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not
// an error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Services == nil {
		cfg.Services = map[string]string{}
	}
	return cfg, nil
}

// Set applies one config command key. Unknown keys are an error so typos
// fail the script instead of being silently dropped.
func (c *Config) Set(key, val string) error {
	switch key {
	case "endpoint":
		c.Endpoint = val
	case "offline":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("config offline: %q is not a bool", val)
		}
		c.Offline = b
	case "store_path":
		c.StorePath = val
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
