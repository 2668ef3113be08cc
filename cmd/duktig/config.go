package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// settings is the merged view of the config file and command-line flags;
// flags win over the file wherever both are set.
type settings struct {
	Engine  string `toml:"engine"`
	Lib     string `toml:"lib"`
	Memory  string `toml:"memory"`
	NoCache bool   `toml:"no_cache"`
	Timeout string `toml:"timeout"`
}

func defaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "duktig", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "duktig", "config.toml")
}

// loadConfig reads a settings file. A missing default file is not an error;
// a missing explicitly-requested file is.
func loadConfig(path string, explicit bool) (settings, error) {
	var cfg settings
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return settings{}, nil
		}
		return settings{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// resolveSettings loads the config file and layers changed flags on top.
func resolveSettings(cmd *cobra.Command) (settings, error) {
	pf := cmd.Root().PersistentFlags()

	path, _ := pf.GetString("config")
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return settings{}, err
	}

	if pf.Changed("engine") {
		cfg.Engine, _ = pf.GetString("engine")
	}
	if pf.Changed("lib") {
		cfg.Lib, _ = pf.GetString("lib")
	}
	if pf.Changed("memory") {
		cfg.Memory, _ = pf.GetString("memory")
	}
	if pf.Changed("no-cache") {
		cfg.NoCache, _ = pf.GetBool("no-cache")
	}
	return cfg, nil
}

// execTimeout resolves the evaluation budget: the command's --timeout flag
// when set, else the config file's, else the flag default.
func execTimeout(cmd *cobra.Command, cfg settings) (time.Duration, error) {
	flagTimeout, _ := cmd.Flags().GetDuration("timeout")
	if cmd.Flags().Changed("timeout") || cfg.Timeout == "" {
		return flagTimeout, nil
	}
	d, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config timeout: %w", err)
	}
	return d, nil
}
