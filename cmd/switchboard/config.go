package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/switchboard/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify switchboard configuration.

Without arguments, displays the effective configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the value in the user config.

Configuration is stored at ~/.config/switchboard/config.yaml
Project-specific overrides can be placed in .switchboard.yaml
Secrets are masked on display.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			return setConfigKey(cmd, args[0], args[1])
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if len(args) == 1 {
			return displayConfigKey(cmd, cfg, args[0])
		}
		return displayAllConfig(cmd, cfg)
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()
	for _, key := range config.Keys() {
		value, err := configValue(cfg, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", key, value)
	}
	for _, s := range cfg.MCPServers() {
		fmt.Fprintf(out, "tools.server: %s (%s)\n", s.Name, s.Command)
	}
	if path := config.GetProjectConfigPath(); path != "" {
		fmt.Fprintf(out, "\nproject config: %s\n", path)
	}
	fmt.Fprintf(out, "user config: %s\n", config.GetUserConfigPath())
	return nil
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cmd *cobra.Command, cfg *config.Config, key string) error {
	value, err := configValue(cfg, key)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

// setConfigKey sets a configuration value and saves the user config.
func setConfigKey(cmd *cobra.Command, key, value string) error {
	cfg, err := config.LoadFile(config.GetUserConfigPath())
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	shown := value
	if config.IsSecret(key) {
		shown = config.MaskAPIKey(value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, shown)
	return nil
}

func configValue(cfg *config.Config, key string) (string, error) {
	value, err := cfg.Get(key)
	if err != nil {
		return "", err
	}
	if config.IsSecret(key) {
		return config.MaskAPIKey(value), nil
	}
	return value, nil
}
