package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/exac-annot/internal/exac"
)

// setDefaults registers the default value of every config key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("exac.url", exac.DefaultURL)
	v.SetDefault("exac.timeout", "60s")
	v.SetDefault("exac.max_retries", 3)
	v.SetDefault("exac.retry_interval", "1s")
	v.SetDefault("exac.batch_size", 0)
	v.SetDefault("exac.concurrency", 4)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", "")
}

// loadOptions reads the lookup client settings.
func loadOptions(v *viper.Viper) (exac.Options, error) {
	opts := exac.Options{
		URL:           v.GetString("exac.url"),
		Timeout:       v.GetDuration("exac.timeout"),
		MaxRetries:    v.GetInt("exac.max_retries"),
		RetryInterval: v.GetDuration("exac.retry_interval"),
		BatchSize:     v.GetInt("exac.batch_size"),
		Concurrency:   v.GetInt("exac.concurrency"),
	}
	switch {
	case opts.URL == "":
		return exac.Options{}, fmt.Errorf("config: exac.url must not be empty")
	case opts.MaxRetries < 0:
		return exac.Options{}, fmt.Errorf("config: exac.max_retries must be >= 0, got %d", opts.MaxRetries)
	case opts.BatchSize < 0:
		return exac.Options{}, fmt.Errorf("config: exac.batch_size must be >= 0, got %d", opts.BatchSize)
	}
	return opts, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage exac-annot configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.exac-annot.yaml.",
		Example: `  exac-annot config                            # show all config
  exac-annot config set exac.batch_size 500     # query ExAC in chunks of 500
  exac-annot config set cache.enabled true      # cache ExAC responses
  exac-annot config get exac.url                # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Printf("# Config file: %s\n", used)
	} else {
		fmt.Println("# No config file. Defaults shown; write one with: exac-annot config set <key> <value>")
	}
	fmt.Print(string(out))
	return nil
}

func runConfigSet(key, value string) error {
	// Parse boolean-like values
	switch value {
	case "true", "yes", "on":
		viper.Set(key, true)
	case "false", "no", "off":
		viper.Set(key, false)
	default:
		viper.Set(key, value)
	}

	// Ensure config file exists
	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgFile = filepath.Join(home, configName+".yaml")
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	if !viper.IsSet(key) {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(viper.Get(key))
	return nil
}
