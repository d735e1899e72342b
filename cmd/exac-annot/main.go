// Package main provides the exac-annot command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// configName is the config file base name in the home directory.
const configName = ".exac-annot"

// usageError marks errors caused by how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}

	var ue *usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "exac-annot",
		Short: "Annotate VCF variants with ExAC frequency and consequence data",
		Long: `exac-annot annotates the variants of a VCF file with read-depth statistics,
ExAC allele frequencies and the most severe ExAC consequence. It writes an
annotated VCF with an ANNOT INFO field and a CSV table.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
	root.SetVersionTemplate("exac-annot version {{.Version}}\n")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	logger := func() *zap.Logger { return newLogger(verbose) }

	root.AddCommand(newAnnotateCmd(logger))
	root.AddCommand(newConfigCmd())
	root.AddCommand(newCacheCmd())

	return root
}

// initConfig loads ~/.exac-annot.yaml and EXAC_ANNOT_* environment variables.
func initConfig() error {
	setDefaults(viper.GetViper())

	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.SetEnvPrefix("EXAC_ANNOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// newLogger builds a stderr logger. Verbose mode switches to the
// development encoder at debug level.
func newLogger(verbose bool) *zap.Logger {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// defaultCachePath is used when the cache is enabled without a path.
func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(configName, "cache.duckdb")
	}
	return filepath.Join(home, configName, "cache.duckdb")
}
