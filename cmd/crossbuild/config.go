package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config keys.
const (
	keyDB            = "db"
	keySourceTable   = "tables.source"
	keyTargetTable   = "tables.target"
	keyCacheBackend  = "cache.backend"
	keyCacheDir      = "cache.dir"
	keyCacheDuckDB   = "cache.duckdb"
	keyCacheForce    = "cache.force"
	keyCacheLRUSize  = "cache.lru_size"
	keyChunkSize     = "run.chunk_size"
	keyWorkers       = "run.workers"
	keyDataVersion   = "run.data_version"
	keyWeights       = "scoring.weights"
	keyOutputTSV     = "output.tsv"
	keyOutputDuckDB  = "output.duckdb"
	keyOutputMetrics = "output.metrics"
	keyVerbose       = "verbose"
)

// Cache backends.
const (
	backendFile   = "file"
	backendDuckDB = "duckdb"
)

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"db":            keyDB,
	"source-table":  keySourceTable,
	"target-table":  keyTargetTable,
	"cache-backend": keyCacheBackend,
	"cache-dir":     keyCacheDir,
	"cache-duckdb":  keyCacheDuckDB,
	"force":         keyCacheForce,
	"lru-size":      keyCacheLRUSize,
	"chunk-size":    keyChunkSize,
	"workers":       keyWorkers,
	"data-version":  keyDataVersion,
	"weights":       keyWeights,
	"output":        keyOutputTSV,
	"output-duckdb": keyOutputDuckDB,
	"metrics":       keyOutputMetrics,
	"verbose":       keyVerbose,
}

func setDefaults() {
	viper.SetDefault(keySourceTable, "hg19_vep")
	viper.SetDefault(keyTargetTable, "hg38_vep")
	viper.SetDefault(keyCacheBackend, backendFile)
	viper.SetDefault(keyCacheDir, defaultCacheDir())
	viper.SetDefault(keyCacheLRUSize, 50000)
	viper.SetDefault(keyChunkSize, 10000)
	viper.SetDefault(keyWorkers, 0)
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".crossbuild", "cache")
	}
	return filepath.Join(dir, "crossbuild")
}

// bindFlags binds every flag of cmd that has a config key, so flags override
// the config file and environment.
func bindFlags(cmd *cobra.Command) error {
	names := make([]string, 0, len(flagKeys))
	for name := range flagKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(flagKeys[name], f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage crossbuild configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/" + configName + ".",
		Example: `  crossbuild config                          # show all config
  crossbuild config set db /data/variants.db    # set the input database
  crossbuild config set cache.backend duckdb    # cache records in DuckDB
  crossbuild config get run.chunk_size          # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
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
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	settings := viper.AllSettings()
	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if f := viper.ConfigFileUsed(); f != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "# Config file: %s\n", f)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "# No config file. Defaults shown; config file: ~/%s\n", configName)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
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
		cfgFile = filepath.Join(home, configName)
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}
