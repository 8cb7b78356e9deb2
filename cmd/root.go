// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"os"

	"github.com/luthersystems/boxlang/lang"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "boxlang",
	Short: "boxlang: expression runtime with a garbage collected store",
	Long: `boxlang evaluates programs in a small call-by-value expression language
with closures and mutable boxes.  Boxes live in a fixed-capacity store which
is either a bump allocator that never reclaims memory or a mark-and-sweep
collected heap.

Getting started:
  boxlang programs                         List the example programs
  boxlang run counter                      Run an example program
  boxlang run --store nogc --capacity 4 countdown
  boxlang run --dump yaml chain            Print the store after running

Configuration is read from $HOME/.boxlang.yaml (or --config) and from
environment variables prefixed with BOXLANG_, e.g. BOXLANG_CAPACITY=64.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.boxlang.yaml)")

	viper.SetDefault("capacity", lang.DefaultCapacity)
	viper.SetDefault("store", lang.StrategyMarkSweep.String())
	viper.SetDefault("max_stack", lang.DefaultMaxStackHeight)
	viper.SetDefault("gc_log", false)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".boxlang" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".boxlang")
	}

	viper.SetEnvPrefix("boxlang")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// runtimeConfigs translates the viper configuration into runtime options.
func runtimeConfigs(v *viper.Viper) ([]lang.Config, error) {
	strategy, err := lang.ParseStrategy(v.GetString("store"))
	if err != nil {
		return nil, err
	}
	capacity := v.GetInt("capacity")
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive: %d", capacity)
	}
	return []lang.Config{
		lang.WithStrategy(strategy),
		lang.WithCapacity(capacity),
		lang.WithMaxStackHeight(v.GetInt("max_stack")),
		lang.WithGCLog(v.GetBool("gc_log")),
	}, nil
}
