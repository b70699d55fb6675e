package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rzpsarthak13/kv-bridge/pkg/kvbridge"
)

var (
	facade *kvbridge.Facade

	flagConfig string
	flagAddr   string
	flagStore  string
	flagDB     int

	rootCmd = &cobra.Command{
		Use:               "kvctl",
		Short:             "Command-line client for the kv-bridge facade",
		PersistentPreRunE: setupFacade,
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if facade != nil {
				facade.Close()
			}
		},
	}
)

func init() {
	// A .env next to the binary can carry KV_BRIDGE_* settings; absence is fine.
	godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML or JSON config file")
	rootCmd.PersistentFlags().StringVar(&flagAddr, "addr", "", "store endpoint (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "store type: redis or memory (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagDB, "db", 0, "Redis database number")

	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setjsonCmd)
	rootCmd.AddCommand(getjsonCmd)
	rootCmd.AddCommand(msetCmd)
	rootCmd.AddCommand(mgetCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(delCmd)
	rootCmd.AddCommand(existsCmd)
	rootCmd.AddCommand(flushallCmd)
	rootCmd.AddCommand(applyCmd)
}

// setupFacade builds the facade from config file, environment, and flags,
// in that precedence order.
func setupFacade(cmd *cobra.Command, _ []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	if flagStore != "" {
		config.KVStore.Type = flagStore
	}
	if flagAddr != "" {
		config.KVStore.RedisConfig.Endpoints = []string{flagAddr}
	}
	if flagDB != 0 {
		config.KVStore.RedisConfig.DB = flagDB
	}

	facade, err = kvbridge.New(config)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

func loadConfig() (*kvbridge.Config, error) {
	config := kvbridge.DefaultConfig()
	if flagConfig == "" {
		return config, nil
	}

	data, err := os.ReadFile(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := unmarshalConfig(flagConfig, data, config); err != nil {
		return nil, err
	}
	return config, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
