package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rzpsarthak13/kv-bridge/pkg/kvbridge"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := facade.SetValue(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	}

	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Gets the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := facade.GetValue(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !value.Present {
				return fmt.Errorf("key not found: %s", args[0])
			}
			fmt.Println(value.String)
			return nil
		},
	}

	msetCmd = &cobra.Command{
		Use:   "mset [key value]...",
		Short: "Sets multiple key-value pairs in chunked batches",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("mset requires an even, non-zero number of arguments")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs := make([]kvbridge.Pair, 0, len(args)/2)
			for i := 0; i+1 < len(args); i += 2 {
				pairs = append(pairs, kvbridge.Pair{Key: args[i], Value: args[i+1]})
			}
			status, err := facade.SetValues(cmd.Context(), pairs)
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	}

	mgetCmd = &cobra.Command{
		Use:   "mget [key]...",
		Short: "Gets multiple values, order-preserving",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := facade.GetValues(cmd.Context(), args)
			if err != nil {
				return err
			}
			for i, v := range values {
				if v.Present {
					fmt.Printf("%s=%s\n", args[i], v.String)
				} else {
					fmt.Printf("%s=(nil)\n", args[i])
				}
			}
			return nil
		},
	}

	setjsonCmd = &cobra.Command{
		Use:   "setjson [key] [json]",
		Short: "Validates a JSON document and stores it under a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc interface{}
			if err := json.Unmarshal([]byte(args[1]), &doc); err != nil {
				return fmt.Errorf("invalid JSON: %w", err)
			}
			status, err := facade.SetJSONValue(cmd.Context(), args[0], doc)
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	}

	getjsonCmd = &cobra.Command{
		Use:   "getjson [key]",
		Short: "Gets a JSON value and pretty-prints it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc interface{}
			found, err := facade.GetJSONValueStrict(cmd.Context(), args[0], &doc)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("key not found: %s", args[0])
			}
			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	keysCmd = &cobra.Command{
		Use:   "keys [pattern]",
		Short: "Lists keys matching a glob pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := facade.GetKeysByPattern(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Println(k)
			}
			return nil
		},
	}

	delCmd = &cobra.Command{
		Use:   "del [pattern]...",
		Short: "Deletes all keys matching the given patterns (bare '*' is rejected)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := facade.DeleteByPatterns(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	}

	existsQuantifier string

	existsCmd = &cobra.Command{
		Use:   "exists [key]...",
		Short: "Checks key existence under a quantifier (ALL, ANY, or RAW)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := kvbridge.Quantifier(strings.ToUpper(existsQuantifier))
			ok, flags, err := facade.CheckExists(cmd.Context(), q, args...)
			if err != nil {
				return err
			}
			if q == kvbridge.Raw {
				for i, f := range flags {
					fmt.Printf("%s=%t\n", args[i], f)
				}
				return nil
			}
			fmt.Println(ok)
			return nil
		},
	}

	flushallCmd = &cobra.Command{
		Use:   "flushall",
		Short: "Wipes the whole database (explicit, intentional)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := facade.FlushAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		},
	}

	applyCmd = &cobra.Command{
		Use:   "apply [file]",
		Short: "Applies a JSON object of key-value pairs atomically via a deferred session",
		Long: "Reads a JSON object mapping keys to string values, queues every " +
			"write into one transaction buffer, and commits it with a single " +
			"EXEC so the batch becomes visible atomically.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			var entries map[string]string
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			session, err := newDeferredSession()
			if err != nil {
				return err
			}
			defer session.Close()

			keys := make([]string, 0, len(entries))
			for k := range entries {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if _, err := session.SetValue(cmd.Context(), k, entries[k]); err != nil {
					return err
				}
			}

			results, err := session.ExecMulti(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("applied %d operation(s)\n", len(results))
			return nil
		},
	}
)

func init() {
	existsCmd.Flags().StringVar(&existsQuantifier, "quantifier", "ALL", "reduction: ALL, ANY, or RAW")
}

// newDeferredSession rebuilds the facade configuration with deferred mode
// bound, for the one command that needs a transaction buffer.
func newDeferredSession() (*kvbridge.Facade, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
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
	config.Facade.Mode = "deferred"
	return kvbridge.New(config)
}

// unmarshalConfig decodes a config file by extension (.yaml, .yml, .json).
func unmarshalConfig(path string, data []byte, config *kvbridge.Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", filepath.Ext(path))
	}
	return nil
}
