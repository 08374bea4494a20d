package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parsecfs/parsec/pkg/config"
)

var cfg config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "parsec",
	Short: "parsec drives the client-side storage core from a shell",
	Long: `parsec exercises the block store, vlob store and file engine
directly, against either a throwaway in-memory backend or a live
WebSocket backend, without a manifest layer in front of it.`,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file (defaults built in if omitted)")
	rootCmd.PersistentFlags().String("backend", "", "override config: memory or websocket")
	rootCmd.PersistentFlags().String("ws-url", "", "override config: websocket backend URL")
	rootCmd.PersistentFlags().String("log-level", "", "override config: debug, info, warn, error")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(truncateCmd)
	rootCmd.AddCommand(flushCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(statCmd)
	rootCmd.AddCommand(restoreCmd)
}

func initConfig() {
	path, _ := rootCmd.PersistentFlags().GetString("config")
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if backend, _ := rootCmd.PersistentFlags().GetString("backend"); backend != "" {
		cfg.Backend.Kind = config.BackendKind(backend)
	}
	if url, _ := rootCmd.PersistentFlags().GetString("ws-url"); url != "" {
		cfg.Backend.URL = url
	}
	if level, _ := rootCmd.PersistentFlags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	cfg.ApplyLogging()
}
