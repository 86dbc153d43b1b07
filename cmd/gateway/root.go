// Package gateway implements the CLI & Config Loader (A1) command surface,
// grounded on loom's cmd package: a cobra root command plus
// subcommands, flags bound with pflag, configuration resolved through
// internal/config's layered loader.
package gateway

import (
	"github.com/spf13/cobra"

	"codegateway/internal/config"
)

var (
	flagTransport  string
	flagProject    string
	flagConfigPath string
	flagLogLevel   string
	flagListen     string
	flagCacheTTL   int
)

var rootCmd = &cobra.Command{
	Use:   "gateway",
	Short: "codegateway is an agent-facing coding toolkit server",
	Long: `codegateway exposes a fixed catalog of file, semantic, memory, and
shell tools to an external AI agent over JSON-RPC, orchestrating LSP
subprocesses for semantic awareness of a single active project at a time.`,
}

// Execute runs the root command; main calls this directly.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagTransport, "transport", "", "transport to serve (stdio|http)")
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "", "project path to activate on startup")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to gateway.json")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&flagListen, "listen", "", "address to listen on (http transport only)")
	rootCmd.PersistentFlags().IntVar(&flagCacheTTL, "cache-ttl", 0, "response cache TTL in seconds")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfig merges the layered config with whatever flags the user
// explicitly set on the invoked command.
func resolveConfig() (*config.Config, error) {
	overrides := &config.Config{
		Transport:       flagTransport,
		ProjectPath:     flagProject,
		LogLevel:        flagLogLevel,
		ListenAddr:      flagListen,
		CacheTTLSeconds: flagCacheTTL,
	}
	return config.Load(flagConfigPath, overrides)
}
