package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/kaikei/internal/common"
	"github.com/Veraticus/kaikei/internal/config"
)

var (
	cfgFile string
	envFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "kaikei",
		Short: "Multi-tenant bookkeeping assistant",
		Long: `kaikei turns receipts, scans and bank feeds into debit/credit journal
entries for each client, posting confident suggestions automatically and
learning from reviewer corrections.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/kaikei/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", ".env file to load before reading the environment")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the tenant registry, ledgers and state")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	config.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(
		serveCmd(),
		tenantCmd(),
		journalCmd(),
		suggestCmd(),
		processCmd(),
		importCmd(),
		pollCmd(),
		trainCmd(),
		examplesCmd(),
		exportCmd(),
		migrateCmd(),
		versionCmd(),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig runs before every command: .env first, then the config file,
// then KAIKEI_* variables, then logging.
func initConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}
	if err := readConfigFile(viper.GetViper(), cfgFile); err != nil {
		return err
	}

	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	if err := common.SetupLogger(level, viper.GetString("logging.format")); err != nil {
		return err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		slog.Debug("Using config file", "path", used)
	}
	return nil
}

// readConfigFile loads path, or searches $HOME/.config/kaikei and the
// working directory for config.yaml. A missing file in the search path
// is not an error.
func readConfigFile(v *viper.Viper, path string) error {
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "kaikei"))
		}
		v.AddConfigPath(".")
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kaikei %s\n", version)
		},
	}
}
