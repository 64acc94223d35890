package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ossyrian/sqparse/internal/config"
	"github.com/ossyrian/sqparse/internal/extract"
	"github.com/ossyrian/sqparse/internal/logging"
	"github.com/ossyrian/sqparse/internal/parser"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:          "sqparse",
	Short:        "Extract files from game client dat containers",
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	// i/o
	rootCmd.Flags().StringP("input", "i", "", "path to .dat file to read (required)")
	rootCmd.Flags().StringSlice("offset", nil, "data offset of a file to extract, or FOLDER/FILE@OFFSET (repeatable)")
	rootCmd.Flags().StringP("output", "o", "", "directory to write extracted files to")

	// extraction
	rootCmd.Flags().Int("workers", extract.DefaultWorkers, "number of files extracted concurrently")
	rootCmd.Flags().Int("cache-size", extract.DefaultCacheSize, "number of extracted payloads kept in memory (0 disables)")

	// other opts
	rootCmd.Flags().String("log-level", "info", "log level (trace, debug, info, warn, error, fatal)")
	rootCmd.Flags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stderr and file)")
	rootCmd.Flags().Bool("dry-run", false, "extract and validate without writing output")

	viper.BindPFlag("input", rootCmd.Flags().Lookup("input"))
	viper.BindPFlag("offsets", rootCmd.Flags().Lookup("offset"))
	viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("workers", rootCmd.Flags().Lookup("workers"))
	viper.BindPFlag("cache_size", rootCmd.Flags().Lookup("cache-size"))
	viper.BindPFlag("log_level", rootCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.Flags().Lookup("log-output-dir"))
	viper.BindPFlag("dry_run", rootCmd.Flags().Lookup("dry-run"))
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sqparse"))
		}
		viper.AddConfigPath("/etc/sqparse")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("SQPARSE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// run extracts every requested file from the input container
func run(cmd *cobra.Command, args []string) error {
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	closeLog, err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogOutputDir)
	if err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}
	defer closeLog()

	descs, err := cfg.Descriptors()
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.With("file", cfg.InputFile)
	logger.Info("opening container", "files", len(descs))

	file, err := os.Open(cfg.InputFile)
	if err != nil {
		return fmt.Errorf("failed to open dat file: %w", err)
	}
	defer file.Close()

	opts := []extract.Option{
		extract.WithWorkers(cfg.Workers),
		extract.WithCacheSize(cfg.CacheSize),
		extract.WithLogger(logger),
	}
	if cfg.OutputDir != "" && !cfg.DryRun {
		opts = append(opts, extract.WithOutputDir(cfg.OutputDir))
	}

	extractor, err := extract.New(parser.NewDatReader(file, logger), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	results, err := extractor.ExtractAll(ctx, descs)
	if err != nil {
		logger.Error("extraction failed", "error", err)
		return err
	}

	for _, res := range results {
		logger.Info("done",
			"offset", res.Descriptor.String(),
			"size", res.Size,
			"digest", res.Digest.String(),
			"path", res.Path,
		)
	}

	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
