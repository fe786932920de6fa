package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/bimmerbailey/chlog/internal/changelog"
	"github.com/bimmerbailey/chlog/internal/classify"
	"github.com/bimmerbailey/chlog/internal/config"
	"github.com/bimmerbailey/chlog/internal/logging"
	"github.com/bimmerbailey/chlog/internal/output"
	"github.com/bimmerbailey/chlog/internal/watch"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "chlog",
	Short: "Strip internal entries from a generated changelog",
	Long: `Chlog rewrites CHANGELOG.md so that only user-facing changes remain.

Change lines tagged feat, fix or perf are kept. Everything else is removed,
and versions left without changes get a generic fallback line. The file is
rewritten in place under a standard "# Changelog" header.

Examples:
  chlog
  chlog --dry-run
  chlog --check --file docs/CHANGELOG.md
  chlog --watch`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runClean,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.chlog.yaml or $HOME/.chlog.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	addCleanFlags(rootCmd)

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("file", rootCmd.Flags().Lookup("file"))
	_ = viper.BindPFlag("format", rootCmd.Flags().Lookup("format"))
}

func addCleanFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", changelog.DefaultPath, "changelog to rewrite")
	cmd.Flags().StringP("format", "f", "text", "summary format (text, json)")
	cmd.Flags().Bool("dry-run", false, "print the rewritten changelog instead of writing it")
	cmd.Flags().Bool("check", false, "exit with an error if the changelog is not already clean")
	cmd.Flags().BoolP("watch", "w", false, "keep running and re-clean the file whenever it changes")
	cmd.Flags().Bool("no-color", false, "disable colored output")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(filepath.Join(xdg.ConfigHome, "chlog"))
		viper.SetConfigName(".chlog")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CHLOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		os.Exit(1)
	}
}

// loadConfig registers defaults on the global viper before decoding, so it
// also works after viper.Reset.
func loadConfig() (config.Config, error) {
	v := viper.GetViper()
	config.SetDefaults(v)
	return config.Load(v)
}

func runClean(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	check, _ := cmd.Flags().GetBool("check")
	watchMode, _ := cmd.Flags().GetBool("watch")
	noColor, _ := cmd.Flags().GetBool("no-color")

	if watchMode && (dryRun || check) {
		return errors.New("--watch cannot be combined with --dry-run or --check")
	}
	if dryRun && check {
		return errors.New("--dry-run cannot be combined with --check")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.New(ctx, logging.Config{
		File:    cfg.LogFile,
		Console: cmd.ErrOrStderr(),
		Verbose: cfg.Verbose,
	})

	classifier, err := classify.New(cfg.ClassifierOptions())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	rewriter := changelog.NewRewriter(classifier, changelog.WithFallback(cfg.Fallback))
	cleaner := changelog.NewCleaner(afero.NewOsFs(), rewriter)
	cleaner.DryRun = dryRun || check

	colorMode := output.ColorAuto
	if noColor {
		colorMode = output.ColorNever
	}
	out := output.New(cmd.OutOrStdout(), output.ParseFormat(cfg.Format), colorMode)

	switch {
	case watchMode:
		return runWatch(ctx, cleaner, out, cmd.ErrOrStderr(), cfg.File)
	case dryRun:
		res, err := cleaner.Clean(ctx, cfg.File)
		if err != nil {
			return err
		}
		return out.WriteContent(res.Content)
	}

	out.WriteStart(cfg.File)
	res, err := cleaner.Clean(ctx, cfg.File)
	if err != nil {
		return err
	}
	if err := out.WriteResult(res); err != nil {
		return err
	}

	if check && res.Changed {
		return fmt.Errorf("%s contains internal changes; run chlog to clean it", cfg.File)
	}
	return nil
}

func runWatch(ctx context.Context, cleaner *changelog.Cleaner, out *output.Writer, errOut io.Writer, path string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleaner.SkipUnchanged = true

	w := watch.New(cleaner, watch.Options{
		FilePath: path,
		OnResult: func(res changelog.Result) error {
			if !res.Written {
				return nil
			}
			return out.WriteResult(res)
		},
		OnError: func(path string, err error) {
			fmt.Fprintf(errOut, "Could not clean %s, waiting for next change: %v\n", path, err)
		},
	})

	out.WriteStart(path)
	return w.Run(ctx)
}
