package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tsanders/violation-issues/pkg/config"
	"github.com/tsanders/violation-issues/pkg/logging"
	"github.com/tsanders/violation-issues/pkg/ux"
)

// options holds flag values shared by all commands
type options struct {
	configPath  string
	logLevel    string
	logFormat   string
	encoding    string
	window      int
	parallelism int
	buildsDir   string
	historyDir  string

	cfg *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "violation-issues",
		Short: "Turn build violations into stable, trackable issues",
		Long: `violation-issues reads the static-analysis violations recorded for a build
and re-emits them as issues with stable identities, so the same issue can be
recognized across builds even when its line number shifts.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config file (default: .violation-issues.yaml in cwd or home)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text, json")
	flags.StringVar(&opts.encoding, "encoding", "", "Charset of the analysed sources (default UTF-8)")
	flags.IntVar(&opts.window, "window", -1, "Context lines hashed on each side of a flagged line")
	flags.IntVar(&opts.parallelism, "parallelism", 0, "Findings fingerprinted concurrently")
	flags.StringVar(&opts.buildsDir, "builds", "", "Directory of numbered builds")
	flags.StringVar(&opts.historyDir, "history", "", "Directory for issue snapshots")

	rootCmd.AddCommand(newCollectCmd(opts))
	rootCmd.AddCommand(newTrendCmd(opts))
	rootCmd.AddCommand(newFingerprintCmd(opts))

	return rootCmd
}

// load reads the config file and applies flag overrides
func (o *options) load(cmd *cobra.Command) error {
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return err
		}
		o.cfg = cfg
	} else {
		o.cfg = config.LoadOrDefault()
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		o.cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		o.cfg.Log.Format = o.logFormat
	}
	if flags.Changed("encoding") {
		o.cfg.Fingerprint.Encoding = o.encoding
	}
	if flags.Changed("window") {
		o.cfg.Fingerprint.Window = o.window
	}
	if flags.Changed("parallelism") {
		o.cfg.Collect.Parallelism = o.parallelism
	}
	if flags.Changed("builds") {
		o.cfg.Store.BuildsDir = o.buildsDir
	}
	if flags.Changed("history") {
		o.cfg.Store.HistoryDir = o.historyDir
	}

	if err := o.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ux.Out = cmd.OutOrStdout()
	return logging.Setup(o.cfg.Log.Level, o.cfg.Log.Format, cmd.ErrOrStderr())
}
