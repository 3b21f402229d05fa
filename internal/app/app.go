// Package app wires configuration, storage and the HTTP surface into the
// scrumtrack command line.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scrumtrack/internal/config"
	"scrumtrack/internal/httpx"
	"scrumtrack/internal/logging"
)

// runtime is what every subcommand gets after the persistent pre-run.
type runtime struct {
	configPath string
	verbose    bool

	cfg config.Config
	log *zap.Logger
}

func Main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "scrumtrack",
		Short:         "Traffic-light status tracking for client projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(rt.configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Env, rt.verbose)
			if err != nil {
				return err
			}
			timeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
			log.Debug("config loaded",
				zap.String("env", cfg.Env),
				zap.String("db_path", cfg.DBPath),
				zap.String("timezone", cfg.Timezone),
				zap.String("llm_provider", cfg.LLMProvider),
				zap.Duration("external_http_timeout", timeout),
			)
			rt.cfg, rt.log = cfg, log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.log != nil {
				_ = rt.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "path to config.yaml (default ./config.yaml or $CONFIG_PATH)")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCmd(rt),
		newStatusCmd(rt),
		newRoadmapCmd(rt),
		newDigestCmd(rt),
		newAskCmd(rt),
	)
	return root
}
