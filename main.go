package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/store-auditor/backend/config"
	"github.com/store-auditor/backend/logging"
)

// newRootCmd builds the storeaudit command tree
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "storeaudit",
		Short: "AI-powered storefront audits",
		Long: `storeaudit asks Gemini, grounded with Google Search, to audit an online
store across SEO, UX, Performance and Content, and normalizes whatever the
model returns into a complete report.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default $"+config.ConfigPathEnv+")")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newAuditCmd(&configPath))

	return root
}

// setup loads configuration and builds the logger
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, logger, nil
}

func setupGinMode(mode string) {
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
