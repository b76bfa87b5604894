package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/store-auditor/backend/audit"
	"github.com/store-auditor/backend/metrics"
)

func newAuditCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "audit <url>",
		Short: "Run a single audit and print the report as JSON",
		Example: `  storeaudit audit mystore.com
  storeaudit audit https://shop.example.com --config config.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			generator, err := newGenerator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			auditor := audit.NewAuditor(generator, logger,
				audit.WithModel(cfg.Gemini.Model),
				audit.WithRecorder(metrics.Recorder{}),
			)

			report, err := auditor.Run(cmd.Context(), args[0])
			if errors.Is(err, audit.ErrAuditFailed) {
				logger.Error("audit failed", zap.Error(err))
				return fmt.Errorf("%s: %w", audit.FailureNotice, err)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report.Result)
		},
	}
}
