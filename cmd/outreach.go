package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/divisual/leadgen-cli/internal/model"
	"github.com/divisual/leadgen-cli/internal/pipeline"
)

var (
	outreachQuota  int
	outreachPrompt string
	outreachTab    string
)

var outreachCmd = &cobra.Command{
	Use:   "outreach",
	Short: "Send icebreaker emails to pending leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		p, err := initPipeline(ctx)
		if err != nil {
			return err
		}

		run, err := st.CreateRun(ctx, model.RunKindOutreach, "")
		if err != nil {
			return err
		}

		tab := outreachTab
		if tab == "" {
			tab = leadTab()
		}

		result, runErr := p.RunOutreach(ctx, pipeline.OutreachParams{
			Tab:    tab,
			Quota:  outreachQuota,
			Prompt: outreachPrompt,
		})
		if runErr != nil {
			var sent int
			var log []string
			if result != nil {
				sent = result.Sent
				log = result.Log
			}
			if err := st.FailRun(ctx, run.ID, sent, log, runErr.Error()); err != nil {
				zap.L().Error("record failed run", zap.String("run_id", run.ID), zap.Error(err))
			}
			return eris.Wrap(runErr, "outreach run")
		}

		if err := st.CompleteRun(ctx, run.ID, result.Sent, result.Log); err != nil {
			zap.L().Error("record completed run", zap.String("run_id", run.ID), zap.Error(err))
		}

		zap.L().Info("outreach complete",
			zap.String("run_id", run.ID),
			zap.Int("sent", result.Sent),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	outreachCmd.Flags().IntVar(&outreachQuota, "quota", 0, "max emails to send this run (default from config)")
	outreachCmd.Flags().StringVar(&outreachPrompt, "prompt", "", "override the icebreaker system prompt")
	outreachCmd.Flags().StringVar(&outreachTab, "tab", "", "lead tab name (default from config)")
	rootCmd.AddCommand(outreachCmd)
}
