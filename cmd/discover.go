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
	discoverNiche  string
	discoverCity   string
	discoverPrompt string
	discoverTab    string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search for local businesses and scrape contact emails into the lead table",
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

		detail := discoverNiche
		if detail != "" && discoverCity != "" {
			detail += " en " + discoverCity
		}
		run, err := st.CreateRun(ctx, model.RunKindDiscovery, detail)
		if err != nil {
			return err
		}

		tab := discoverTab
		if tab == "" {
			tab = leadTab()
		}

		result, runErr := p.RunDiscovery(ctx, pipeline.DiscoveryParams{
			Tab:    tab,
			Niche:  discoverNiche,
			City:   discoverCity,
			Prompt: discoverPrompt,
		})
		if runErr != nil {
			var log []string
			if result != nil {
				log = result.Log
			}
			if err := st.FailRun(ctx, run.ID, 0, log, runErr.Error()); err != nil {
				zap.L().Error("record failed run", zap.String("run_id", run.ID), zap.Error(err))
			}
			return eris.Wrap(runErr, "discovery run")
		}

		if err := st.CompleteRun(ctx, run.ID, result.TotalUpserted, result.Log); err != nil {
			zap.L().Error("record completed run", zap.String("run_id", run.ID), zap.Error(err))
		}

		zap.L().Info("discovery complete",
			zap.String("run_id", run.ID),
			zap.Int("leads", result.TotalUpserted),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverNiche, "niche", "", "business niche to search (e.g. dentistas)")
	discoverCmd.Flags().StringVar(&discoverCity, "city", "", "city to search in (e.g. cordoba)")
	discoverCmd.Flags().StringVar(&discoverPrompt, "prompt", "", "override the search-directive prompt")
	discoverCmd.Flags().StringVar(&discoverTab, "tab", "", "lead tab name (default from config)")
	rootCmd.AddCommand(discoverCmd)
}
