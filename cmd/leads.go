package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/divisual/leadgen-cli/internal/leadstore"
	"github.com/divisual/leadgen-cli/internal/model"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and export the lead table",
}

// -- leads list --

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lead rows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		leads, err := initLeadStore(ctx)
		if err != nil {
			return err
		}

		tab, _ := cmd.Flags().GetString("tab")
		if tab == "" {
			tab = leadTab()
		}
		pendingOnly, _ := cmd.Flags().GetBool("pending")

		rows, err := leads.ReadRows(ctx, tab)
		if err != nil {
			return eris.Wrap(err, "leads list")
		}

		var filtered []model.Lead
		for _, r := range rows {
			l := model.LeadFromRow(r)
			if pendingOnly && !l.Pending() {
				continue
			}
			filtered = append(filtered, l)
		}

		if len(filtered) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}

		formatLeadsList(os.Stdout, filtered)
		return nil
	},
}

// -- leads export --

var leadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the lead tab to an xlsx file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		leads, err := initLeadStore(ctx)
		if err != nil {
			return err
		}

		tab, _ := cmd.Flags().GetString("tab")
		if tab == "" {
			tab = leadTab()
		}
		out, _ := cmd.Flags().GetString("out")

		n, err := leadstore.ExportXLSX(ctx, leads, tab, out)
		if err != nil {
			return eris.Wrap(err, "leads export")
		}

		zap.L().Info("leads exported", zap.String("path", out), zap.Int("rows", n))
		fmt.Printf("Exported %d leads to %s\n", n, out)
		return nil
	},
}

func init() {
	leadsListCmd.Flags().String("tab", "", "lead tab name (default from config)")
	leadsListCmd.Flags().Bool("pending", false, "show only leads awaiting outreach")

	leadsExportCmd.Flags().String("tab", "", "lead tab name (default from config)")
	leadsExportCmd.Flags().String("out", "leads.xlsx", "output file path")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsExportCmd)
	rootCmd.AddCommand(leadsCmd)
}

// formatLeadsList writes a tabular list of leads to w.
func formatLeadsList(out io.Writer, leads []model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WEB\tCORREO\tESTADO\tSCRAPEADO\tENVIADO")
	_, _ = fmt.Fprintln(w, "---\t------\t------\t---------\t-------")

	for _, l := range leads {
		web := l.Web
		if len(web) > 40 {
			web = web[:37] + "..."
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			web, l.Correo, l.Estado, l.FechaScrapeo, l.FechaEnvio)
	}
	_ = w.Flush()
}
