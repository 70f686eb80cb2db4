package main

import (
	"fmt"

	"github.com/go-sod/perfml/internal/chart"
	"github.com/go-sod/perfml/internal/report"
	"github.com/spf13/cobra"
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Render the model comparison report as a PNG bar chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("report")
		out, _ := cmd.Flags().GetString("out")

		rows, err := report.Read(in)
		if err != nil {
			return err
		}
		if err := chart.Render(rows, out); err != nil {
			return err
		}
		if best, ok := report.Best(rows); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "best model: %s (%.2f%% accuracy)\n", best.Model, best.Accuracy)
		}
		return nil
	},
}

func init() {
	chartCmd.Flags().String("report", "models/model_results.json", "Model comparison report written by training")
	chartCmd.Flags().String("out", "models/model_comparison.png", "Output PNG file")
}
