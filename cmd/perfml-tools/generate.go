package main

import (
	"fmt"
	"os"

	"github.com/go-sod/perfml/internal/dataset"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic student performance dataset as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, _ := cmd.Flags().GetInt("rows")
		seed, _ := cmd.Flags().GetInt64("seed")
		out, _ := cmd.Flags().GetString("out")
		if rows < 1 {
			return fmt.Errorf("rows must be positive, got %d", rows)
		}

		d := dataset.Generate(rows, seed)
		if out == "" || out == "-" {
			return dataset.WriteCSV(cmd.OutOrStdout(), d)
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		if err := dataset.WriteCSV(f, d); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	},
}

func init() {
	generateCmd.Flags().Int("rows", dataset.ReferenceRows, "Number of rows to generate")
	generateCmd.Flags().Int64("seed", dataset.ReferenceSeed, "Random seed")
	generateCmd.Flags().String("out", "", "Output CSV file (stdout when empty)")
}
