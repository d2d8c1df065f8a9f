package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/canopytrace/canopytrace/internal/canopy"
)

func main() {
	root := &cobra.Command{
		Use:           "canopytrace",
		Short:         "Monte Carlo light-distribution simulator for stacked plant canopies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&canopy.Debug, "debug", false, "verbose tracing diagnostics")
	root.AddCommand(traceCmd(), validateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func traceCmd() *cobra.Command {
	var cfgPath, outPath string
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Trace a scene config and report per-layer PPFD",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := canopy.Run(cfgPath, func(done, total int) {
				fmt.Printf("[PROGRESS] %.2f%%\n", float64(done)*100/float64(total))
			})
			if err != nil {
				return err
			}

			for _, l := range res.Layers {
				fmt.Printf("layer h=%.2fm  PPFD=%.1f  absorbed PAR=%.1f  intercepted=%.1f%%  CV=%.3f\n",
					l.Height, l.PPFD, l.AbsorbedPAR, l.InterceptedFraction*100, l.Uniformity.CV)
			}
			fmt.Printf("scattered fraction: %.1f%%  rays: %d  elapsed: %s\n",
				res.ScatteredFraction*100, res.TotalRays, res.Elapsed)

			if outPath != "" {
				data, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					return err
				}
				fmt.Printf("wrote %s\n", outPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "scenes/config.json", "scene config file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write full result JSON to file")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run the physics validation suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, c := range canopy.RunAll() {
				fmt.Println(c)
				if !c.Pass {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d validation check(s) failed", failed)
			}
			return nil
		},
	}
}
