// Command graincv runs the classifier tuning pipeline on a CSV table and
// prints the cross-validation comparison and test-set evaluation.
package main

import (
	"fmt"
	"os"

	"github.com/grainstat/graincv/core/model"
	"github.com/grainstat/graincv/dataset"
	"github.com/grainstat/graincv/evaluate"
	_ "github.com/grainstat/graincv/neighbors"
	"github.com/grainstat/graincv/pipeline"
	"github.com/grainstat/graincv/pkg/errors"
	"github.com/grainstat/graincv/pkg/log"
	"github.com/grainstat/graincv/report"
	_ "github.com/grainstat/graincv/softmax"
	"github.com/spf13/cobra"
)

// Options is the full flag surface of the pipeline run.
type Options struct {
	DataPath   string
	Split      float64
	Seed       uint64
	Folds      int
	Repeats    int
	GridBudget int
	Families   []string
	Workers    int
	Scaling    string
	Confidence float64

	FreqCut    float64
	UniqueCut  float64
	CorrCutoff float64

	PlotPath  string
	ModelPath string
	LogLevel  string
}

// NewRootCommand builds the graincv command.
func NewRootCommand() *cobra.Command {
	defaults := pipeline.DefaultConfig()
	o := &Options{
		Split:      defaults.SplitFraction,
		Seed:       defaults.Seed,
		Folds:      defaults.Folds,
		Repeats:    defaults.Repeats,
		GridBudget: defaults.GridBudget,
		Families:   defaults.Families,
		Scaling:    defaults.ScalingMethod,
		Confidence: defaults.Confidence,
		FreqCut:    defaults.Screen.FreqCut,
		UniqueCut:  defaults.Screen.UniqueCut,
		CorrCutoff: defaults.Screen.CorrCutoff,
		LogLevel:   "info",
	}

	cmd := &cobra.Command{
		Use:   "graincv",
		Short: "Tune and compare classifiers on a morphological seed table",
		Long: "graincv loads a CSV table, screens its predictors, tunes the configured\n" +
			"model families by repeated stratified cross-validation on a shared\n" +
			"resampling plan, and evaluates the winning model once on the held-out\n" +
			"test partition.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd)
		},
	}

	cmd.Flags().StringVar(&o.DataPath, "data", "", "Path to the input CSV table (required).")
	cmd.Flags().Float64Var(&o.Split, "split", o.Split, "Train fraction of the stratified holdout.")
	cmd.Flags().Uint64Var(&o.Seed, "seed", o.Seed, "Base seed for every random decision.")
	cmd.Flags().IntVar(&o.Folds, "folds", o.Folds, "Cross-validation folds per repeat.")
	cmd.Flags().IntVar(&o.Repeats, "repeats", o.Repeats, "Cross-validation repeats.")
	cmd.Flags().IntVar(&o.GridBudget, "grid-budget", o.GridBudget, "Values tried for each family's primary hyperparameter.")
	cmd.Flags().StringSliceVar(&o.Families, "families", o.Families, "Model families to tune, in tie-break order.")
	cmd.Flags().IntVar(&o.Workers, "workers", 0, "Parallel fold tasks (0 = number of CPUs).")
	cmd.Flags().StringVar(&o.Scaling, "scaling", o.Scaling, "Per-fold scaling method (standardize or range).")
	cmd.Flags().Float64Var(&o.Confidence, "confidence", o.Confidence, "Confidence level for the test accuracy interval.")
	cmd.Flags().Float64Var(&o.FreqCut, "freq-cut", o.FreqCut, "Near-zero-variance frequency ratio cutoff.")
	cmd.Flags().Float64Var(&o.UniqueCut, "unique-cut", o.UniqueCut, "Near-zero-variance percent-unique cutoff.")
	cmd.Flags().Float64Var(&o.CorrCutoff, "corr-cutoff", o.CorrCutoff, "Pairwise correlation elimination cutoff.")
	cmd.Flags().StringVar(&o.PlotPath, "plot", "", "Write a box plot of resample accuracies to this PNG path.")
	cmd.Flags().StringVar(&o.ModelPath, "save-model", "", "Persist the winning model to this path.")
	cmd.Flags().StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level (debug, info, warn, error).")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

// Run executes the pipeline with the parsed options.
func (o *Options) Run(cmd *cobra.Command) error {
	log.SetupLogger(o.LogLevel)
	logger := log.GetLogger()
	errors.SetZerologWarnFunc(func(warning error) {
		logger.Warn("pipeline warning", "warning", warning.Error())
	})

	cfg := pipeline.Config{
		SplitFraction: o.Split,
		Seed:          o.Seed,
		Folds:         o.Folds,
		Repeats:       o.Repeats,
		GridBudget:    o.GridBudget,
		Families:      o.Families,
		Workers:       o.Workers,
		ScalingMethod: o.Scaling,
		Confidence:    o.Confidence,
		Logger:        logger,
	}
	cfg.Screen.FreqCut = o.FreqCut
	cfg.Screen.UniqueCut = o.UniqueCut
	cfg.Screen.CorrCutoff = o.CorrCutoff
	if cfg.Confidence == 0 {
		cfg.Confidence = evaluate.DefaultConfidence
	}

	result, err := pipeline.RunFile(cmd.Context(), o.DataPath, dataset.DefaultSchema(), cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := report.RenderComparison(out, result.Comparison); err != nil {
		return err
	}
	for _, skipped := range result.Skipped {
		fmt.Fprintf(out, "\nskipped %s: %s\n", skipped.Family, skipped.Reason)
	}
	fmt.Fprintln(out)
	if err := report.RenderEvaluation(out, result.Evaluation); err != nil {
		return err
	}

	if o.PlotPath != "" {
		if err := report.BoxPlot(o.PlotPath, result.Comparison); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nbox plot written to %s\n", o.PlotPath)
	}
	if o.ModelPath != "" {
		if err := model.SaveModel(result.Winner.Model, o.ModelPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "model written to %s\n", o.ModelPath)
	}
	return nil
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
