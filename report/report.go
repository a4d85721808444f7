// Package report renders pipeline results for human consumption: a
// plain-text summary of the cross-validation comparison and test-set
// evaluation, and a box plot of the resampling accuracy distributions.
package report

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/grainstat/graincv/compare"
	"github.com/grainstat/graincv/evaluate"
	"github.com/grainstat/graincv/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderComparison writes the per-family resampling summary as an aligned
// text table.
func RenderComparison(w io.Writer, c *compare.Comparison) error {
	fmt.Fprintf(w, "Resampling results (plan %s)\n\n", c.Fingerprint)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Family\tN\tMin\tQ1\tMedian\tMean\tQ3\tMax")
	for _, s := range c.Summaries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Family, s.N,
			fmtAcc(s.Min), fmtAcc(s.Q1), fmtAcc(s.Median),
			fmtAcc(s.Mean), fmtAcc(s.Q3), fmtAcc(s.Max))
	}
	return tw.Flush()
}

// RenderEvaluation writes the confusion matrix, overall accuracy with its
// confidence interval, and the per-class metric table.
func RenderEvaluation(w io.Writer, r *evaluate.Report) error {
	fmt.Fprintf(w, "Test-set evaluation: %s (%s), n=%d\n\n", r.Family, r.Params, r.NTest)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "actual \\ predicted")
	for _, name := range r.Confusion.Classes {
		fmt.Fprintf(tw, "\t%s", name)
	}
	fmt.Fprintln(tw)
	for i, name := range r.Confusion.Classes {
		fmt.Fprint(tw, name)
		for j := range r.Confusion.Classes {
			fmt.Fprintf(tw, "\t%d", r.Confusion.Counts[i][j])
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nAccuracy: %s  (%.0f%% CI %s - %s)\n\n",
		fmtAcc(r.Accuracy), r.Confidence*100, fmtAcc(r.CILower), fmtAcc(r.CIUpper))

	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Class\tSensitivity\tSpecificity\tPrecision\tNPV")
	for _, pc := range r.PerClass {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			pc.Class, fmtAcc(pc.Sensitivity), fmtAcc(pc.Specificity),
			fmtAcc(pc.Precision), fmtAcc(pc.NPV))
	}
	return tw.Flush()
}

// BoxPlot writes a box plot of each family's resample accuracies to a PNG.
func BoxPlot(path string, c *compare.Comparison) error {
	p := plot.New()
	p.Title.Text = "Cross-validation accuracy by model family"
	p.Y.Label.Text = "Accuracy"

	names := make([]string, 0, len(c.Summaries))
	for i, s := range c.Summaries {
		values := familyValues(c, s.Family)
		if len(values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(30), float64(i), plotter.Values(values))
		if err != nil {
			return errors.Wrapf(err, "report: box plot for %s", s.Family)
		}
		p.Add(box)
		names = append(names, s.Family)
	}
	if len(names) == 0 {
		return errors.NewValueError("report.BoxPlot", "no defined resample scores")
	}
	p.NominalX(names...)

	if err := p.Save(5*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "report: save box plot")
	}
	return nil
}

func familyValues(c *compare.Comparison, family string) []float64 {
	var values []float64
	for _, obs := range c.Observations {
		if obs.Family == family && !math.IsNaN(obs.Accuracy) {
			values = append(values, obs.Accuracy)
		}
	}
	return values
}

func fmtAcc(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}
