// Package graincv is a small, reproducible classifier-tuning pipeline for
// tabular morphological data: seven continuous grain measurements and a
// three-class variety label.
//
// The pipeline loads a CSV table, stratifies it into train and test
// partitions, screens predictors for near-zero variance and high pairwise
// correlation, tunes each configured model family by repeated stratified
// k-fold cross-validation over a hyperparameter grid, compares the families
// on their shared resampling plan, and evaluates the winner exactly once on
// the held-out test partition.
//
// # Quick start
//
//	table, err := dataset.Load("seeds.csv", dataset.DefaultSchema())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := pipeline.Run(ctx, table, pipeline.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report.RenderEvaluation(os.Stdout, result.Evaluation)
//
// Every random decision derives from the single configured seed, so two runs
// with the same configuration produce identical partitions, fold assignments,
// selected hyperparameters and test scores.
//
// # Packages
//
//   - dataset: table loading, stratified holdout, resampling plans
//   - screen: near-zero-variance and correlation screening
//   - preprocessing: leak-safe feature scaling
//   - neighbors, softmax: the two built-in model families
//   - tune: the cross-validation grid search engine
//   - compare: resampling distribution comparison across families
//   - evaluate: one-shot test-set evaluation
//   - report: text and box-plot rendering
//   - pipeline: end-to-end orchestration
package graincv
