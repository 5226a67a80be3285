// Package dmpipe turns the bank direct-marketing dataset into a deployed
// term-deposit propensity model.
//
// The module covers the full workflow: a deterministic preprocessing
// pipeline that cleans, one-hot encodes and splits the raw CSV into
// headerless train/validation/test partitions, object-storage staging, and
// thin clients for the managed training, hosting and hyperparameter-tuning
// services that consume those partitions. Offline evaluation scores the
// hosted endpoint's predictions with accuracy, precision, recall, F1 and
// ROC AUC.
//
// # Packages
//
//   - dataset: column-oriented string frames with CSV IO
//   - preprocessing: cleaning, indicator features, one-hot encoding and
//     the seeded 70/20/10 split
//   - metrics: binary classification metrics and ROC plotting
//   - cloud: object storage plus training, hosting and tuning clients
//   - config: layered run configuration
//   - cmd/dmpipe: the workflow CLI
//
// # Quick Start
//
//	pipeline := preprocessing.NewPipeline(preprocessing.DefaultOptions())
//	result, err := pipeline.Run()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.TrainPath)
package dmpipe
