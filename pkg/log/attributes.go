package log

// Standard attribute keys used across pipeline stages. Keeping the keys in
// one place makes runs filterable in the log collector.
const (
	// PhaseKey names the pipeline stage emitting the record.
	// Values: "preprocess", "upload", "train", "deploy", "predict",
	// "evaluate", "tune", "cleanup".
	PhaseKey = "pipeline.phase"

	// RowsKey is the number of table rows in play for the operation.
	RowsKey = "data.rows"

	// ColumnsKey is the number of table columns in play for the operation.
	ColumnsKey = "data.columns"

	// PartitionKey names a dataset partition: "train", "validation", "test".
	PartitionKey = "data.partition"

	// SeedKey records the shuffle seed so a run can be reproduced.
	SeedKey = "config.seed"

	// BucketKey and KeyKey identify an object-storage location.
	BucketKey = "storage.bucket"
	KeyKey    = "storage.key"

	// JobNameKey identifies a managed training or tuning job.
	JobNameKey = "job.name"

	// JobStatusKey records the platform-reported job status.
	JobStatusKey = "job.status"

	// EndpointKey identifies a hosted inference endpoint.
	EndpointKey = "endpoint.name"

	// DurationMsKey records elapsed wall time in milliseconds.
	DurationMsKey = "perf.duration_ms"
)
