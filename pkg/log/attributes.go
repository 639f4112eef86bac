package log

// Model and Operation Context
const (
	// ModelNameKey identifies the fitted model, e.g. "model1", "mnlogit_extended".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "prepare"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the analysis run.
	PhaseKey = "ml.phase"

	// FormulaKey records the formula of a linear model, e.g. "y ~ a + b + a:b".
	FormulaKey = "model.formula"

	// SolverKey records the optimizer used by an iterative fitter.
	SolverKey = "model.solver"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of design columns.
	FeaturesKey = "data.features"

	// ColumnKey names a single column of the analysis table.
	ColumnKey = "data.column"

	// DroppedKey counts rows removed by preparation.
	DroppedKey = "data.dropped"

	// CategoriesKey lists the levels of a categorical response.
	CategoriesKey = "data.categories"
)

// Fit statistics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// PseudoR2Key records McFadden's pseudo R² for likelihood models.
	PseudoR2Key = "metrics.pseudo_r2"

	// LogLikKey records the maximized log-likelihood.
	LogLikKey = "metrics.loglik"

	// AccuracyKey records in-sample classification accuracy.
	AccuracyKey = "metrics.accuracy"

	// IterationKey records the number of optimizer iterations.
	IterationKey = "training.iteration"
)

// Prediction Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Run Context
const (
	// RunIDKey identifies one analysis run.
	RunIDKey = "run.id"

	// OutputPathKey is a file written by the run.
	OutputPathKey = "output.path"
)

// Error Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationPrepare   = "prepare"

	PhasePreprocessing = "preprocessing"
	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhaseReporting     = "reporting"
)
