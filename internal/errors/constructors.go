package errors

// Convenience constructors matching the pipeline's error taxonomy:
// environment errors abort before any side effect, build failures abort
// before publish, publish failures abort the run with no automatic retry.

// NewEnvironmentError reports a mis-provisioned environment (e.g. no usable
// generator executable). Never retryable.
func NewEnvironmentError(message string, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryEnvironment,
		Severity: SeverityFatal,
		Message:  message,
		Cause:    cause,
	}
}

// NewBuildFailure reports a generator invocation that exited non-zero.
func NewBuildFailure(message string, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryBuild,
		Severity: SeverityFatal,
		Message:  message,
		Cause:    cause,
	}
}

// NewPublishFailure reports a failed transfer or image assembly.
// retryable marks transient network-class failures for the retry policy.
func NewPublishFailure(message string, cause error, retryable bool) *PipelineError {
	return &PipelineError{
		Category:  CategoryPublish,
		Severity:  SeverityFatal,
		Message:   message,
		Cause:     cause,
		Retryable: retryable,
	}
}

// NewConfigError reports an invalid or unreadable configuration.
func NewConfigError(message string, cause error) *PipelineError {
	return &PipelineError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  message,
		Cause:    cause,
	}
}
