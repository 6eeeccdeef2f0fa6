package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	e := New(CategoryBuild, SeverityFatal, "generator exited non-zero")
	assert.Equal(t, "build (fatal): generator exited non-zero", e.Error())

	wrapped := Wrap(stderrors.New("exit status 1"), CategoryBuild, SeverityFatal, "generator exited non-zero")
	assert.Equal(t, "build (fatal): generator exited non-zero: exit status 1", wrapped.Error())
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	e := WrapRetryable(cause, CategoryNetwork, SeverityError, "transfer failed")

	assert.ErrorIs(t, e, cause)

	outer := fmt.Errorf("publish stage: %w", e)
	var pe *PipelineError
	require.ErrorAs(t, outer, &pe)
	assert.Equal(t, CategoryNetwork, pe.Category)
}

func TestIsRetryable(t *testing.T) {
	retryable := WrapRetryable(stderrors.New("timeout"), CategoryNetwork, SeverityError, "transfer failed")
	fatal := NewBuildFailure("generator exited non-zero", nil)

	assert.True(t, IsRetryable(retryable))
	assert.False(t, IsRetryable(fatal))
	assert.False(t, IsRetryable(stderrors.New("plain error")))
	assert.False(t, IsRetryable(nil))

	// Retryability survives wrapping.
	assert.True(t, IsRetryable(fmt.Errorf("publish stage: %w", retryable)))
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryEnvironment, CategoryOf(NewEnvironmentError("no generator found", nil)))
	assert.Equal(t, CategoryPublish, CategoryOf(NewPublishFailure("rsync failed", nil, false)))
	assert.Equal(t, CategoryConfig, CategoryOf(NewConfigError("bad yaml", nil)))
	assert.Equal(t, CategoryInternal, CategoryOf(stderrors.New("plain error")))
}

func TestWithContext(t *testing.T) {
	e := NewPublishFailure("rsync failed", nil, true).
		WithContext("destination", "deploy@example.com:/var/www/site").
		WithContext("attempt", 2)

	assert.Equal(t, "deploy@example.com:/var/www/site", e.Context["destination"])
	assert.Equal(t, 2, e.Context["attempt"])
}

func TestConstructorsAreFatal(t *testing.T) {
	for _, e := range []*PipelineError{
		NewEnvironmentError("m", nil),
		NewBuildFailure("m", nil),
		NewPublishFailure("m", nil, false),
		NewConfigError("m", nil),
	} {
		assert.Equal(t, SeverityFatal, e.Severity)
	}
}
