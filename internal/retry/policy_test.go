package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitedeploy/internal/config"
)

func TestDefaultPolicyFailsFast(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 0, p.MaxRetries, "no retry unless a deployment opts in")
	require.NoError(t, p.Validate())
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.RetryConfig{
		Backoff:    "exponential",
		Initial:    2 * time.Second,
		Max:        20 * time.Second,
		MaxRetries: 4,
	})
	assert.Equal(t, config.RetryBackoffExponential, p.Mode)
	assert.Equal(t, 2*time.Second, p.Initial)
	assert.Equal(t, 20*time.Second, p.Max)
	assert.Equal(t, 4, p.MaxRetries)
}

func TestFromConfigFallsBackOnInvalid(t *testing.T) {
	p := FromConfig(config.RetryConfig{Backoff: "bogus"})
	assert.Equal(t, config.RetryBackoffLinear, p.Mode)
	assert.Equal(t, 0, p.MaxRetries)
}

func TestFromConfigClampsInitialToMax(t *testing.T) {
	p := FromConfig(config.RetryConfig{Initial: time.Minute, Max: 10 * time.Second})
	assert.Equal(t, 10*time.Second, p.Initial)
}

func TestDelayFixed(t *testing.T) {
	p := Policy{Mode: config.RetryBackoffFixed, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 3}
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, time.Second, p.Delay(5))
}

func TestDelayLinearCapped(t *testing.T) {
	p := Policy{Mode: config.RetryBackoffLinear, Initial: time.Second, Max: 3 * time.Second, MaxRetries: 5}
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 3*time.Second, p.Delay(4), "capped at max")
}

func TestDelayExponentialCapped(t *testing.T) {
	p := Policy{Mode: config.RetryBackoffExponential, Initial: time.Second, Max: 5 * time.Second, MaxRetries: 5}
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))
	assert.Equal(t, 5*time.Second, p.Delay(4), "capped at max")
}

func TestDelayZeroForNoRetry(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, time.Duration(0), p.Delay(-1))
}

func TestValidate(t *testing.T) {
	assert.Error(t, Policy{Initial: 0, Max: time.Second}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: 0}.Validate())
	assert.Error(t, Policy{Initial: time.Second, Max: time.Second, MaxRetries: -1}.Validate())
	assert.NoError(t, Policy{Initial: time.Second, Max: time.Second}.Validate())
}
