package config

import (
	"fmt"
	"strings"
)

// Validate checks invariants that would otherwise surface mid-pipeline.
// Remote settings are only required when a remote publish is attempted,
// so they are validated separately via ValidateRemote.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Site.Root) == "" {
		return fmt.Errorf("site.root must not be empty")
	}
	if strings.TrimSpace(c.Site.OutputDir) == "" {
		return fmt.Errorf("site.output must not be empty")
	}
	if len(c.Generator.Candidates) == 0 {
		return fmt.Errorf("generator.candidates must list at least one executable name")
	}
	for _, cand := range c.Generator.Candidates {
		if strings.TrimSpace(cand) == "" {
			return fmt.Errorf("generator.candidates must not contain empty names")
		}
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries cannot be negative")
	}
	if NormalizeRetryBackoff(c.Retry.Backoff) == "" {
		return fmt.Errorf("retry.backoff must be one of fixed, linear, exponential (got %q)", c.Retry.Backoff)
	}
	if c.Daemon.Events != nil && strings.TrimSpace(c.Daemon.Events.URL) == "" {
		return fmt.Errorf("daemon.events.url must be set when event publishing is enabled")
	}
	return nil
}

// ValidateRemote checks that the remote destination is fully specified.
// Called by commands that actually publish to a remote host.
func (c *Config) ValidateRemote() error {
	if strings.TrimSpace(c.Remote.Host) == "" {
		return fmt.Errorf("remote.host must be set for remote publishing")
	}
	if strings.TrimSpace(c.Remote.Path) == "" {
		return fmt.Errorf("remote.path must be set for remote publishing")
	}
	if !strings.HasPrefix(c.Remote.Path, "/") {
		return fmt.Errorf("remote.path must be absolute (got %q)", c.Remote.Path)
	}
	return nil
}
