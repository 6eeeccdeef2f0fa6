package pipeline

import (
	"path/filepath"

	"git.home.luguber.info/inful/sitedeploy/internal/config"
	"git.home.luguber.info/inful/sitedeploy/internal/retry"
)

// Plan is an immutable execution plan derived from config.
// It captures normalized inputs and knobs for the pipeline stages.
type Plan struct {
	SourceRoot string
	OutputDir  string // absolute path of the generated site
	Candidates []string
	Remote     config.RemoteConfig
	Retry      retry.Policy
}

// PlanBuilder constructs a Plan with resolved paths and policies.
type PlanBuilder struct {
	plan Plan
}

// NewPlanBuilder creates a builder seeded from config.
func NewPlanBuilder(cfg *config.Config) *PlanBuilder {
	return &PlanBuilder{plan: Plan{
		SourceRoot: cfg.Site.Root,
		OutputDir:  cfg.Site.OutputDir,
		Candidates: cfg.Generator.Candidates,
		Remote:     cfg.Remote,
		Retry:      retry.FromConfig(cfg.Retry),
	}}
}

// WithSourceRoot overrides the source tree root.
func (b *PlanBuilder) WithSourceRoot(root string) *PlanBuilder {
	b.plan.SourceRoot = root
	return b
}

// WithCandidates overrides the generator candidate list.
func (b *PlanBuilder) WithCandidates(candidates []string) *PlanBuilder {
	if len(candidates) > 0 {
		b.plan.Candidates = candidates
	}
	return b
}

// WithRetry overrides the retry policy.
func (b *PlanBuilder) WithRetry(p retry.Policy) *PlanBuilder {
	b.plan.Retry = p
	return b
}

// Build resolves relative paths and returns the constructed Plan.
func (b *PlanBuilder) Build() *Plan {
	if !filepath.IsAbs(b.plan.OutputDir) {
		b.plan.OutputDir = filepath.Join(b.plan.SourceRoot, b.plan.OutputDir)
	}
	return &b.plan
}
