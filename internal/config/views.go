package config

import "time"

// WorkflowConfig controls state-machine and transition retry behavior.
type WorkflowConfig struct {
	ConcurrentModificationRetries int `mapstructure:"concurrent_modification_retries" yaml:"concurrent_modification_retries"`
	// AllowStaleSessionResume decides whether a stale session may be
	// resumed without an explicit override.
	AllowStaleSessionResume bool `mapstructure:"allow_stale_session_resume" yaml:"allow_stale_session_resume"`
}

// QAConfig controls validation-round and guard policy for QA records.
type QAConfig struct {
	RequiredValidators  []string `mapstructure:"required_validators" yaml:"required_validators"`
	RequiredEvidence    []string `mapstructure:"required_evidence" yaml:"required_evidence"`
	BundleApprovalVerdict string `mapstructure:"bundle_approval_verdict" yaml:"bundle_approval_verdict"`
}

// CompositionConfig controls the composition pipeline per content type.
type CompositionConfig struct {
	EnableSections            bool     `mapstructure:"enable_sections" yaml:"enable_sections"`
	EnableDedupe               bool     `mapstructure:"enable_dedupe" yaml:"enable_dedupe"`
	DedupeShingleSize           int      `mapstructure:"dedupe_shingle_size" yaml:"dedupe_shingle_size"`
	EnableTemplateProcessing    bool     `mapstructure:"enable_template_processing" yaml:"enable_template_processing"`
	CompositionMode             string   `mapstructure:"composition_mode" yaml:"composition_mode"` // section|concatenate|yaml_merge
	ExcludeGlobs                 []string `mapstructure:"exclude_globs" yaml:"exclude_globs"`
	// AllowSectionOverride is loaded from config but no composition code
	// reads it: a later layer's SECTION never replaces an existing base
	// section, whatever its value.
	AllowSectionOverride bool `mapstructure:"allow_section_override" yaml:"allow_section_override"`
}

// SessionConfig controls session lifecycle policy.
type SessionConfig struct {
	WorktreeBase      string        `mapstructure:"worktree_base" yaml:"worktree_base"`
	StaleAfter        time.Duration `mapstructure:"stale_after" yaml:"stale_after"`
	LockTimeout       time.Duration `mapstructure:"lock_timeout" yaml:"lock_timeout"`
	TransactionRetryBudget int      `mapstructure:"transaction_retry_budget" yaml:"transaction_retry_budget"`
}

// DefaultWorkflowConfig returns a small, conservative default since no
// retry constant is canonical across deployments.
func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{ConcurrentModificationRetries: 3, AllowStaleSessionResume: false}
}

// DefaultCompositionConfig exposes a sane, documented default rather than
// requiring every caller to fill in every field.
func DefaultCompositionConfig() CompositionConfig {
	return CompositionConfig{
		EnableSections:           true,
		EnableDedupe:             false,
		DedupeShingleSize:        12,
		EnableTemplateProcessing: true,
		CompositionMode:          "section",
		AllowSectionOverride:     false,
	}
}

// DefaultSessionConfig provides conservative lock/stale timeouts.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		WorktreeBase:           ".edison/worktrees",
		StaleAfter:             2 * time.Hour,
		LockTimeout:            10 * time.Second,
		TransactionRetryBudget: 1,
	}
}

// Unmarshal decodes the given dotted key's merged value into out using the
// viper/mapstructure typed-view layer.
func (r *Resolver) Unmarshal(key string, out any) error {
	v, err := r.Viper()
	if err != nil {
		return err
	}
	if key == "" {
		return v.Unmarshal(out)
	}
	return v.UnmarshalKey(key, out)
}
