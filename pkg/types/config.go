// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-tracker/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SourceConfig holds settings shared by the metadata provider clients.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the page size requested per keyword query (default 100,
	// capped to each provider's page limit).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PrimaryPacing is the minimum delay between consecutive Semantic
	// Scholar requests (default 3s, free-tier friendly).
	PrimaryPacing time.Duration `json:"primary_pacing" yaml:"primary_pacing"`

	// FallbackPacing is the minimum delay between consecutive OpenAlex
	// requests (default 1s).
	FallbackPacing time.Duration `json:"fallback_pacing" yaml:"fallback_pacing"`

	// RetryDelay is the fixed wait before the single retry of a transient
	// failure (default 5s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`
}

// StoreConfig holds settings for the paper store.
type StoreConfig struct {
	// Path is the sqlite database file (default "data/papers.db").
	Path string `json:"path" yaml:"path"`
}

// GenerationConfig holds settings for the text-generation provider.
type GenerationConfig struct {
	// Endpoint is the Azure OpenAI resource endpoint
	// (e.g. "https://myresource.openai.azure.com").
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Deployment is the model deployment name (e.g. "gpt-4o").
	Deployment string `json:"deployment" yaml:"deployment"`

	// APIVersion is the Azure OpenAI API version string.
	APIVersion string `json:"api_version" yaml:"api_version"`

	// APIKey is the authentication key for the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Language is the output language for generated texts (default "English").
	Language string `json:"language" yaml:"language"`

	// SummaryMaxTokens bounds the summary generation (default 1000).
	SummaryMaxTokens int `json:"summary_max_tokens" yaml:"summary_max_tokens"`

	// CommentaryMaxTokens bounds the commentary generation (default 800).
	CommentaryMaxTokens int `json:"commentary_max_tokens" yaml:"commentary_max_tokens"`

	// Timeout is the HTTP timeout for generation calls.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// PublishConfig holds settings for the downstream export step.
type PublishConfig struct {
	// OutputDir is the directory digests are written to (default "output/digests").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// PipelineConfig groups all stage configurations for one scheduled run.
type PipelineConfig struct {
	// Keywords is the ordered keyword set queried each acquisition run.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// MinYear is the four-digit publication-year floor for candidates.
	MinYear int `json:"min_year" yaml:"min_year"`

	Source     SourceConfig     `json:"source" yaml:"source"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	Publish    PublishConfig    `json:"publish" yaml:"publish"`
}
