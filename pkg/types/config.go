package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "survey-engine/0.1"). Per prd001-harvest R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetryConfig holds the backoff policy for transient HTTP failures.
// Per prd002-classification R5.3: bounded attempts, exponential delay
// with jitter, transient failures only.
type RetryConfig struct {
	// MaxRetries is the number of retry attempts after the first call
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// BaseDelay is the delay before the first retry; it doubles each
	// attempt (default 2s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`
}

// HarvestConfig holds settings for the harvest stage.
// Per prd001-harvest R1.3, R2.2-R2.5, R5.1.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of records to retrieve per backend
	// (default 200).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// PageSize is the number of records requested per API page (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// PageDelay is the delay between consecutive page requests (default 3s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// StartYear drops records published before this year. Zero disables
	// the filter.
	StartYear int `json:"start_year" yaml:"start_year"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// OutputPath is the CSV file the harvested record set is written to.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// Snapshot, when set, receives the records accumulated so far after
	// every page batch, so an interrupted harvest keeps a partial record
	// set on disk. A snapshot error aborts the backend.
	Snapshot func([]Record) error `json:"-" yaml:"-"`
}

// ClassifyConfig holds settings for the classification stage.
// Per prd002-classification R5.1-R5.5.
type ClassifyConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the text-generation model identifier
	// (e.g. "gpt-4o-mini-2024-07-18").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the classification service.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Retry is the backoff policy applied to each classification call.
	Retry RetryConfig `json:"retry" yaml:"retry"`

	// CheckpointFreq is the number of processed records between periodic
	// result/checkpoint flushes (default 10).
	CheckpointFreq int `json:"checkpoint_freq" yaml:"checkpoint_freq"`

	// CheckpointPath is the JSON file holding the progress marker.
	CheckpointPath string `json:"checkpoint_path" yaml:"checkpoint_path"`

	// ResultsPath is the CSV file the qualifying records are written to.
	ResultsPath string `json:"results_path" yaml:"results_path"`

	// CallDelay is the fixed delay after every classification attempt,
	// success or failure (default 300ms). Rate limiting, not backoff.
	CallDelay time.Duration `json:"call_delay" yaml:"call_delay"`
}

// CatalogConfig holds settings for the catalog stage.
// Per prd003-catalog R1.2, R2.3.
type CatalogConfig struct {
	// CatalogDir is the base directory for the catalog (contains index/,
	// export.yaml).
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
