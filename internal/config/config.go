package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values. They favor politeness over throughput;
// heavier crawls override them in scuttle.yml or on the command line.
const (
	// AppName is used for XDG directory paths.
	AppName = "scuttle"

	// ConfigFileName is the configuration file every workspace carries.
	ConfigFileName = "scuttle.yml"

	// DatabaseFileName is the page store file inside a workspace.
	DatabaseFileName = "scuttle.db"

	// DefaultConcurrency is the number of concurrent fetch workers.
	DefaultConcurrency = 4

	// DefaultBatchSize is how many pages one claim round leases.
	DefaultBatchSize = 100

	// DefaultFetchTimeout bounds each fetch attempt, not the whole run.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultRetryBudget is the number of re-attempts after a failed fetch.
	DefaultRetryBudget = 2

	// DefaultBackoffBase is the first retry's backoff.
	DefaultBackoffBase = 250 * time.Millisecond

	// DefaultBackoffMax caps the exponential backoff growth.
	DefaultBackoffMax = 5 * time.Second

	// DefaultDelay is the politeness pause between dispatched fetches.
	// Zero keeps test runs fast; crawls of shared servers should raise it.
	DefaultDelay = 0 * time.Second

	// DefaultMaxBodySize limits how much of a response body is stored.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultRuleTimeout interrupts a rule invocation that never returns.
	DefaultRuleTimeout = 10 * time.Second
)

// Duration wraps time.Duration so YAML values like "250ms" or "1m30s"
// parse with time.ParseDuration. Plain integers are read as nanoseconds,
// matching time.Duration's own representation.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case int:
		*d = Duration(time.Duration(v))
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the crawl configuration of a workspace. One flat struct
// keeps scuttle.yml easy to scan; revisit if the option count grows.
type Config struct {
	// Concurrency is the number of concurrent fetch workers. It also sizes
	// the rule engine pool used for cascade work.
	Concurrency int `yaml:"concurrency"`

	// BatchSize is how many pages one claim round leases at most.
	BatchSize int `yaml:"batchSize"`

	// FetchTimeout bounds each individual fetch attempt.
	FetchTimeout Duration `yaml:"fetchTimeout"`

	// RetryBudget is the number of re-attempts after the first failed
	// fetch of a page. Zero means a single attempt.
	RetryBudget int `yaml:"retryBudget"`

	// BackoffBase is the backoff before the first retry; it doubles per
	// attempt up to BackoffMax.
	BackoffBase Duration `yaml:"backoffBase"`

	// BackoffMax caps the retry backoff.
	BackoffMax Duration `yaml:"backoffMax"`

	// Delay is the politeness pause between dispatched fetches.
	Delay Duration `yaml:"delay"`

	// MaxBodySize limits how many bytes of a response body are stored.
	MaxBodySize int64 `yaml:"maxBodySize"`

	// UserAgent overrides the default User-Agent header when non-empty.
	UserAgent string `yaml:"userAgent,omitempty"`

	// AllowedContentTypes restricts accepted responses to those whose
	// Content-Type matches one of these prefixes. Empty accepts any type.
	AllowedContentTypes []string `yaml:"allowedContentTypes,omitempty"`

	// CascadeNavigate runs navigate rules during the crawl instead of a
	// separate 'scuttle navigate' pass.
	CascadeNavigate bool `yaml:"cascadeNavigate"`

	// CascadeParse runs parse rules during the crawl instead of a
	// separate 'scuttle parse' pass.
	CascadeParse bool `yaml:"cascadeParse"`

	// RuleTimeout interrupts a single rule invocation that runs too long.
	RuleTimeout Duration `yaml:"ruleTimeout"`
}

// Default returns a Config populated with the package defaults.
func Default() *Config {
	return &Config{
		Concurrency:  DefaultConcurrency,
		BatchSize:    DefaultBatchSize,
		FetchTimeout: Duration(DefaultFetchTimeout),
		RetryBudget:  DefaultRetryBudget,
		BackoffBase:  Duration(DefaultBackoffBase),
		BackoffMax:   Duration(DefaultBackoffMax),
		Delay:        Duration(DefaultDelay),
		MaxBodySize:  DefaultMaxBodySize,
		RuleTimeout:  Duration(DefaultRuleTimeout),
	}
}

// Validate checks the configuration for values that would break a crawl.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.FetchTimeout.Std() <= 0 {
		return ErrInvalidFetchTimeout
	}
	if c.RetryBudget < 0 {
		return ErrInvalidRetryBudget
	}
	if c.Delay.Std() < 0 {
		return ErrInvalidDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	return nil
}
