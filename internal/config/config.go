// Package config loads and validates the tap configuration.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/marlon-costa-dc/ldif-tap/internal/ldif"
)

// Validation limits.
const (
	MaxBatchSize   = 10000
	MaxFileSizeCap = 1000 // MB
)

// Config is the full configuration surface of the tap.
type Config struct {
	// File input. At least one of FilePath and DirectoryPath is required.
	FilePath      string `yaml:"file_path"`
	FilePattern   string `yaml:"file_pattern" default:"*.ldif"`
	DirectoryPath string `yaml:"directory_path"`

	// Filtering.
	BaseDNFilter      string   `yaml:"base_dn_filter"`
	ObjectClassFilter []string `yaml:"object_class_filter"`
	AttributeFilter   []string `yaml:"attribute_filter"`
	ExcludeAttributes []string `yaml:"exclude_attributes"`

	// OperationalAttributes overrides the built-in operational attribute
	// deny-list. Leave unset to keep the default set.
	OperationalAttributes []string `yaml:"operational_attributes"`

	// Processing.
	Encoding                     string `yaml:"encoding" default:"utf-8"`
	BatchSize                    int    `yaml:"batch_size" default:"1000"`
	IncludeOperationalAttributes bool   `yaml:"include_operational_attributes"`
	InterpretBinaryAttributes    bool   `yaml:"interpret_binary_attributes"`
	StrictParsing                bool   `yaml:"strict_parsing" default:"true"`
	MaxFileSizeMB                int    `yaml:"max_file_size_mb" default:"100"`
}

// New returns a Config populated with defaults.
func New() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		// Only possible with a malformed default tag, which is a
		// programming error.
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load reads a YAML configuration file, substitutes environment variables,
// applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
func Parse(data []byte) (*Config, error) {
	cfg := New()

	if err := yaml.Unmarshal(substituteEnvVars(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR} and ${VAR:-default} with environment
// variable values.
func substituteEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		content := string(match[2 : len(match)-1])

		if idx := strings.Index(content, ":-"); idx != -1 {
			if val := os.Getenv(content[:idx]); val != "" {
				return []byte(val)
			}
			return []byte(content[idx+2:])
		}

		return []byte(os.Getenv(content))
	})
}

// Validate enforces the configuration business rules.
func (c *Config) Validate() error {
	if c.FilePath == "" && c.DirectoryPath == "" {
		return fmt.Errorf("at least one input source must be specified: file_path or directory_path")
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch_size cannot exceed %d", MaxBatchSize)
	}

	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max_file_size_mb must be positive")
	}
	if c.MaxFileSizeMB > MaxFileSizeCap {
		return fmt.Errorf("max_file_size_mb cannot exceed %d", MaxFileSizeCap)
	}

	if c.Encoding == "" {
		return fmt.Errorf("encoding must be specified")
	}
	if _, err := ResolveEncoding(c.Encoding); err != nil {
		return err
	}

	if overlap := intersect(c.AttributeFilter, c.ExcludeAttributes); len(overlap) > 0 {
		return fmt.Errorf("attributes cannot be both included and excluded: %s", strings.Join(overlap, ", "))
	}

	if c.BaseDNFilter != "" {
		if err := ldif.ValidateDNSyntax(c.BaseDNFilter); err != nil {
			return fmt.Errorf("base_dn_filter: %w", err)
		}
	}

	return nil
}

// FilterConfig translates the configuration into the parser's filter rules.
func (c *Config) FilterConfig() ldif.FilterConfig {
	return ldif.FilterConfig{
		BaseDN:                c.BaseDNFilter,
		ObjectClasses:         c.ObjectClassFilter,
		AttributeAllowList:    c.AttributeFilter,
		AttributeDenyList:     c.ExcludeAttributes,
		OperationalAttributes: c.OperationalAttributes,
		IncludeOperational:    c.IncludeOperationalAttributes,
	}
}

// MaxFileSizeBytes returns the file-size cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(a))
	for _, name := range a {
		set[strings.ToLower(name)] = struct{}{}
	}

	var out []string
	for _, name := range b {
		if _, ok := set[strings.ToLower(name)]; ok {
			out = append(out, name)
		}
	}
	return out
}
