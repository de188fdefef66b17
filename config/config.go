package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/turbot/forensic-dispatch/artifact"
	"github.com/turbot/forensic-dispatch/artifact_fetcher"
	"github.com/turbot/forensic-dispatch/containers"
	"github.com/turbot/forensic-dispatch/error_types"
	"github.com/turbot/forensic-dispatch/evidence"
)

const (
	DefaultPollIntervalSecs = 60
	DefaultFetchConcurrency = 1
)

// Config is the processor configuration, read from an HCL file and overridden by CLI flags
type Config struct {
	// Instance is the name of the analysis service instance
	Instance string `hcl:"instance,optional"`
	Project  string `hcl:"project,optional"`
	Region   string `hcl:"region,optional"`
	Zone     string `hcl:"zone,optional"`
	// Disk is the evidence target; if empty the first Disk container of the state is used
	Disk string `hcl:"disk,optional"`
	// ServiceProject is the project the analysis service operates in. If set, evidence
	// from any other project is rejected before submission.
	ServiceProject string `hcl:"service_project,optional"`

	ApiUrl    string  `hcl:"api_url,optional"`
	// AnalysisPlugin is the path of an executable serving the analysis client, used instead of api_url
	AnalysisPlugin *string `hcl:"analysis_plugin"`
	Token     *string `hcl:"token"`
	Requester *string `hcl:"requester"`

	PollInterval *int `hcl:"poll_interval"`
	// MaxWait bounds the wait for the request in seconds, unbounded if 0
	MaxWait *int `hcl:"max_wait"`

	StagingDir       *string  `hcl:"staging_dir"`
	Extensions       []string `hcl:"extensions,optional"`
	FetchConcurrency *int     `hcl:"fetch_concurrency"`
	ReportFormat     *string  `hcl:"report_format"`

	Indicators []Indicator `hcl:"indicator,block"`

	Gcp *artifact_fetcher.GcpConnection `hcl:"gcp,block"`
	Aws *artifact_fetcher.AwsConnection `hcl:"aws,block"`
}

// Indicator is a threat intelligence filter declared in config rather than by an upstream module
type Indicator struct {
	Name    string  `hcl:"name,label"`
	Pattern string  `hcl:"pattern"`
	Path    *string `hcl:"path"`
}

// Load reads and validates the config file at path. The path may start with ~
func Load(path string) (*Config, error) {
	filename, err := homedir.Expand(path)
	if err != nil {
		return nil, error_types.NewConfigurationError("invalid config path %s: %s", path, err.Error())
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, error_types.NewConfigurationError("failed to read config file: %s", err.Error())
	}
	return Parse(data, filename)
}

// Parse decodes and validates config data
func Parse(data []byte, filename string) (*Config, error) {
	c := &Config{}
	if err := ParseConfig(data, filename, hcl.InitialPos, c); err != nil {
		return nil, error_types.NewConfigurationError("invalid config %s: %s", filename, err.Error())
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.PollInterval != nil && *c.PollInterval < 1 {
		return error_types.NewConfigurationError("poll_interval must be greater than or equal to 1")
	}
	if c.MaxWait != nil && *c.MaxWait < 0 {
		return error_types.NewConfigurationError("max_wait must not be negative")
	}
	if c.FetchConcurrency != nil && *c.FetchConcurrency < 1 {
		return error_types.NewConfigurationError("fetch_concurrency must be greater than or equal to 1")
	}
	if c.ReportFormat != nil {
		switch containers.TextFormat(*c.ReportFormat) {
		case containers.TextFormatPlainText, containers.TextFormatMarkdown:
		default:
			return error_types.NewConfigurationError("report_format must be %s or %s, got %s", containers.TextFormatPlainText, containers.TextFormatMarkdown, *c.ReportFormat)
		}
	}
	if err := artifact.ValidateExtensions(c.Extensions); err != nil {
		return error_types.NewConfigurationError("%s", err.Error())
	}
	if c.ApiUrl != "" {
		u, err := url.Parse(c.ApiUrl)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return error_types.NewConfigurationError("api_url must be an http or https url, got %s", c.ApiUrl)
		}
	}
	for _, i := range c.Indicators {
		if err := i.toIndicator().Validate(); err != nil {
			return error_types.NewConfigurationError("indicator %s: %s", i.Name, err.Error())
		}
	}
	if c.Gcp != nil {
		if err := c.Gcp.Validate(); err != nil {
			return error_types.NewConfigurationError("gcp: %s", err.Error())
		}
	}
	if c.Aws != nil {
		if err := c.Aws.Validate(); err != nil {
			return error_types.NewConfigurationError("aws: %s", err.Error())
		}
	}
	return nil
}

func (c *Config) PollIntervalDuration() time.Duration {
	if c.PollInterval == nil {
		return DefaultPollIntervalSecs * time.Second
	}
	return time.Duration(*c.PollInterval) * time.Second
}

func (c *Config) MaxWaitDuration() time.Duration {
	if c.MaxWait == nil {
		return 0
	}
	return time.Duration(*c.MaxWait) * time.Second
}

func (c *Config) GetFetchConcurrency() int {
	if c.FetchConcurrency == nil {
		return DefaultFetchConcurrency
	}
	return *c.FetchConcurrency
}

func (c *Config) GetReportFormat() containers.TextFormat {
	if c.ReportFormat == nil {
		return containers.TextFormatPlainText
	}
	return containers.TextFormat(*c.ReportFormat)
}

func (c *Config) GetExtensions() []string {
	if len(c.Extensions) == 0 {
		return []string{artifact.DefaultResultExtension}
	}
	return c.Extensions
}

// GetStagingDir returns the expanded staging directory, or an empty string if unset
func (c *Config) GetStagingDir() (string, error) {
	if c.StagingDir == nil || *c.StagingDir == "" {
		return "", nil
	}
	dir, err := homedir.Expand(*c.StagingDir)
	if err != nil {
		return "", fmt.Errorf("invalid staging_dir: %w", err)
	}
	return dir, nil
}

// ThreatIntelligence returns the configured indicators as containers, in declaration order
func (c *Config) ThreatIntelligence() []*containers.ThreatIntelligence {
	res := make([]*containers.ThreatIntelligence, 0, len(c.Indicators))
	for _, i := range c.Indicators {
		ind := i.toIndicator()
		res = append(res, &containers.ThreatIntelligence{
			Name:      ind.Name,
			Indicator: ind.Pattern,
			Path:      ind.SourcePath,
		})
	}
	return res
}

func (i Indicator) toIndicator() evidence.Indicator {
	res := evidence.Indicator{Name: i.Name, Pattern: i.Pattern}
	if i.Path != nil {
		res.SourcePath = *i.Path
	}
	return res
}
