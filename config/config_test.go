package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turbot/forensic-dispatch/containers"
	"github.com/turbot/forensic-dispatch/error_types"
)

const fullConfig = `
instance      = "turbinia-prod"
project       = "forensics-project"
region        = "us-central1"
zone          = "us-central1-f"
disk          = "suspect-disk"
api_url       = "https://turbinia.example.com"
token         = env.FD_TEST_TOKEN
poll_interval = 30
max_wait      = 3600
staging_dir   = "/var/tmp/forensic"
extensions    = [".plaso", ".csv"]
fetch_concurrency = 4
report_format = "markdown"

indicator "ssh-backdoor" {
  pattern = "sshd.*backdoor"
}

indicator "miner" {
  pattern = "xmrig"
  path    = "/intel/miner.txt"
}

gcp {
  project = "forensics-project"
}

aws {
  region              = "eu-west-1"
  endpoint_url        = "http://localhost:9000"
  s3_force_path_style = true
}
`

func TestParse_Full(t *testing.T) {
	t.Setenv("FD_TEST_TOKEN", "s3cr3t")

	c, err := Parse([]byte(fullConfig), "full.hcl")
	require.NoError(t, err)

	assert.Equal(t, "turbinia-prod", c.Instance)
	assert.Equal(t, "forensics-project", c.Project)
	assert.Equal(t, "us-central1-f", c.Zone)
	assert.Equal(t, "suspect-disk", c.Disk)
	require.NotNil(t, c.Token)
	assert.Equal(t, "s3cr3t", *c.Token)
	assert.Equal(t, 30*time.Second, c.PollIntervalDuration())
	assert.Equal(t, time.Hour, c.MaxWaitDuration())
	assert.Equal(t, 4, c.GetFetchConcurrency())
	assert.Equal(t, containers.TextFormatMarkdown, c.GetReportFormat())
	assert.Equal(t, []string{".plaso", ".csv"}, c.GetExtensions())

	dir, err := c.GetStagingDir()
	require.NoError(t, err)
	assert.Equal(t, "/var/tmp/forensic", dir)

	intel := c.ThreatIntelligence()
	require.Len(t, intel, 2)
	assert.Equal(t, &containers.ThreatIntelligence{Name: "ssh-backdoor", Indicator: "sshd.*backdoor"}, intel[0])
	assert.Equal(t, &containers.ThreatIntelligence{Name: "miner", Indicator: "xmrig", Path: "/intel/miner.txt"}, intel[1])

	require.NotNil(t, c.Gcp)
	assert.Equal(t, "forensics-project", c.Gcp.GetProject())
	require.NotNil(t, c.Aws)
	assert.Equal(t, "eu-west-1", *c.Aws.Region)
	assert.True(t, *c.Aws.S3ForcePathStyle)
}

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte(`project = "p"`), "min.hcl")
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, c.PollIntervalDuration())
	assert.Equal(t, time.Duration(0), c.MaxWaitDuration())
	assert.Equal(t, 1, c.GetFetchConcurrency())
	assert.Equal(t, containers.TextFormatPlainText, c.GetReportFormat())
	assert.Equal(t, []string{".plaso"}, c.GetExtensions())
	assert.Empty(t, c.ThreatIntelligence())
	assert.Nil(t, c.Gcp)
	assert.Nil(t, c.Aws)

	dir, err := c.GetStagingDir()
	require.NoError(t, err)
	assert.Empty(t, dir)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{name: "syntax", config: `project = `, wantErr: "invalid config bad.hcl"},
		{name: "unknown attribute", config: `colour = "blue"`, wantErr: "invalid config bad.hcl"},
		{name: "poll interval", config: `poll_interval = 0`, wantErr: "poll_interval must be greater than or equal to 1"},
		{name: "max wait", config: `max_wait = -1`, wantErr: "max_wait must not be negative"},
		{name: "fetch concurrency", config: `fetch_concurrency = 0`, wantErr: "fetch_concurrency must be greater than or equal to 1"},
		{name: "report format", config: `report_format = "html"`, wantErr: "report_format must be plaintext or markdown, got html"},
		{name: "extensions", config: `extensions = ["plaso"]`, wantErr: "invalid extensions: plaso"},
		{name: "api url", config: `api_url = "ftp://host"`, wantErr: "api_url must be an http or https url"},
		{name: "empty indicator", config: "indicator \"x\" {\n  pattern = \"\"\n}", wantErr: "indicator x: indicator pattern is empty"},
		{name: "aws keys", config: "aws {\n  access_key = \"a\"\n}", wantErr: "aws: access_key set without secret_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.config), "bad.hcl")
			require.Error(t, err)
			assert.ErrorIs(t, err, error_types.ErrConfiguration)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forensic.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`zone = "z"`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "z", c.Zone)

	_, err = Load(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.ErrorIs(t, err, error_types.ErrConfiguration)
}
