package artifact_fetcher

import (
	"context"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
)

// GcpConnection holds the credentials used to read result artifacts from GCS
type GcpConnection struct {
	Project      *string `hcl:"project"`
	Credentials  *string `hcl:"credentials"`
	QuotaProject *string `hcl:"quota_project"`
	Impersonate  *string `hcl:"impersonate"`
	// Endpoint overrides the storage endpoint, e.g. for an emulator
	Endpoint *string `hcl:"endpoint"`
}

func (c *GcpConnection) Validate() error {
	return nil
}

func (c *GcpConnection) Identifier() string {
	return "gcp"
}

func (c *GcpConnection) GetProject() string {
	// return if set
	if c.Project != nil {
		return *c.Project
	}

	// else check environment variables
	envVars := []string{"CLOUDSDK_CORE_PROJECT", "GCP_PROJECT"}
	for _, envVar := range envVars {
		if val, exists := os.LookupEnv(envVar); exists {
			return val
		}
	}

	return ""
}

func (c *GcpConnection) GetClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	var opts []option.ClientOption

	// credentials
	if c.Credentials != nil {
		contents, err := pathOrContents(*c.Credentials)
		if err != nil {
			return opts, fmt.Errorf("error reading credentials file: %v", err)
		}
		opts = append(opts, option.WithCredentialsJSON([]byte(contents)))
	}

	// quota project
	qp := os.Getenv("GOOGLE_CLOUD_QUOTA_PROJECT")
	if c.QuotaProject != nil {
		qp = *c.QuotaProject
	}
	if qp != "" {
		opts = append(opts, option.WithQuotaProject(qp))
	}

	// impersonation of service account
	if c.Impersonate != nil {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: *c.Impersonate,
			Scopes:          []string{"https://www.googleapis.com/auth/devstorage.read_only"},
		})
		if err != nil {
			return opts, err
		}

		opts = append(opts, option.WithTokenSource(ts))
	}

	if c.Endpoint != nil {
		opts = append(opts, option.WithEndpoint(*c.Endpoint))
		// emulators accept unauthenticated requests
		if c.Credentials == nil && c.Impersonate == nil {
			opts = append(opts, option.WithoutAuthentication())
		}
	}
	return opts, nil
}

// pathOrContents returns the contents of in if it names a file, otherwise in itself
func pathOrContents(in string) (string, error) {
	if len(in) == 0 {
		return "", nil
	}

	filePath := in

	if filePath[0] == '~' {
		var err error
		filePath, err = homedir.Expand(filePath)
		if err != nil {
			return filePath, err
		}
	}

	if _, err := os.Stat(filePath); err == nil {
		contents, err := os.ReadFile(filePath)
		if err != nil {
			return string(contents), err
		}
		return string(contents), nil
	}

	if len(filePath) > 1 && (filePath[0] == '/' || filePath[0] == '\\') {
		return "", fmt.Errorf("%s: no such file or dir", filePath)
	}

	return in, nil
}
