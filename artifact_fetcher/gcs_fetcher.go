package artifact_fetcher

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// GCSFetcher copies objects from Google Cloud Storage (gs:// uris)
type GCSFetcher struct {
	client *storage.Client
}

func NewGCSFetcher(ctx context.Context, conn *GcpConnection) (*GCSFetcher, error) {
	if conn == nil {
		conn = &GcpConnection{}
	}
	opts, err := conn.GetClientOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed setting GCP Storage client config: %s", err.Error())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Storage client: %s", err.Error())
	}
	return &GCSFetcher{client: client}, nil
}

// GCSFetcherFactory returns a FetcherFactory for use with a Router
func GCSFetcherFactory(conn *GcpConnection) FetcherFactory {
	return func(ctx context.Context) (Fetcher, error) {
		return NewGCSFetcher(ctx, conn)
	}
}

func (f *GCSFetcher) Fetch(ctx context.Context, uri string, localDir string) (string, error) {
	bucket, key, err := ParseURI(uri, "gs")
	if err != nil {
		return "", err
	}

	reader, err := f.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get object reader: %s", err.Error())
	}
	defer reader.Close()

	return writeLocal(localDir, bucket, key, reader)
}

func (f *GCSFetcher) Close() error {
	return f.client.Close()
}
