package artifact_fetcher

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	typehelpers "github.com/turbot/go-kit/types"
)

// S3Fetcher copies objects from AWS S3 or an S3 compatible store (s3:// uris)
type S3Fetcher struct {
	client *s3.Client
}

func NewS3Fetcher(ctx context.Context, conn *AwsConnection) (*S3Fetcher, error) {
	if conn == nil {
		conn = &AwsConnection{}
	}
	if err := conn.Validate(); err != nil {
		return nil, fmt.Errorf("invalid aws connection: %w", err)
	}

	cfg, err := conn.GetClientConfiguration(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config, %w", err)
	}

	endpoint := conn.endpointUrl()
	client := s3.NewFromConfig(*cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		if conn.S3ForcePathStyle != nil {
			o.UsePathStyle = *conn.S3ForcePathStyle
		}
	})
	return &S3Fetcher{client: client}, nil
}

// S3FetcherFactory returns a FetcherFactory for use with a Router
func S3FetcherFactory(conn *AwsConnection) FetcherFactory {
	return func(ctx context.Context) (Fetcher, error) {
		return NewS3Fetcher(ctx, conn)
	}
}

func (f *S3Fetcher) Fetch(ctx context.Context, uri string, localDir string) (string, error) {
	bucket, key, err := ParseURI(uri, "s3")
	if err != nil {
		return "", err
	}

	getObjectOutput, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download %s from bucket %s, %w", key, typehelpers.SafeString(bucket), err)
	}
	defer getObjectOutput.Body.Close()

	return writeLocal(localDir, bucket, key, getObjectOutput.Body)
}
