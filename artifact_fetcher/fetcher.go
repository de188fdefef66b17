package artifact_fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Fetcher retrieves a remote artifact into a local directory and returns the local path
type Fetcher interface {
	Fetch(ctx context.Context, uri string, localDir string) (string, error)
}

// FetcherFactory creates a Fetcher on first use
type FetcherFactory func(ctx context.Context) (Fetcher, error)

// Router dispatches a fetch to the fetcher registered for the uri scheme.
// Fetchers are created lazily, so a run which only produces local artifacts
// never needs cloud credentials.
type Router struct {
	mu        sync.Mutex
	factories map[string]FetcherFactory
	fetchers  map[string]Fetcher
}

func NewRouter() *Router {
	return &Router{
		factories: make(map[string]FetcherFactory),
		fetchers:  make(map[string]Fetcher),
	}
}

func (r *Router) Register(scheme string, factory FetcherFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[scheme] = factory
	delete(r.fetchers, scheme)
}

func (r *Router) Fetch(ctx context.Context, uri string, localDir string) (string, error) {
	scheme, _, found := strings.Cut(uri, "://")
	if !found {
		return "", fmt.Errorf("%s is not a uri", uri)
	}
	f, err := r.fetcherFor(ctx, scheme)
	if err != nil {
		return "", err
	}
	return f.Fetch(ctx, uri, localDir)
}

func (r *Router) fetcherFor(ctx context.Context, scheme string) (Fetcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.fetchers[scheme]; ok {
		return f, nil
	}
	factory, ok := r.factories[scheme]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for scheme %s", scheme)
	}
	f, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s fetcher: %w", scheme, err)
	}
	r.fetchers[scheme] = f
	return f, nil
}

// Close closes every fetcher created so far which holds a client
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for scheme, f := range r.fetchers {
		if c, ok := f.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close %s fetcher: %w", scheme, err))
			}
		}
	}
	r.fetchers = make(map[string]Fetcher)
	return errors.Join(errs...)
}

// ParseURI splits an object store uri of the given scheme into bucket and key
func ParseURI(uri, scheme string) (bucket, key string, err error) {
	prefix := scheme + "://"
	if !strings.HasPrefix(uri, prefix) {
		return "", "", fmt.Errorf("%s is not a %s uri", uri, scheme)
	}
	bucket, key, _ = strings.Cut(strings.TrimPrefix(uri, prefix), "/")
	if bucket == "" || key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("%s does not name an object", uri)
	}
	return bucket, key, nil
}

// localPathFor returns the staging path for an object, mirroring bucket/key under localDir
func localPathFor(localDir, bucket, key string) (string, error) {
	localFilePath := filepath.Join(localDir, bucket, filepath.FromSlash(key))
	rel, err := filepath.Rel(localDir, localFilePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("object %s/%s resolves outside the staging directory", bucket, key)
	}
	return localFilePath, nil
}

// writeLocal copies reader to the staging path for bucket/key.
// A partially written file is removed on failure.
func writeLocal(localDir, bucket, key string, reader io.Reader) (string, error) {
	localFilePath, err := localPathFor(localDir, bucket, key)
	if err != nil {
		return "", err
	}

	// ensure the directory exists of the file to write to
	if err := os.MkdirAll(filepath.Dir(localFilePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory for file, %w", err)
	}

	outFile, err := os.Create(localFilePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file, %w", err)
	}

	n, err := io.Copy(outFile, reader)
	closeErr := outFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(localFilePath)
		return "", fmt.Errorf("failed to write data to file, %w", err)
	}

	slog.Debug("Wrote artifact to staging directory", "bucket", bucket, "key", key, "local_path", localFilePath, "bytes", n)
	return localFilePath, nil
}
