package adapter

import (
	"context"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

const gcsScheme = "gs://"

// Storage opens record files from Cloud Storage (gs://bucket/object) or the
// local file system. The Cloud Storage client is created on first use so
// local runs need no Google credentials.
type Storage struct {
	client    *storage.Client
	newClient func(ctx context.Context) (*storage.Client, error)
}

func NewStorage() *Storage {
	return &Storage{
		newClient: func(ctx context.Context) (*storage.Client, error) {
			return storage.NewClient(ctx)
		},
	}
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, gcsScheme) {
		return "", "", goerr.New("not a gs:// URI", goerr.V("uri", uri))
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(uri, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", goerr.New("gs:// URI must name a bucket and an object", goerr.V("uri", uri))
	}
	return bucket, object, nil
}

func (s *Storage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, gcsScheme) {
		f, err := os.Open(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open record file", goerr.V("path", path))
		}
		return f, nil
	}

	bucket, object, err := ParseGCSURI(path)
	if err != nil {
		return nil, err
	}

	if s.client == nil {
		client, err := s.newClient(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage client")
		}
		s.client = client
	}

	reader, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage",
			goerr.V("bucket", bucket),
			goerr.V("object", object),
		)
	}
	return reader, nil
}

func (s *Storage) Close() error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close storage client")
	}
	return nil
}
